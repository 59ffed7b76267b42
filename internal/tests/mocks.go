package tests

import (
	"context"
	"sync"
	"sync/atomic"

	"ambulance/internal/domain"
	"ambulance/internal/redis"
	"ambulance/internal/repository"
	"ambulance/internal/tracking"
)

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

// AddTrip seeds a trip into the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[trip.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockTripRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.trips {
		if t.DriverID == driverID && t.Active() {
			copy := *t
			return &copy, nil
		}
	}
	return nil, nil
}

// GetTrip returns the stored trip for test assertions.
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trips[id]
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Counters for verification
	CreateCallCount       int32
	UpdateStatusCallCount int32

	// Error injection
	CreateError       error
	UpdateStatusError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Status = status
	return nil
}

// GetDriver returns driver for test assertions.
func (m *MockDriverRepository) GetDriver(id string) *domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[id]
}

// ──────────────────────────────────────────────
// MOCK OTP STORE
// ──────────────────────────────────────────────

// MockOTPStore is a mock implementation of OTPStoreInterface.
type MockOTPStore struct {
	mu   sync.RWMutex
	otps map[string]string

	// Counters for verification
	SetCallCount    int32
	GetCallCount    int32
	DeleteCallCount int32

	// Error injection
	SetError error
	GetError error
}

// NewMockOTPStore creates a new mock OTP store.
func NewMockOTPStore() *MockOTPStore {
	return &MockOTPStore{otps: make(map[string]string)}
}

func (m *MockOTPStore) SetOTP(ctx context.Context, tripID, otp string) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otps[tripID] = otp
	return nil
}

func (m *MockOTPStore) GetOTP(ctx context.Context, tripID string) (string, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return "", m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.otps[tripID], nil
}

func (m *MockOTPStore) DeleteOTP(ctx context.Context, tripID string) error {
	atomic.AddInt32(&m.DeleteCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.otps, tripID)
	return nil
}

// StoredOTP returns the stored code for test assertions.
func (m *MockOTPStore) StoredOTP(tripID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.otps[tripID]
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of LocationStoreInterface.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations map[string]redis.AmbulanceLocation

	// Counters for verification
	UpdateCallCount int32
	RemoveCallCount int32

	// Error injection
	UpdateError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{locations: make(map[string]redis.AmbulanceLocation)}
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, ambulanceID string, lat, lng float64) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[ambulanceID] = redis.AmbulanceLocation{AmbulanceID: ambulanceID, Lat: lat, Lng: lng}
	return nil
}

func (m *MockLocationStore) FindNearby(ctx context.Context, lat, lng, radiusKm float64) ([]redis.AmbulanceLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]redis.AmbulanceLocation, 0, len(m.locations))
	for _, loc := range m.locations {
		result = append(result, loc)
	}
	return result, nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, ambulanceID string) error {
	atomic.AddInt32(&m.RemoveCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, ambulanceID)
	return nil
}

// Location returns the stored location for test assertions.
func (m *MockLocationStore) Location(ambulanceID string) (redis.AmbulanceLocation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loc, ok := m.locations[ambulanceID]
	return loc, ok
}

// ──────────────────────────────────────────────
// MOCK TRIP PUSHER
// ──────────────────────────────────────────────

// MockTripPusher records trip pushes sent toward the driver's channel.
type MockTripPusher struct {
	mu     sync.Mutex
	pushes []*domain.Trip

	// Counters for verification
	PushCallCount int32

	// Error injection
	PushError error
}

// NewMockTripPusher creates a new mock pusher.
func NewMockTripPusher() *MockTripPusher {
	return &MockTripPusher{}
}

func (m *MockTripPusher) PushTrip(driverID string, trip *domain.Trip) error {
	atomic.AddInt32(&m.PushCallCount, 1)
	if m.PushError != nil {
		return m.PushError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *trip
	m.pushes = append(m.pushes, &copy)
	return nil
}

// LastPush returns the most recent pushed trip, or nil.
func (m *MockTripPusher) LastPush() *domain.Trip {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pushes) == 0 {
		return nil
	}
	return m.pushes[len(m.pushes)-1]
}

// ──────────────────────────────────────────────
// MOCK POSITION PUBLISHER
// ──────────────────────────────────────────────

// MockPositionPublisher records position events bound for the stream.
type MockPositionPublisher struct {
	mu     sync.Mutex
	events []tracking.PositionEvent

	// Counters for verification
	PublishCallCount int32

	// Error injection
	PublishError error
}

// NewMockPositionPublisher creates a new mock publisher.
func NewMockPositionPublisher() *MockPositionPublisher {
	return &MockPositionPublisher{}
}

func (m *MockPositionPublisher) PublishPosition(event tracking.PositionEvent) error {
	atomic.AddInt32(&m.PublishCallCount, 1)
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns the recorded events.
func (m *MockPositionPublisher) Events() []tracking.PositionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]tracking.PositionEvent(nil), m.events...)
}
