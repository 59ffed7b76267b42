package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ambulance/internal/domain"
	"ambulance/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

const tripColumns = `id, driver_id, ambulance_id, status,
		pickup_lat, pickup_lng, drop_lat, drop_lng,
		requested_at, accepted_at, arrived_at, started_at, completed_at, cancelled_at, expired_at`

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.DriverID,
		trip.AmbulanceID,
		trip.Status,
		trip.Pickup.Lat,
		trip.Pickup.Lng,
		trip.Drop.Lat,
		trip.Drop.Lng,
		trip.RequestedAt,
		nullTime(trip.AcceptedAt),
		nullTime(trip.ArrivedAt),
		nullTime(trip.StartedAt),
		nullTime(trip.CompletedAt),
		nullTime(trip.CancelledAt),
		nullTime(trip.ExpiredAt),
	)

	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return trip, nil
}

// GetActiveByDriverID retrieves the driver's non-terminal trip, or nil
// when none exists. "No active trip" is a regular result, not an error.
func (r *TripRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE driver_id = $1
		  AND status NOT IN ('completed', 'cancelled_by_patient', 'cancelled_by_driver', 'expired')
		ORDER BY requested_at DESC
		LIMIT 1
	`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, driverID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return trip, nil
}

// Update updates an existing trip.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips
		SET status = $1, accepted_at = $2, arrived_at = $3, started_at = $4,
		    completed_at = $5, cancelled_at = $6, expired_at = $7
		WHERE id = $8
	`

	result, err := r.q.ExecContext(ctx, query,
		trip.Status,
		nullTime(trip.AcceptedAt),
		nullTime(trip.ArrivedAt),
		nullTime(trip.StartedAt),
		nullTime(trip.CompletedAt),
		nullTime(trip.CancelledAt),
		nullTime(trip.ExpiredAt),
		trip.ID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*domain.Trip, error) {
	var trip domain.Trip
	var acceptedAt, arrivedAt, startedAt, completedAt, cancelledAt, expiredAt sql.NullTime

	err := row.Scan(
		&trip.ID,
		&trip.DriverID,
		&trip.AmbulanceID,
		&trip.Status,
		&trip.Pickup.Lat,
		&trip.Pickup.Lng,
		&trip.Drop.Lat,
		&trip.Drop.Lng,
		&trip.RequestedAt,
		&acceptedAt,
		&arrivedAt,
		&startedAt,
		&completedAt,
		&cancelledAt,
		&expiredAt,
	)
	if err != nil {
		return nil, err
	}

	setIf := func(dst *time.Time, src sql.NullTime) {
		if src.Valid {
			*dst = src.Time
		}
	}
	setIf(&trip.AcceptedAt, acceptedAt)
	setIf(&trip.ArrivedAt, arrivedAt)
	setIf(&trip.StartedAt, startedAt)
	setIf(&trip.CompletedAt, completedAt)
	setIf(&trip.CancelledAt, cancelledAt)
	setIf(&trip.ExpiredAt, expiredAt)

	return &trip, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
