package domain

// DriverStatus represents the current status of an ambulance driver.
type DriverStatus string

const (
	DriverStatusOnDuty  DriverStatus = "ON_DUTY"
	DriverStatusOffDuty DriverStatus = "OFF_DUTY"
	DriverStatusOnTrip  DriverStatus = "ON_TRIP"
)

// Driver represents an ambulance driver.
type Driver struct {
	ID          string
	Name        string
	Phone       string
	AmbulanceID string
	Status      DriverStatus
}
