package domain

import "time"

// DriverStatus represents the current status of a driver.
type DriverStatus string

const (
	DriverStatusActive   DriverStatus = "ACTIVE"
	DriverStatusInactive DriverStatus = "INACTIVE"
)

// Driver represents a driver in the system.
type Driver struct {
	ID             string
	OrganizationID string
	Name           string
	Phone          string
	Status         DriverStatus
	CreatedAt      time.Time
}
