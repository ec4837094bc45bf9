package domain

import "time"

// AccountStatus represents lifecycle states for a citizen account.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
)

// CitizenAccount is the portal login identity for citizens who submit
// requests.
type CitizenAccount struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Status       AccountStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
