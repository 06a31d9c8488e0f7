package domain

import "time"

// User is the domain model for registered reporters. Accounts are created at
// registration and never mutated afterwards.
type User struct {
	ID           string
	Name         *string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
