package domain

import "time"

// Customer is an authenticated owner of accounts. The password is stored
// only as a bcrypt hash.
type Customer struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
