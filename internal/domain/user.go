package domain

import "time"

// User is an account. PasswordHash never leaves the service.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsAdmin      bool      `json:"is_admin" db:"is_admin"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID  int64
	IsAdmin bool
}
