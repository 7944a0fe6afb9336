package domain

import "time"

// User is the domain model for a registered member of the app.
type User struct {
	ID           string    `json:"id"`
	UserName     string    `json:"user_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
