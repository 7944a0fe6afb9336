package domain

import "time"

// IssuedToken describes a bearer token handed to a client.
type IssuedToken struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
