package dto

import (
	"time"

	"github.com/spec-kit/dating-api/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AccountResponse is returned by register and login.
type AccountResponse struct {
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MemberResponse is the public view of a user.
type MemberResponse struct {
	ID        string    `json:"id"`
	UserName  string    `json:"user_name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMemberResponse maps a domain user.
func NewMemberResponse(user domain.User) MemberResponse {
	return MemberResponse{ID: user.ID, UserName: user.UserName, CreatedAt: user.CreatedAt}
}

// NewMemberList maps a list of users.
func NewMemberList(users []domain.User) []MemberResponse {
	out := make([]MemberResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewMemberResponse(u))
	}
	return out
}
