package client

import (
	"context"
	"time"
)

// User is the account as returned by the API.
type User struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	Capabilities    []string  `json:"capabilities"`
	AccountVerified bool      `json:"accountVerified"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Can reports whether the user's role grants capability.
func (u *User) Can(capability string) bool {
	for _, c := range u.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// Client is the account API.
type Client interface {
	Ping(ctx context.Context) error
	Register(ctx context.Context, name, email string, password []byte, adminSecret string) (string, error)
	VerifyEmail(ctx context.Context, email, otp string) (string, error)
	Login(ctx context.Context, email string, password []byte) (*User, error)
	Me(ctx context.Context) (*User, error)
	Logout(ctx context.Context) error
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, email, otp string, newPassword, confirm []byte) (string, error)
	UpdatePassword(ctx context.Context, oldPassword, newPassword, confirm []byte) (*User, error)
	HasSession() bool
}
