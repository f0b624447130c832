package models

import (
	"time"
)

// Account is one registration record. Several unverified records may share
// an email; at most one verified record exists per email.
type Account struct {
	ID                     string     `json:"id"`
	Name                   string     `json:"name"`
	Email                  string     `json:"email"`
	PasswordHash           string     `json:"-"`
	Role                   Role       `json:"role"`
	AccountVerified        bool       `json:"accountVerified"`
	VerificationCode       *string    `json:"-"`
	VerificationCodeExpire *time.Time `json:"-"`
	ResetPasswordToken     *string    `json:"-"`
	ResetPasswordExpire    *time.Time `json:"-"`
	RegistrationAttempts   int        `json:"-"`
	BorrowedBooks          []string   `json:"borrowedBooks"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`
}

// Can reports whether the account's role grants c.
func (a *Account) Can(c Capability) bool {
	return a.Role.Can(c)
}

// Clone returns a deep copy, used to snapshot a record before mutation.
func (a *Account) Clone() *Account {
	c := *a
	c.VerificationCode = clonePtr(a.VerificationCode)
	c.VerificationCodeExpire = clonePtr(a.VerificationCodeExpire)
	c.ResetPasswordToken = clonePtr(a.ResetPasswordToken)
	c.ResetPasswordExpire = clonePtr(a.ResetPasswordExpire)
	if a.BorrowedBooks != nil {
		c.BorrowedBooks = append([]string(nil), a.BorrowedBooks...)
	}
	return &c
}

// VerificationCodeValid reports whether code matches the stored
// verification code and the code has not expired at now.
func (a *Account) VerificationCodeValid(code string, now time.Time) bool {
	return codeValid(a.VerificationCode, a.VerificationCodeExpire, code, now)
}

// ResetTokenValid reports whether token matches the stored reset token and
// the token has not expired at now.
func (a *Account) ResetTokenValid(token string, now time.Time) bool {
	return codeValid(a.ResetPasswordToken, a.ResetPasswordExpire, token, now)
}

func codeValid(stored *string, expire *time.Time, given string, now time.Time) bool {
	if stored == nil || expire == nil || given == "" {
		return false
	}
	return *stored == given && now.Before(*expire)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
