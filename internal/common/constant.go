// Package common contains shared constants, sentinel errors and small helpers
// used by both the account server and the CLI client.
package common

import "time"

// SessionCookieName is the cookie that carries the signed session token.
const SessionCookieName = "token"

// VerificationCodeLifetime is how long an emailed OTP or reset code stays valid.
const VerificationCodeLifetime = 15 * time.Minute

// MaxUnverifiedAttempts caps registration submissions for an email that was
// never verified.
const MaxUnverifiedAttempts = 5

// Password length bounds, inclusive.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 16
)
