// Package cryptox wraps the credential primitives used by the account
// service: bcrypt password hashing, password policy checks and numeric
// one-time codes.
package cryptox

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/dmitrijs2005/elibrary/internal/common"
	passwordvalidator "github.com/wagslane/go-password-validator"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor for stored hashes.
const PasswordCost = 10

var (
	ErrPasswordLength = errors.New("password length out of range")
	ErrPasswordWeak   = errors.New("password too weak")
)

// generateFromPassword is a seam for tests that need a failing hasher.
var generateFromPassword = bcrypt.GenerateFromPassword

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	h, err := generateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword applies the length rule and, when minEntropy > 0, the
// entropy rule from go-password-validator.
func ValidatePassword(password string, minEntropy float64) error {
	n := utf8.RuneCountInString(password)
	if n < common.MinPasswordLength || n > common.MaxPasswordLength {
		return ErrPasswordLength
	}
	if minEntropy > 0 {
		if err := passwordvalidator.Validate(password, minEntropy); err != nil {
			return fmt.Errorf("%w: %s", ErrPasswordWeak, err.Error())
		}
	}
	return nil
}
