package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CodeDigits is the length of generated verification and reset codes.
const CodeDigits = 6

var codeFloor = big.NewInt(100000)
var codeSpan = big.NewInt(900000)

// GenerateCode returns a random 6-digit code without a leading zero.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpan)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return n.Add(n, codeFloor).String(), nil
}
