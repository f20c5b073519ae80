package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

// CodeTTL is how long an issued verification code stays valid.
const CodeTTL = 10 * time.Minute

// codeDigits is the width of a verification code. Codes are fixed-width
// strings: "004829" is a valid code, compared by string equality with its
// leading zeros intact — never parsed as a number.
const codeDigits = 6

// phoneRE validates E.164 phone numbers: a leading +, a non-zero country
// code digit, then 7–14 more digits.
var phoneRE = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)

// ValidPhone reports whether s is an acceptable E.164 phone number.
func ValidPhone(s string) bool {
	return phoneRE.MatchString(s)
}

// GenerateCode returns a uniformly random 6-digit code as a fixed-width
// string ("000000"–"999999").
//
// WHY crypto/rand AND NOT math/rand?
// Verification codes are secrets: an attacker who can predict the next code
// can take over an account with just the phone number. math/rand is seeded
// and predictable; crypto/rand draws from the OS entropy source.
// rand.Int(rand.Reader, 10^6) is uniform — no modulo bias.
func GenerateCode() (string, error) {
	upper := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		upper.Mul(upper, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, upper)
	if err != nil {
		return "", fmt.Errorf("auth: generating code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}

// MaskPhone hides the middle digits of a phone number for display and logs:
// "+15550001111" → "+1555***1111". The full number is never echoed back to
// clients or written to logs.
func MaskPhone(phone string) string {
	if len(phone) < 8 {
		return strings.Repeat("*", len(phone))
	}
	return phone[:4] + "***" + phone[len(phone)-4:]
}
