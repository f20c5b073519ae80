package model

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is a monetary amount in cents.
//
// WHY CENTS AND NOT float64?
// Floating point cannot represent most decimal fractions exactly (0.1 + 0.2
// != 0.3), and expense totals are sums of many amounts — the error compounds.
// An int64 of cents is exact, sums exactly, and sorts correctly. We only
// convert to a 2-decimal representation at the JSON boundary.
type Money int64

// ParseMoney converts a decimal string like "12.34" into cents.
//
// Accepts both dot and comma as the decimal separator. Anything past the
// second decimal digit is rounded half-up. Only strictly positive amounts are
// valid — expenses have no sign.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return 0, fmt.Errorf("amount %q out of range", s)
	}
	cents := iv * 100

	// First two fractional digits are cents; the third decides half-up rounding.
	frac := fracPart
	if len(frac) > 3 {
		frac = frac[:3]
	}
	switch len(frac) {
	case 0:
	case 1:
		cents += int64(frac[0]-'0') * 10
	case 2:
		fv, _ := strconv.ParseInt(frac, 10, 64)
		cents += fv
	default:
		fv, _ := strconv.ParseInt(frac[:2], 10, 64)
		cents += fv
		if frac[2] >= '5' {
			cents++
		}
	}

	if cents <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	return Money(cents), nil
}

// String renders the amount with exactly two decimals, e.g. "12.34".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON emits the amount as a plain JSON number with two decimals,
// so clients see {"amount": 12.34}, never the internal cent count.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts either a JSON number (12.34) or a string ("12.34").
// Both are parsed as decimal text — never through float64 — so the cent
// value is exact.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
