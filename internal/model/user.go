// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents an account identified by a phone number.
//
// The phone number is the external identity (validated E.164, e.g.
// "+15550001111"); we still generate our own internal string ID (xid) so
// primary keys aren't tied to a mutable real-world identifier.
//
// WHY *string / *time.Time FOR THE CODE FIELDS?
// A user either has a pending verification code or doesn't. The pointer's nil
// state models "no code outstanding" without a sentinel value, and the two
// fields are always set or cleared together — a code without an expiry (or
// the reverse) is a bug.
//
// Code and CodeExpiresAt are json:"-" — the one-time code must never appear
// in an API response. The development side channel returns the code from the
// issue operation itself, not from the stored record.
type User struct {
	ID            string     `json:"id"        db:"id"`
	Phone         string     `json:"phone"     db:"phone"` // E.164, globally unique
	Code          *string    `json:"-"         db:"code"`
	CodeExpiresAt *time.Time `json:"-"         db:"code_expires_at"`
	Verified      bool       `json:"verified"  db:"verified"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`
}
