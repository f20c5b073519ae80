package model

import "time"

// Category is a user-defined bucket for expenses.
//
// Name is unique per owner, not globally — two users can both have "Food".
// Color is a hex string ("#e91" or "#ee9911"); Icon is an optional glyph the
// client renders next to the name.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Icon      string    `json:"icon,omitempty"`
	UserID    string    `json:"-"` // owner; never part of the payload, always from auth
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
