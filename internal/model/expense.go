package model

import "time"

// Expense is a single spending record.
//
// CategoryID is a RAW reference — just the id string. When a caller needs the
// category's display attributes alongside the expense (the recent-activity
// list, paginated listings), it asks the repository for ExpenseWithCategory,
// which is the explicitly RESOLVED form. Keeping the two as separate types
// means a function signature always tells you whether the category has been
// joined in, instead of a sometimes-populated field.
type Expense struct {
	ID          string    `json:"id"`
	Amount      Money     `json:"amount"`
	Description string    `json:"description"`
	CategoryID  string    `json:"categoryId"`
	Date        time.Time `json:"date"`
	Receipt     string    `json:"receipt,omitempty"` // stored filename, empty if none
	UserID      string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ExpenseWithCategory is an Expense with its category's display attributes
// resolved. Produced only by queries that JOIN the categories table.
type ExpenseWithCategory struct {
	Expense
	CategoryName  string `json:"categoryName"`
	CategoryColor string `json:"categoryColor"`
	CategoryIcon  string `json:"categoryIcon,omitempty"`
}
