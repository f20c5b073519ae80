// Package repository declares the storage interfaces the service layer
// depends on. The sqlite sub-package implements them; tests substitute
// in-memory fakes.
package repository

import (
	"context"
	"time"

	"github.com/sakif/expense-tracker/internal/model"
)

// ListOptions controls pagination for expense listings.
type ListOptions struct {
	Limit  int
	Offset int

	// Optional filters; zero values mean "no filter".
	CategoryID string
	From       time.Time
	To         time.Time
}

// CategoryTotal is one row of a per-category aggregation: how much was spent
// in that category and across how many expenses.
type CategoryTotal struct {
	CategoryID string      `json:"categoryId"`
	Name       string      `json:"name"`
	Color      string      `json:"color"`
	Icon       string      `json:"icon,omitempty"`
	Total      model.Money `json:"total"`
	Count      int64       `json:"count"`
}

// DailyTotal is one row of a per-day aggregation, keyed by calendar date
// string ("2026-09-01") for charting.
type DailyTotal struct {
	Day   string      `json:"day"`
	Total model.Money `json:"total"`
	Count int64       `json:"count"`
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByPhone(ctx context.Context, phone string) (*model.User, error)
	// Update persists code/expiry/verified changes. The code and its expiry
	// are written together — both set or both cleared.
	Update(ctx context.Context, user *model.User) error
}

// CategoryRepository is owner-scoped throughout: every read and mutation
// takes the owner's userID and matches nothing for other owners' rows.
type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	GetByID(ctx context.Context, id, userID string) (*model.Category, error)
	GetByName(ctx context.Context, userID, name string) (*model.Category, error)
	List(ctx context.Context, userID string) ([]model.Category, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id, userID string) error
}

// ExpenseRepository covers CRUD plus the grouped aggregations behind the
// statistics endpoints. All operations are owner-scoped.
type ExpenseRepository interface {
	Create(ctx context.Context, expense *model.Expense) error
	GetByID(ctx context.Context, id, userID string) (*model.Expense, error)
	// List returns expenses with their categories resolved, ordered by
	// date DESC then created_at DESC.
	List(ctx context.Context, userID string, opts ListOptions) ([]model.ExpenseWithCategory, error)
	Update(ctx context.Context, expense *model.Expense) error
	Delete(ctx context.Context, id, userID string) error

	// CountByCategory reports how many of the user's expenses still
	// reference the category. Drives the block-while-referenced deletion
	// policy.
	CountByCategory(ctx context.Context, userID, categoryID string) (int64, error)

	// Aggregations. Time windows are half-open [from, to); a zero from/to
	// means unbounded on that side.
	SumAll(ctx context.Context, userID string) (model.Money, error)
	SumWindow(ctx context.Context, userID string, from, to time.Time) (model.Money, error)
	CategoryBreakdown(ctx context.Context, userID string, from, to time.Time) ([]CategoryTotal, error)
	// Recent returns the newest expenses (date DESC, created_at DESC) with
	// categories resolved; expenses whose category can't be resolved are
	// excluded rather than failing the query.
	Recent(ctx context.Context, userID string, limit int) ([]model.ExpenseWithCategory, error)
	DailyTotals(ctx context.Context, userID string, from, to time.Time) ([]DailyTotal, error)
}
