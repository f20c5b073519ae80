package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/model"
	"github.com/sakif/expense-tracker/internal/repository"
)

// ExpenseDB provides the expense table operations, including the grouped
// aggregations behind the statistics endpoints. Obtain one via DB.Expenses().
type ExpenseDB struct {
	conn *sql.DB
}

// Expenses returns the ExpenseRepository view of this database.
func (db *DB) Expenses() *ExpenseDB {
	return &ExpenseDB{conn: db.conn}
}

// compile-time check that *ExpenseDB implements repository.ExpenseRepository
var _ repository.ExpenseRepository = (*ExpenseDB)(nil)

func (e *ExpenseDB) Create(ctx context.Context, expense *model.Expense) error {
	expense.ID = xid.New().String()
	now := time.Now()
	expense.CreatedAt = now
	expense.UpdatedAt = now

	_, err := e.conn.ExecContext(ctx,
		`INSERT INTO expenses (id, user_id, category_id, amount, description, date, receipt, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID,
		expense.UserID,
		expense.CategoryID,
		int64(expense.Amount),
		expense.Description,
		fmtTime(expense.Date),
		expense.Receipt,
		fmtTime(expense.CreatedAt),
		fmtTime(expense.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating expense: %w", err)
	}

	return nil
}

func (e *ExpenseDB) GetByID(ctx context.Context, id, userID string) (*model.Expense, error) {
	var ex model.Expense
	var amount int64

	err := e.conn.QueryRowContext(ctx,
		`SELECT id, user_id, category_id, amount, description, date, receipt, created_at, updated_at
		 FROM expenses
		 WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(
		&ex.ID,
		&ex.UserID,
		&ex.CategoryID,
		&amount,
		&ex.Description,
		&ex.Date,
		&ex.Receipt,
		&ex.CreatedAt,
		&ex.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("expense", id)
		}
		return nil, fmt.Errorf("sqlite: getting expense %s: %w", id, err)
	}

	ex.Amount = model.Money(amount)
	return &ex, nil
}

// List returns the user's expenses with category attributes resolved,
// newest first: date DESC, then created_at DESC as the tie-break. This
// ordering must match Recent exactly — it's the one the client paginates by.
//
// The LEFT JOIN keeps an expense visible even if its category reference
// dangles; the category fields come back empty in that case.
func (e *ExpenseDB) List(ctx context.Context, userID string, opts repository.ListOptions) ([]model.ExpenseWithCategory, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT e.id, e.user_id, e.category_id, e.amount, e.description, e.date, e.receipt,
	                 e.created_at, e.updated_at, c.name, c.color, c.icon
	          FROM expenses e
	          LEFT JOIN categories c ON c.id = e.category_id AND c.user_id = e.user_id
	          WHERE e.user_id = ?`
	args := []any{userID}

	if opts.CategoryID != "" {
		query += ` AND e.category_id = ?`
		args = append(args, opts.CategoryID)
	}
	if !opts.From.IsZero() {
		query += ` AND e.date >= ?`
		args = append(args, fmtTime(opts.From))
	}
	if !opts.To.IsZero() {
		query += ` AND e.date < ?`
		args = append(args, fmtTime(opts.To))
	}

	query += ` ORDER BY e.date DESC, e.created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	return e.scanResolved(ctx, query, args...)
}

// Recent returns the newest expenses with their categories resolved.
//
// INNER JOIN on purpose: an expense whose category reference dangles is
// excluded from this list rather than failing the whole summary.
func (e *ExpenseDB) Recent(ctx context.Context, userID string, limit int) ([]model.ExpenseWithCategory, error) {
	if limit <= 0 {
		limit = 5
	}
	return e.scanResolved(ctx,
		`SELECT e.id, e.user_id, e.category_id, e.amount, e.description, e.date, e.receipt,
		        e.created_at, e.updated_at, c.name, c.color, c.icon
		 FROM expenses e
		 JOIN categories c ON c.id = e.category_id AND c.user_id = e.user_id
		 WHERE e.user_id = ?
		 ORDER BY e.date DESC, e.created_at DESC
		 LIMIT ?`,
		userID, limit,
	)
}

func (e *ExpenseDB) scanResolved(ctx context.Context, query string, args ...any) ([]model.ExpenseWithCategory, error) {
	rows, err := e.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]model.ExpenseWithCategory, 0, 20)
	for rows.Next() {
		var ex model.ExpenseWithCategory
		var amount int64
		var name, color, icon sql.NullString
		if err := rows.Scan(
			&ex.ID, &ex.UserID, &ex.CategoryID, &amount, &ex.Description,
			&ex.Date, &ex.Receipt, &ex.CreatedAt, &ex.UpdatedAt,
			&name, &color, &icon,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning expense row: %w", err)
		}
		ex.Amount = model.Money(amount)
		ex.CategoryName = name.String
		ex.CategoryColor = color.String
		ex.CategoryIcon = icon.String
		expenses = append(expenses, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating expenses: %w", err)
	}

	return expenses, nil
}

func (e *ExpenseDB) Update(ctx context.Context, expense *model.Expense) error {
	expense.UpdatedAt = time.Now()

	result, err := e.conn.ExecContext(ctx,
		`UPDATE expenses
		 SET category_id = ?, amount = ?, description = ?, date = ?, receipt = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		expense.CategoryID,
		int64(expense.Amount),
		expense.Description,
		fmtTime(expense.Date),
		expense.Receipt,
		fmtTime(expense.UpdatedAt),
		expense.ID,
		expense.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating expense %s: %w", expense.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("expense", expense.ID)
	}

	return nil
}

func (e *ExpenseDB) Delete(ctx context.Context, id, userID string) error {
	result, err := e.conn.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting expense %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("expense", id)
	}

	return nil
}

// CountByCategory reports how many of the user's expenses still reference
// the category. Used to block category deletion while referenced.
func (e *ExpenseDB) CountByCategory(ctx context.Context, userID, categoryID string) (int64, error) {
	var count int64
	err := e.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expenses WHERE user_id = ? AND category_id = ?`,
		userID, categoryID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting expenses for category %s: %w", categoryID, err)
	}
	return count, nil
}

// SumAll returns the user's all-time spend.
//
// SUM over zero rows is NULL, not 0 — hence the NullInt64 scan. Every
// aggregate in this file handles the empty case the same way.
func (e *ExpenseDB) SumAll(ctx context.Context, userID string) (model.Money, error) {
	var sum sql.NullInt64
	err := e.conn.QueryRowContext(ctx,
		`SELECT SUM(amount) FROM expenses WHERE user_id = ?`,
		userID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sqlite: summing expenses: %w", err)
	}
	return model.Money(sum.Int64), nil
}

// SumWindow returns the user's spend inside the half-open window [from, to).
// A zero from or to leaves that side unbounded.
func (e *ExpenseDB) SumWindow(ctx context.Context, userID string, from, to time.Time) (model.Money, error) {
	query := `SELECT SUM(amount) FROM expenses WHERE user_id = ?`
	args := []any{userID}
	query, args = appendWindow(query, args, from, to)

	var sum sql.NullInt64
	if err := e.conn.QueryRowContext(ctx, query, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sqlite: summing expenses in window: %w", err)
	}
	return model.Money(sum.Int64), nil
}

// CategoryBreakdown groups the user's in-window expenses by category,
// returning per-category totals and counts with display attributes attached,
// biggest spender first. Percentages are the service layer's job — the
// repository doesn't know what the total should be relative to.
func (e *ExpenseDB) CategoryBreakdown(ctx context.Context, userID string, from, to time.Time) ([]repository.CategoryTotal, error) {
	query := `SELECT e.category_id, c.name, c.color, c.icon, SUM(e.amount), COUNT(*)
	          FROM expenses e
	          JOIN categories c ON c.id = e.category_id AND c.user_id = e.user_id
	          WHERE e.user_id = ?`
	args := []any{userID}
	query, args = appendWindow(query, args, from, to)
	query += ` GROUP BY e.category_id, c.name, c.color, c.icon
	           ORDER BY SUM(e.amount) DESC`

	rows, err := e.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: category breakdown: %w", err)
	}
	defer rows.Close()

	totals := make([]repository.CategoryTotal, 0, 8)
	for rows.Next() {
		var ct repository.CategoryTotal
		var total int64
		if err := rows.Scan(&ct.CategoryID, &ct.Name, &ct.Color, &ct.Icon, &total, &ct.Count); err != nil {
			return nil, fmt.Errorf("sqlite: scanning breakdown row: %w", err)
		}
		ct.Total = model.Money(total)
		totals = append(totals, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating breakdown: %w", err)
	}

	return totals, nil
}

// DailyTotals groups the user's in-window expenses by calendar date string.
// substr(date, 1, 10) slices "YYYY-MM-DD" off the stored UTC timestamp —
// cheaper than strftime and immune to format surprises.
func (e *ExpenseDB) DailyTotals(ctx context.Context, userID string, from, to time.Time) ([]repository.DailyTotal, error) {
	query := `SELECT substr(date, 1, 10) AS day, SUM(amount), COUNT(*)
	          FROM expenses
	          WHERE user_id = ?`
	args := []any{userID}
	query, args = appendWindow(query, args, from, to)
	query += ` GROUP BY day ORDER BY day ASC`

	rows, err := e.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: daily totals: %w", err)
	}
	defer rows.Close()

	days := make([]repository.DailyTotal, 0, 31)
	for rows.Next() {
		var dt repository.DailyTotal
		var total int64
		if err := rows.Scan(&dt.Day, &total, &dt.Count); err != nil {
			return nil, fmt.Errorf("sqlite: scanning daily row: %w", err)
		}
		dt.Total = model.Money(total)
		days = append(days, dt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating daily totals: %w", err)
	}

	return days, nil
}

// appendWindow adds the [from, to) date conditions shared by the aggregation
// queries. Column is always the expense date, never created_at.
func appendWindow(query string, args []any, from, to time.Time) (string, []any) {
	if !from.IsZero() {
		query += ` AND date >= ?`
		args = append(args, fmtTime(from))
	}
	if !to.IsZero() {
		query += ` AND date < ?`
		args = append(args, fmtTime(to))
	}
	return query, args
}
