package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/model"
	"github.com/sakif/expense-tracker/internal/repository"
)

// CategoryDB provides the category table operations. Obtain one via
// DB.Categories().
//
// Every method takes the owner's userID in its WHERE clause. A query scoped
// to the wrong owner matches zero rows, which surfaces as NotFound —
// deliberately indistinguishable from "doesn't exist at all", so one user
// can't probe for another user's data.
type CategoryDB struct {
	conn *sql.DB
}

// Categories returns the CategoryRepository view of this database.
func (db *DB) Categories() *CategoryDB {
	return &CategoryDB{conn: db.conn}
}

// compile-time check that *CategoryDB implements repository.CategoryRepository
var _ repository.CategoryRepository = (*CategoryDB)(nil)

func (c *CategoryDB) Create(ctx context.Context, category *model.Category) error {
	category.ID = xid.New().String()
	now := time.Now()
	category.CreatedAt = now
	category.UpdatedAt = now

	_, err := c.conn.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, name, color, icon, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		category.ID,
		category.UserID,
		category.Name,
		category.Color,
		category.Icon,
		fmtTime(category.CreatedAt),
		fmtTime(category.UpdatedAt),
	)
	if err != nil {
		// The UNIQUE(user_id, name) index backstops the service's
		// check-then-write; translate a race loser into the same Conflict
		// the check would have produced.
		if isUniqueViolation(err) {
			return apperror.Conflict("category", fmt.Sprintf("name %q already exists", category.Name))
		}
		return fmt.Errorf("sqlite: creating category: %w", err)
	}

	return nil
}

func (c *CategoryDB) GetByID(ctx context.Context, id, userID string) (*model.Category, error) {
	return c.getCategory(ctx, `WHERE id = ? AND user_id = ?`, id, userID)
}

func (c *CategoryDB) GetByName(ctx context.Context, userID, name string) (*model.Category, error) {
	return c.getCategory(ctx, `WHERE user_id = ? AND name = ?`, userID, name)
}

func (c *CategoryDB) getCategory(ctx context.Context, where string, args ...any) (*model.Category, error) {
	var cat model.Category

	err := c.conn.QueryRowContext(ctx,
		`SELECT id, user_id, name, color, icon, created_at, updated_at
		 FROM categories `+where,
		args...,
	).Scan(
		&cat.ID,
		&cat.UserID,
		&cat.Name,
		&cat.Color,
		&cat.Icon,
		&cat.CreatedAt,
		&cat.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("category", fmt.Sprint(args[0]))
		}
		return nil, fmt.Errorf("sqlite: getting category: %w", err)
	}

	return &cat, nil
}

// List returns all of the user's categories in creation order, so the seeded
// defaults come back in their fixed order.
func (c *CategoryDB) List(ctx context.Context, userID string) ([]model.Category, error) {
	rows, err := c.conn.QueryContext(ctx,
		`SELECT id, user_id, name, color, icon, created_at, updated_at
		 FROM categories
		 WHERE user_id = ?
		 ORDER BY created_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing categories: %w", err)
	}
	defer rows.Close()

	categories := make([]model.Category, 0, 8)
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(
			&cat.ID, &cat.UserID, &cat.Name, &cat.Color, &cat.Icon,
			&cat.CreatedAt, &cat.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning category row: %w", err)
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating categories: %w", err)
	}

	return categories, nil
}

func (c *CategoryDB) Update(ctx context.Context, category *model.Category) error {
	category.UpdatedAt = time.Now()

	result, err := c.conn.ExecContext(ctx,
		`UPDATE categories
		 SET name = ?, color = ?, icon = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		category.Name,
		category.Color,
		category.Icon,
		fmtTime(category.UpdatedAt),
		category.ID,
		category.UserID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("category", fmt.Sprintf("name %q already exists", category.Name))
		}
		return fmt.Errorf("sqlite: updating category %s: %w", category.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("category", category.ID)
	}

	return nil
}

func (c *CategoryDB) Delete(ctx context.Context, id, userID string) error {
	result, err := c.conn.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting category %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("category", id)
	}

	return nil
}

// isUniqueViolation reports whether err stems from a UNIQUE constraint.
// modernc.org/sqlite doesn't export typed constraint errors, so this matches
// on SQLite's stable error text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
