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

// UserDB provides the user table operations. Obtain one via DB.Users().
type UserDB struct {
	conn *sql.DB
}

// Users returns the UserRepository view of this database.
func (db *DB) Users() *UserDB {
	return &UserDB{conn: db.conn}
}

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// Create inserts a new user. The caller provides Phone (and optionally a
// pending code); ID and timestamps are generated here and written back
// through the pointer.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := u.conn.ExecContext(ctx,
		`INSERT INTO users (id, phone, code, code_expires_at, verified, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Phone,
		user.Code,
		nullTime(user.CodeExpiresAt),
		user.Verified,
		fmtTime(user.CreatedAt),
		fmtTime(user.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user (phone=%s): %w", user.Phone, err)
	}

	return nil
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	return u.getUser(ctx, `WHERE id = ?`, id)
}

// GetByPhone retrieves a user by phone number — the lookup both halves of
// the OTP flow start from.
func (u *UserDB) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	return u.getUser(ctx, `WHERE phone = ?`, phone)
}

func (u *UserDB) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var user model.User

	err := u.conn.QueryRowContext(ctx,
		`SELECT id, phone, code, code_expires_at, verified, created_at, updated_at
		 FROM users `+where,
		arg,
	).Scan(
		&user.ID,
		&user.Phone,
		&user.Code,
		&user.CodeExpiresAt,
		&user.Verified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}

	return &user, nil
}

// Update persists the mutable user fields: code, code expiry, and verified.
// The two code fields travel together — the service either sets both (issue)
// or clears both (successful verification).
func (u *UserDB) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	result, err := u.conn.ExecContext(ctx,
		`UPDATE users
		 SET code = ?, code_expires_at = ?, verified = ?, updated_at = ?
		 WHERE id = ?`,
		user.Code,
		nullTime(user.CodeExpiresAt),
		user.Verified,
		fmtTime(user.UpdatedAt),
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// nullTime converts an optional timestamp to its column value: NULL for nil,
// otherwise the canonical UTC text form.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}
