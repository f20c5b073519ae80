package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/model"
)

// newTestUserDB returns a *UserDB backed by a fresh migrated database.
func newTestUserDB(t *testing.T) (*DB, *UserDB) {
	t.Helper()
	db := newTestDB(t)
	return db, db.Users()
}

// createTestUser creates a user with an outstanding code and fails the test
// if it errors.
func createTestUser(t *testing.T, u *UserDB, phone string) *model.User {
	t.Helper()
	code := "482913"
	expires := time.Now().Add(10 * time.Minute)
	user := &model.User{
		Phone:         phone,
		Code:          &code,
		CodeExpiresAt: &expires,
	}
	if err := u.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestUserCreate(t *testing.T) {
	_, u := newTestUserDB(t)

	user := createTestUser(t, u, "+15550001111")

	// Verify the user was modified in-place (pointer receiver)
	if user.ID == "" {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("Create() did not set user.CreatedAt")
	}
	if user.UpdatedAt.IsZero() {
		t.Error("Create() did not set user.UpdatedAt")
	}
}

func TestUserCreate_DuplicatePhone(t *testing.T) {
	_, u := newTestUserDB(t)
	createTestUser(t, u, "+15550001111")

	// Same phone — second create should fail (UNIQUE constraint)
	duplicate := &model.User{Phone: "+15550001111"}
	if err := u.Create(context.Background(), duplicate); err == nil {
		t.Fatal("Create() should have returned an error for duplicate phone")
	}
}

// =========================================================================
// GET TESTS
// =========================================================================

func TestUserGetByID(t *testing.T) {
	_, u := newTestUserDB(t)
	created := createTestUser(t, u, "+15550001111")

	got, err := u.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Phone != "+15550001111" {
		t.Errorf("got.Phone = %q, want %q", got.Phone, "+15550001111")
	}
	if got.Code == nil || *got.Code != "482913" {
		t.Error("GetByID() lost the stored code")
	}
	if got.CodeExpiresAt == nil {
		t.Fatal("GetByID() lost the stored expiry")
	}
	// Round-tripped through text storage — compare at second precision
	if diff := got.CodeExpiresAt.Sub(*created.CodeExpiresAt); diff < -time.Second || diff > time.Second {
		t.Errorf("expiry drifted by %v through storage", diff)
	}
	if got.Verified {
		t.Error("new user should not be verified")
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	_, u := newTestUserDB(t)

	_, err := u.GetByID(context.Background(), "no-such-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestUserGetByPhone(t *testing.T) {
	_, u := newTestUserDB(t)
	created := createTestUser(t, u, "+15550001111")
	createTestUser(t, u, "+15550002222")

	got, err := u.GetByPhone(context.Background(), "+15550001111")
	if err != nil {
		t.Fatalf("GetByPhone() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("got.ID = %q, want %q", got.ID, created.ID)
	}
}

func TestUserGetByPhone_NotFound(t *testing.T) {
	_, u := newTestUserDB(t)

	_, err := u.GetByPhone(context.Background(), "+19998887777")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByPhone() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestUserUpdate_ConsumeCode(t *testing.T) {
	_, u := newTestUserDB(t)
	user := createTestUser(t, u, "+15550001111")

	// What VerifyCode does on success: clear both code fields, set verified
	user.Code = nil
	user.CodeExpiresAt = nil
	user.Verified = true
	if err := u.Update(context.Background(), user); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := u.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Code != nil || got.CodeExpiresAt != nil {
		t.Error("Update() did not clear the code fields (they must round-trip as NULL)")
	}
	if !got.Verified {
		t.Error("Update() did not persist verified = true")
	}
}

func TestUserUpdate_NewCode(t *testing.T) {
	_, u := newTestUserDB(t)
	user := createTestUser(t, u, "+15550001111")

	code := "000042"
	expires := time.Now().Add(10 * time.Minute)
	user.Code = &code
	user.CodeExpiresAt = &expires
	if err := u.Update(context.Background(), user); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, _ := u.GetByID(context.Background(), user.ID)
	// Leading zeros survive — codes are TEXT, never numbers
	if got.Code == nil || *got.Code != "000042" {
		t.Errorf("stored code = %v, want %q with leading zeros intact", got.Code, "000042")
	}
}

func TestUserUpdate_NotFound(t *testing.T) {
	_, u := newTestUserDB(t)

	ghost := &model.User{ID: "no-such-id", Phone: "+15550001111"}
	if err := u.Update(context.Background(), ghost); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}
