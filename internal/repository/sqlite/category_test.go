package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/model"
)

func newTestCategoryDB(t *testing.T) (*DB, *CategoryDB) {
	t.Helper()
	db := newTestDB(t)
	return db, db.Categories()
}

func createTestCategory(t *testing.T, c *CategoryDB, userID, name string) *model.Category {
	t.Helper()
	category := &model.Category{
		Name:   name,
		Color:  "#FF6B6B",
		Icon:   "🍔",
		UserID: userID,
	}
	if err := c.Create(context.Background(), category); err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCategoryDBCreate(t *testing.T) {
	_, c := newTestCategoryDB(t)

	category := createTestCategory(t, c, "user-1", "Food")

	if category.ID == "" {
		t.Error("Create() did not set category.ID")
	}
	if category.CreatedAt.IsZero() {
		t.Error("Create() did not set category.CreatedAt")
	}
}

func TestCategoryDBCreate_DuplicateNameSameUser(t *testing.T) {
	_, c := newTestCategoryDB(t)
	createTestCategory(t, c, "user-1", "Food")

	// The UNIQUE(user_id, name) index catches what a racing service-level
	// check might miss — and it must surface as Conflict, not a raw error
	duplicate := &model.Category{Name: "Food", Color: "#000", UserID: "user-1"}
	err := c.Create(context.Background(), duplicate)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() duplicate error = %v, want ErrConflict", err)
	}
}

func TestCategoryDBCreate_SameNameDifferentUsers(t *testing.T) {
	_, c := newTestCategoryDB(t)
	createTestCategory(t, c, "user-1", "Food")

	// Uniqueness is scoped per user
	other := &model.Category{Name: "Food", Color: "#000", UserID: "user-2"}
	if err := c.Create(context.Background(), other); err != nil {
		t.Errorf("Create() same name for other user error = %v, want nil", err)
	}
}

// =========================================================================
// GET TESTS
// =========================================================================

func TestCategoryDBGetByID_ScopedToOwner(t *testing.T) {
	_, c := newTestCategoryDB(t)
	category := createTestCategory(t, c, "user-1", "Food")

	// Owner sees it
	got, err := c.GetByID(context.Background(), category.ID, "user-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "Food" || got.Color != "#FF6B6B" || got.Icon != "🍔" {
		t.Errorf("GetByID() = %+v, fields were mangled", got)
	}

	// Anyone else gets NotFound
	if _, err := c.GetByID(context.Background(), category.ID, "user-2"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() as other user error = %v, want ErrNotFound", err)
	}
}

func TestCategoryDBGetByName(t *testing.T) {
	_, c := newTestCategoryDB(t)
	category := createTestCategory(t, c, "user-1", "Food")

	got, err := c.GetByName(context.Background(), "user-1", "Food")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if got.ID != category.ID {
		t.Errorf("GetByName().ID = %q, want %q", got.ID, category.ID)
	}

	if _, err := c.GetByName(context.Background(), "user-1", "Missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByName() for missing name error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestCategoryDBList_CreationOrder(t *testing.T) {
	_, c := newTestCategoryDB(t)
	// Seeded defaults rely on List preserving insertion order
	names := []string{"Food", "Transport", "Shopping"}
	for _, name := range names {
		createTestCategory(t, c, "user-1", name)
	}
	createTestCategory(t, c, "user-2", "Other")

	got, err := c.List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != len(names) {
		t.Fatalf("List() returned %d categories, want %d", len(got), len(names))
	}
	for i, want := range names {
		if got[i].Name != want {
			t.Errorf("List()[%d].Name = %q, want %q", i, got[i].Name, want)
		}
	}
}

func TestCategoryDBList_Empty(t *testing.T) {
	_, c := newTestCategoryDB(t)

	got, err := c.List(context.Background(), "user-none")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("List() returned %d categories, want 0", len(got))
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestCategoryDBUpdate(t *testing.T) {
	_, c := newTestCategoryDB(t)
	category := createTestCategory(t, c, "user-1", "Food")

	category.Name = "Dining"
	category.Color = "#A78BFA"
	if err := c.Update(context.Background(), category); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, _ := c.GetByID(context.Background(), category.ID, "user-1")
	if got.Name != "Dining" || got.Color != "#A78BFA" {
		t.Errorf("Update() not persisted: got %+v", got)
	}
}

func TestCategoryDBUpdate_RenameOntoTakenName(t *testing.T) {
	_, c := newTestCategoryDB(t)
	createTestCategory(t, c, "user-1", "Food")
	category := createTestCategory(t, c, "user-1", "Transport")

	category.Name = "Food"
	if err := c.Update(context.Background(), category); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Update() onto taken name error = %v, want ErrConflict", err)
	}
}

func TestCategoryDBUpdate_NotFound(t *testing.T) {
	_, c := newTestCategoryDB(t)

	ghost := &model.Category{ID: "no-such-id", Name: "X", Color: "#000", UserID: "user-1"}
	if err := c.Update(context.Background(), ghost); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestCategoryDBDelete(t *testing.T) {
	_, c := newTestCategoryDB(t)
	category := createTestCategory(t, c, "user-1", "Food")

	if err := c.Delete(context.Background(), category.ID, "user-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := c.GetByID(context.Background(), category.ID, "user-1"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestCategoryDBDelete_ScopedToOwner(t *testing.T) {
	_, c := newTestCategoryDB(t)
	category := createTestCategory(t, c, "user-1", "Food")

	if err := c.Delete(context.Background(), category.ID, "user-2"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() as other user error = %v, want ErrNotFound", err)
	}
	// Still there for the real owner
	if _, err := c.GetByID(context.Background(), category.ID, "user-1"); err != nil {
		t.Errorf("category should survive a foreign delete attempt: %v", err)
	}
}
