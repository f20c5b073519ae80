package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/model"
	"github.com/sakif/expense-tracker/internal/repository"
)

const maxCategoryName = 50

// colorRE accepts 3- or 6-digit hex colors with a leading #.
var colorRE = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// CategoryService implements owner-scoped category CRUD.
//
// UNIQUENESS, TWICE:
// The per-owner name uniqueness rule is enforced here with an explicit
// check-then-write (so the client gets a clean Conflict with a helpful
// message) AND by a UNIQUE index in the schema (so a race between two
// concurrent creates can't slip a duplicate past the check). The repository
// translates the index violation into the same Conflict error.
type CategoryService struct {
	categories repository.CategoryRepository
	expenses   repository.ExpenseRepository
	logger     *slog.Logger
}

func NewCategoryService(
	categories repository.CategoryRepository,
	expenses repository.ExpenseRepository,
	logger *slog.Logger,
) *CategoryService {
	return &CategoryService{
		categories: categories,
		expenses:   expenses,
		logger:     logger,
	}
}

// CategoryInput is the client-supplied part of a category; the owner always
// comes from the authenticated context, never from the payload.
type CategoryInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func (in *CategoryInput) validate() error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > maxCategoryName {
		return apperror.ValidationFailed("name", fmt.Sprintf("name must be at most %d characters", maxCategoryName))
	}
	if !colorRE.MatchString(in.Color) {
		return apperror.ValidationFailed("color", "color must be a #RGB or #RRGGBB hex string")
	}
	in.Name = name
	return nil
}

// Create adds a category for the user, enforcing the per-owner name
// uniqueness rule.
func (s *CategoryService) Create(ctx context.Context, userID string, in CategoryInput) (*model.Category, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	if _, err := s.categories.GetByName(ctx, userID, in.Name); err == nil {
		return nil, apperror.Conflict("category", fmt.Sprintf("name %q already exists", in.Name))
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("service/category: checking name: %w", err)
	}

	category := &model.Category{
		Name:   in.Name,
		Color:  in.Color,
		Icon:   in.Icon,
		UserID: userID,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("service/category: creating: %w", err)
	}

	return category, nil
}

// List returns the user's categories, seeded defaults first.
func (s *CategoryService) List(ctx context.Context, userID string) ([]model.Category, error) {
	categories, err := s.categories.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/category: listing: %w", err)
	}
	return categories, nil
}

// Get returns one category, NotFound for absent or foreign records alike.
func (s *CategoryService) Get(ctx context.Context, userID, id string) (*model.Category, error) {
	category, err := s.categories.GetByID(ctx, id, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("category", id)
		}
		return nil, fmt.Errorf("service/category: getting %s: %w", id, err)
	}
	return category, nil
}

// Update renames/restyles a category in place, keeping the uniqueness rule.
func (s *CategoryService) Update(ctx context.Context, userID, id string, in CategoryInput) (*model.Category, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	category, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	// Renaming onto another category's name is a conflict; renaming onto
	// your own current name is a no-op, not a conflict.
	if in.Name != category.Name {
		if _, err := s.categories.GetByName(ctx, userID, in.Name); err == nil {
			return nil, apperror.Conflict("category", fmt.Sprintf("name %q already exists", in.Name))
		} else if !isNotFound(err) {
			return nil, fmt.Errorf("service/category: checking name: %w", err)
		}
	}

	category.Name = in.Name
	category.Color = in.Color
	category.Icon = in.Icon
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("service/category: updating %s: %w", id, err)
	}

	return category, nil
}

// Delete removes a category — unless expenses still reference it.
//
// DELETION POLICY (decided, documented, tested):
// A category with expenses cannot be deleted; the client must first move or
// delete those expenses. Blocking beats cascade (quietly destroying records
// from a single tap) and beats a sentinel "uncategorized" bucket (a magic
// row every query would have to special-case). Aggregations still tolerate a
// dangling reference defensively, but this policy keeps one from appearing.
func (s *CategoryService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}

	count, err := s.expenses.CountByCategory(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("service/category: counting expenses: %w", err)
	}
	if count > 0 {
		return apperror.Conflict("category",
			fmt.Sprintf("cannot delete: %d expense(s) still use this category", count))
	}

	if err := s.categories.Delete(ctx, id, userID); err != nil {
		if isNotFound(err) {
			return apperror.NotFound("category", id)
		}
		return fmt.Errorf("service/category: deleting %s: %w", id, err)
	}

	s.logger.Info("category deleted",
		slog.String("userID", userID),
		slog.String("categoryID", id),
	)
	return nil
}
