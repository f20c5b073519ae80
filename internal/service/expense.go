package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/filestore"
	"github.com/sakif/expense-tracker/internal/model"
	"github.com/sakif/expense-tracker/internal/repository"
)

const maxDescription = 200

// ExpenseService implements owner-scoped expense CRUD plus the receipt photo
// lifecycle. The record is the source of truth; the file is an attachment —
// file cleanup is best-effort and never blocks a record mutation.
type ExpenseService struct {
	expenses   repository.ExpenseRepository
	categories repository.CategoryRepository
	files      *filestore.Store
	logger     *slog.Logger
}

func NewExpenseService(
	expenses repository.ExpenseRepository,
	categories repository.CategoryRepository,
	files *filestore.Store,
	logger *slog.Logger,
) *ExpenseService {
	return &ExpenseService{
		expenses:   expenses,
		categories: categories,
		files:      files,
		logger:     logger,
	}
}

// ExpenseInput is the client-supplied part of an expense.
type ExpenseInput struct {
	Amount      model.Money `json:"amount"`
	Description string      `json:"description"`
	CategoryID  string      `json:"categoryId"`
	Date        *time.Time  `json:"date"` // nil → submission time
}

// ReceiptUpload is an optional photo attached to a create or update.
type ReceiptUpload struct {
	Content io.Reader
	Ext     string // original filename extension, e.g. ".jpg"
}

func (s *ExpenseService) validate(ctx context.Context, userID string, in *ExpenseInput) error {
	if in.Amount <= 0 {
		return apperror.ValidationFailed("amount", "amount must be a positive decimal")
	}
	if len(in.Description) > maxDescription {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("description must be at most %d characters", maxDescription))
	}
	if in.CategoryID == "" {
		return apperror.ValidationFailed("categoryId", "categoryId is required")
	}

	// THE CENTRAL OWNERSHIP CHECK:
	// the category must exist AND belong to this user. A valid category id
	// owned by someone else comes back NotFound — same as a bogus id.
	if _, err := s.categories.GetByID(ctx, in.CategoryID, userID); err != nil {
		if isNotFound(err) {
			return apperror.NotFound("category", in.CategoryID)
		}
		return fmt.Errorf("service/expense: checking category: %w", err)
	}

	return nil
}

// Create records a new expense, optionally with a receipt photo.
func (s *ExpenseService) Create(ctx context.Context, userID string, in ExpenseInput, receipt *ReceiptUpload) (*model.Expense, error) {
	if err := s.validate(ctx, userID, &in); err != nil {
		return nil, err
	}

	date := time.Now()
	if in.Date != nil {
		date = *in.Date
	}

	expense := &model.Expense{
		Amount:      in.Amount,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		Date:        date,
		UserID:      userID,
	}

	if receipt != nil {
		name, err := s.files.Save(receipt.Content, receipt.Ext)
		if err != nil {
			return nil, fmt.Errorf("service/expense: saving receipt: %w", err)
		}
		expense.Receipt = name
	}

	if err := s.expenses.Create(ctx, expense); err != nil {
		// The record failed; don't strand the file we just wrote.
		s.removeReceipt(expense.Receipt)
		return nil, fmt.Errorf("service/expense: creating: %w", err)
	}

	return expense, nil
}

// List returns the user's expenses with categories resolved, ordered by
// date DESC then created_at DESC.
func (s *ExpenseService) List(ctx context.Context, userID string, opts repository.ListOptions) ([]model.ExpenseWithCategory, error) {
	expenses, err := s.expenses.List(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("service/expense: listing: %w", err)
	}
	return expenses, nil
}

func (s *ExpenseService) Get(ctx context.Context, userID, id string) (*model.Expense, error) {
	expense, err := s.expenses.GetByID(ctx, id, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("expense", id)
		}
		return nil, fmt.Errorf("service/expense: getting %s: %w", id, err)
	}
	return expense, nil
}

// Update mutates an expense in place. A new receipt replaces the old one;
// the old file is removed best-effort after the record is safely updated.
func (s *ExpenseService) Update(ctx context.Context, userID, id string, in ExpenseInput, receipt *ReceiptUpload) (*model.Expense, error) {
	if err := s.validate(ctx, userID, &in); err != nil {
		return nil, err
	}

	expense, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	oldReceipt, newReceipt := "", ""
	if receipt != nil {
		name, err := s.files.Save(receipt.Content, receipt.Ext)
		if err != nil {
			return nil, fmt.Errorf("service/expense: saving receipt: %w", err)
		}
		oldReceipt = expense.Receipt
		newReceipt = name
		expense.Receipt = name
	}

	expense.Amount = in.Amount
	expense.Description = in.Description
	expense.CategoryID = in.CategoryID
	if in.Date != nil {
		expense.Date = *in.Date
	}

	if err := s.expenses.Update(ctx, expense); err != nil {
		// The record didn't change; drop the replacement file, keep the old.
		s.removeReceipt(newReceipt)
		return nil, fmt.Errorf("service/expense: updating %s: %w", id, err)
	}

	// Record is safe; now the old file may go.
	s.removeReceipt(oldReceipt)

	return expense, nil
}

// Delete removes the record, then best-effort removes its receipt file.
func (s *ExpenseService) Delete(ctx context.Context, userID, id string) error {
	expense, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.expenses.Delete(ctx, id, userID); err != nil {
		if isNotFound(err) {
			return apperror.NotFound("expense", id)
		}
		return fmt.Errorf("service/expense: deleting %s: %w", id, err)
	}

	s.removeReceipt(expense.Receipt)
	return nil
}

// ReceiptPath resolves the on-disk path of an expense's receipt photo,
// owner-scoped like everything else. NotFound when the expense has no
// receipt or the file has gone missing.
func (s *ExpenseService) ReceiptPath(ctx context.Context, userID, id string) (string, error) {
	expense, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	if expense.Receipt == "" || !s.files.Exists(expense.Receipt) {
		return "", apperror.NotFound("receipt", id)
	}
	return s.files.Path(expense.Receipt)
}

// removeReceipt deletes a stored file, logging instead of failing — cleanup
// must never block the mutation that triggered it.
func (s *ExpenseService) removeReceipt(name string) {
	if name == "" {
		return
	}
	if err := s.files.Delete(name); err != nil {
		s.logger.Warn("removing receipt file failed",
			slog.String("file", name),
			slog.String("error", err.Error()),
		)
	}
}
