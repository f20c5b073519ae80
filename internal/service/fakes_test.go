package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/model"
	"github.com/sakif/expense-tracker/internal/repository"
)

// In-memory fakes for the repository interfaces, shared by the service
// tests in this package. Using hand-written fakes (not a mock framework)
// keeps tests dependency-free and easy to read — you can see exactly what
// each fake does.

// testLogger returns a logger that stays quiet unless something errors.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// =========================================================================
// USER REPOSITORY FAKE
// =========================================================================

type fakeUserRepo struct {
	users  map[string]*model.User // keyed by internal ID
	nextID int

	// set to a non-nil error to simulate a database failure
	createErr error
	updateErr error
	getErr    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User), nextID: 1}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if u.Phone == phone {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", phone)
}

func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	user.UpdatedAt = time.Now()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

// =========================================================================
// CATEGORY REPOSITORY FAKE
// =========================================================================

type fakeCategoryRepo struct {
	categories map[string]*model.Category
	order      []string // insertion order, for List
	nextID     int

	createErr error
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: make(map[string]*model.Category), nextID: 1}
}

func (f *fakeCategoryRepo) Create(ctx context.Context, category *model.Category) error {
	if f.createErr != nil {
		return f.createErr
	}
	// Mirror the UNIQUE(user_id, name) index
	for _, c := range f.categories {
		if c.UserID == category.UserID && c.Name == category.Name {
			return apperror.Conflict("category", fmt.Sprintf("name %q already exists", category.Name))
		}
	}
	category.ID = fmt.Sprintf("cat-%d", f.nextID)
	f.nextID++
	category.CreatedAt = time.Now()
	category.UpdatedAt = category.CreatedAt
	copied := *category
	f.categories[category.ID] = &copied
	f.order = append(f.order, category.ID)
	return nil
}

func (f *fakeCategoryRepo) GetByID(ctx context.Context, id, userID string) (*model.Category, error) {
	c, ok := f.categories[id]
	if !ok || c.UserID != userID {
		return nil, apperror.NotFound("category", id)
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCategoryRepo) GetByName(ctx context.Context, userID, name string) (*model.Category, error) {
	for _, c := range f.categories {
		if c.UserID == userID && c.Name == name {
			copied := *c
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("category", name)
}

func (f *fakeCategoryRepo) List(ctx context.Context, userID string) ([]model.Category, error) {
	var out []model.Category
	for _, id := range f.order {
		if c, ok := f.categories[id]; ok && c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCategoryRepo) Update(ctx context.Context, category *model.Category) error {
	existing, ok := f.categories[category.ID]
	if !ok || existing.UserID != category.UserID {
		return apperror.NotFound("category", category.ID)
	}
	category.UpdatedAt = time.Now()
	copied := *category
	f.categories[category.ID] = &copied
	return nil
}

func (f *fakeCategoryRepo) Delete(ctx context.Context, id, userID string) error {
	c, ok := f.categories[id]
	if !ok || c.UserID != userID {
		return apperror.NotFound("category", id)
	}
	delete(f.categories, id)
	return nil
}

// =========================================================================
// EXPENSE REPOSITORY FAKE
// =========================================================================

// fakeExpenseRepo reimplements the SQL aggregations in memory. It resolves
// categories through a fakeCategoryRepo so join semantics (which queries
// drop dangling references, which don't) can be exercised too.
type fakeExpenseRepo struct {
	expenses   map[string]*model.Expense
	order      []string
	categories *fakeCategoryRepo
	nextID     int

	// when set, every method fails with it
	err error
}

func newFakeExpenseRepo(categories *fakeCategoryRepo) *fakeExpenseRepo {
	return &fakeExpenseRepo{expenses: make(map[string]*model.Expense), categories: categories, nextID: 1}
}

func (f *fakeExpenseRepo) Create(ctx context.Context, expense *model.Expense) error {
	if f.err != nil {
		return f.err
	}
	expense.ID = fmt.Sprintf("exp-%d", f.nextID)
	f.nextID++
	expense.CreatedAt = time.Now()
	expense.UpdatedAt = expense.CreatedAt
	copied := *expense
	f.expenses[expense.ID] = &copied
	f.order = append(f.order, expense.ID)
	return nil
}

func (f *fakeExpenseRepo) GetByID(ctx context.Context, id, userID string) (*model.Expense, error) {
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.expenses[id]
	if !ok || e.UserID != userID {
		return nil, apperror.NotFound("expense", id)
	}
	copied := *e
	return &copied, nil
}

func (f *fakeExpenseRepo) Update(ctx context.Context, expense *model.Expense) error {
	if f.err != nil {
		return f.err
	}
	existing, ok := f.expenses[expense.ID]
	if !ok || existing.UserID != expense.UserID {
		return apperror.NotFound("expense", expense.ID)
	}
	expense.UpdatedAt = time.Now()
	copied := *expense
	f.expenses[expense.ID] = &copied
	return nil
}

func (f *fakeExpenseRepo) Delete(ctx context.Context, id, userID string) error {
	if f.err != nil {
		return f.err
	}
	e, ok := f.expenses[id]
	if !ok || e.UserID != userID {
		return apperror.NotFound("expense", id)
	}
	delete(f.expenses, id)
	return nil
}

// owned returns the user's expenses in window, newest date first (insertion
// order breaks ties, newest first — matching date DESC, created_at DESC).
func (f *fakeExpenseRepo) owned(userID string, from, to time.Time) []model.Expense {
	idx := make(map[string]int, len(f.order))
	for i, id := range f.order {
		idx[id] = i
	}
	var out []model.Expense
	for _, id := range f.order {
		e, ok := f.expenses[id]
		if !ok || e.UserID != userID {
			continue
		}
		if !from.IsZero() && e.Date.Before(from) {
			continue
		}
		if !to.IsZero() && !e.Date.Before(to) {
			continue
		}
		out = append(out, *e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return idx[out[i].ID] > idx[out[j].ID]
	})
	return out
}

func (f *fakeExpenseRepo) resolve(e model.Expense) (model.ExpenseWithCategory, bool) {
	c, ok := f.categories.categories[e.CategoryID]
	if !ok {
		return model.ExpenseWithCategory{Expense: e}, false
	}
	return model.ExpenseWithCategory{
		Expense:       e,
		CategoryName:  c.Name,
		CategoryColor: c.Color,
		CategoryIcon:  c.Icon,
	}, true
}

func (f *fakeExpenseRepo) List(ctx context.Context, userID string, opts repository.ListOptions) ([]model.ExpenseWithCategory, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.ExpenseWithCategory
	for _, e := range f.owned(userID, opts.From, opts.To) {
		if opts.CategoryID != "" && e.CategoryID != opts.CategoryID {
			continue
		}
		// LEFT JOIN semantics: unresolvable categories stay in the list
		resolved, _ := f.resolve(e)
		out = append(out, resolved)
	}
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (f *fakeExpenseRepo) Recent(ctx context.Context, userID string, limit int) ([]model.ExpenseWithCategory, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.ExpenseWithCategory
	for _, e := range f.owned(userID, time.Time{}, time.Time{}) {
		// INNER JOIN semantics: drop expenses whose category is gone
		resolved, ok := f.resolve(e)
		if !ok {
			continue
		}
		out = append(out, resolved)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeExpenseRepo) CountByCategory(ctx context.Context, userID, categoryID string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for _, e := range f.expenses {
		if e.UserID == userID && e.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (f *fakeExpenseRepo) SumAll(ctx context.Context, userID string) (model.Money, error) {
	if f.err != nil {
		return 0, f.err
	}
	var total model.Money
	for _, e := range f.owned(userID, time.Time{}, time.Time{}) {
		total += e.Amount
	}
	return total, nil
}

func (f *fakeExpenseRepo) SumWindow(ctx context.Context, userID string, from, to time.Time) (model.Money, error) {
	if f.err != nil {
		return 0, f.err
	}
	var total model.Money
	for _, e := range f.owned(userID, from, to) {
		total += e.Amount
	}
	return total, nil
}

func (f *fakeExpenseRepo) CategoryBreakdown(ctx context.Context, userID string, from, to time.Time) ([]repository.CategoryTotal, error) {
	if f.err != nil {
		return nil, f.err
	}
	byCategory := make(map[string]*repository.CategoryTotal)
	var keys []string
	for _, e := range f.owned(userID, from, to) {
		c, ok := f.categories.categories[e.CategoryID]
		if !ok {
			continue // INNER JOIN semantics
		}
		row, ok := byCategory[e.CategoryID]
		if !ok {
			row = &repository.CategoryTotal{
				CategoryID: c.ID,
				Name:       c.Name,
				Color:      c.Color,
				Icon:       c.Icon,
			}
			byCategory[e.CategoryID] = row
			keys = append(keys, e.CategoryID)
		}
		row.Total += e.Amount
		row.Count++
	}
	out := make([]repository.CategoryTotal, 0, len(keys))
	for _, k := range keys {
		out = append(out, *byCategory[k])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out, nil
}

func (f *fakeExpenseRepo) DailyTotals(ctx context.Context, userID string, from, to time.Time) ([]repository.DailyTotal, error) {
	if f.err != nil {
		return nil, f.err
	}
	byDay := make(map[string]*repository.DailyTotal)
	for _, e := range f.owned(userID, from, to) {
		day := e.Date.UTC().Format("2006-01-02")
		row, ok := byDay[day]
		if !ok {
			row = &repository.DailyTotal{Day: day}
			byDay[day] = row
		}
		row.Total += e.Amount
		row.Count++
	}
	out := make([]repository.DailyTotal, 0, len(byDay))
	for _, row := range byDay {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

// =========================================================================
// SMS PROVIDER FAKE
// =========================================================================

type fakeSender struct {
	dev     bool
	sendErr error

	sentTo   []string
	lastBody string
}

func (f *fakeSender) Send(ctx context.Context, to, body string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sentTo = append(f.sentTo, to)
	f.lastBody = body
	return nil
}

func (f *fakeSender) Dev() bool { return f.dev }

// mustDate builds a UTC timestamp for test data.
func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return ts
}
