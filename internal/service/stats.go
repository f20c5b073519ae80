package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/model"
	"github.com/sakif/expense-tracker/internal/repository"
)

const recentLimit = 5

// StatsService computes per-user spending summaries: the dashboard summary
// and the named-period breakdowns. Everything here is arithmetic over
// aggregation rows the repository already grouped — the service never loads
// raw expense lists to sum them in memory.
type StatsService struct {
	expenses repository.ExpenseRepository

	// now is swappable so tests can pin the calendar.
	now func() time.Time
}

func NewStatsService(expenses repository.ExpenseRepository) *StatsService {
	return &StatsService{
		expenses: expenses,
		now:      time.Now,
	}
}

// BreakdownItem is one category's share of the window: the aggregation row
// plus its percentage of the window total, rounded to the nearest integer.
type BreakdownItem struct {
	repository.CategoryTotal
	Percentage int `json:"percentage"`
}

// Summary is the dashboard payload: an all-time figure, a windowed figure
// with its per-category split, and the latest activity.
type Summary struct {
	AllTimeTotal model.Money           `json:"allTimeTotal"`
	WindowTotal  model.Money           `json:"windowTotal"`
	WindowFrom   time.Time             `json:"windowFrom"`
	WindowTo     time.Time             `json:"windowTo"`
	Breakdown    []BreakdownItem       `json:"breakdown"`
	Recent       []model.ExpenseWithCategory `json:"recent"`
}

// Summarize computes the user's spending summary. A zero from/to pair
// defaults the window to the current calendar month; the all-time total is
// always unrestricted regardless of the window.
//
// The four underlying queries are independent, so they run concurrently —
// an errgroup collapses their errors and the first failure cancels the rest.
func (s *StatsService) Summarize(ctx context.Context, userID string, from, to time.Time) (*Summary, error) {
	if from.IsZero() && to.IsZero() {
		from, to = monthWindow(s.now())
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, apperror.ValidationFailed("window", "window end precedes its start")
	}

	var (
		allTime  model.Money
		window   model.Money
		rawItems []repository.CategoryTotal
		recent   []model.ExpenseWithCategory
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		allTime, err = s.expenses.SumAll(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		window, err = s.expenses.SumWindow(gctx, userID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		rawItems, err = s.expenses.CategoryBreakdown(gctx, userID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.expenses.Recent(gctx, userID, recentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("service/stats: summarizing: %w", err)
	}

	return &Summary{
		AllTimeTotal: allTime,
		WindowTotal:  window,
		WindowFrom:   from,
		WindowTo:     to,
		Breakdown:    withPercentages(rawItems, window),
		Recent:       recent,
	}, nil
}

// withPercentages attaches each category's integer-rounded share of the
// window total. A zero total yields zero percentages across the board — the
// division simply doesn't happen, so neither does the division-by-zero.
func withPercentages(items []repository.CategoryTotal, total model.Money) []BreakdownItem {
	result := make([]BreakdownItem, 0, len(items))
	for _, item := range items {
		pct := 0
		if total > 0 {
			pct = int(math.Round(float64(item.Total) / float64(total) * 100))
		}
		result = append(result, BreakdownItem{CategoryTotal: item, Percentage: pct})
	}
	return result
}

// PeriodStats is the charting payload for a named period.
type PeriodStats struct {
	Period        string                     `json:"period"`
	Total         model.Money                `json:"total"`
	Count         int64                      `json:"count"`
	Breakdown     []repository.CategoryTotal `json:"breakdown"`
	Daily         []repository.DailyTotal    `json:"daily"`
	AveragePerDay model.Money                `json:"averagePerDay"`
}

// Period computes statistics for a named window:
//
//	week  → the trailing 7 days
//	month → calendar month to date
//	year  → calendar year to date
//
// AveragePerDay divides the period total by the days elapsed so far in the
// window (a month is divided by today's day-of-month, not by 30).
func (s *StatsService) Period(ctx context.Context, userID, period string) (*PeriodStats, error) {
	now := s.now()

	var from time.Time
	var elapsed int64
	switch period {
	case "week":
		from = now.AddDate(0, 0, -7)
		elapsed = 7
	case "month":
		from, _ = monthWindow(now)
		elapsed = int64(now.Day())
	case "year":
		from = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		elapsed = int64(now.YearDay())
	default:
		return nil, apperror.ValidationFailed("period", "period must be week, month, or year")
	}

	var (
		total     model.Money
		breakdown []repository.CategoryTotal
		daily     []repository.DailyTotal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.expenses.SumWindow(gctx, userID, from, time.Time{})
		return err
	})
	g.Go(func() error {
		var err error
		breakdown, err = s.expenses.CategoryBreakdown(gctx, userID, from, time.Time{})
		return err
	})
	g.Go(func() error {
		var err error
		daily, err = s.expenses.DailyTotals(gctx, userID, from, time.Time{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("service/stats: period %s: %w", period, err)
	}

	var count int64
	for _, d := range daily {
		count += d.Count
	}

	var avg model.Money
	if elapsed > 0 {
		avg = total / model.Money(elapsed)
	}

	return &PeriodStats{
		Period:        period,
		Total:         total,
		Count:         count,
		Breakdown:     breakdown,
		Daily:         daily,
		AveragePerDay: avg,
	}, nil
}

// monthWindow returns the half-open window covering now's calendar month.
func monthWindow(now time.Time) (time.Time, time.Time) {
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return from, from.AddDate(0, 1, 0)
}
