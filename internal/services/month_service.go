package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"financitos/internal/core"
	applog "financitos/internal/log"
	"financitos/internal/storage"
)

// ErrEntryNotFound is returned when an update or removal names an id the
// month does not contain.
var ErrEntryNotFound = errors.New("entry not found")

// Options carries the injectable clock and id generator shared by services.
// Location decides which calendar day "today" is for reminders, rollover
// and purchase dates; it defaults to UTC.
type Options struct {
	Now      func() time.Time
	NewID    func() string
	Location *time.Location
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.NewID == nil {
		o.NewID = func() string { return uuid.NewString() }
	}
	return o
}

func (o Options) now() time.Time { return o.Now().In(o.Location) }

type (
	IncomeInput struct {
		Source   string
		Deadline string
		Amount   decimal.Decimal
	}

	ExpenseInput struct {
		Description   string
		Kind          core.ExpenseKind
		Deadline      string
		Status        core.ExpenseStatus
		PaymentMethod core.PaymentMethod
		Amount        decimal.Decimal
	}

	InvestmentInput struct {
		Kind         core.InvestmentKind
		Institution  string
		CurrentValue decimal.Decimal
		Rate         decimal.Decimal
	}
)

// MonthService owns month rollover and every mutation of a MonthlyRecord.
// Each mutation loads the month, applies the change, recomputes the
// summary and persists the whole record.
type MonthService struct {
	store *storage.Accessor
	opts  Options
}

func NewMonthService(store *storage.Accessor, opts Options) *MonthService {
	return &MonthService{store: store, opts: opts.withDefaults()}
}

// LoadMonth returns the record for month. An existing record is returned
// untouched. An unseen month is seeded with copies of the previous month's
// recurring expenses; the seeded record is persisted and copied reports
// true. When nothing qualifies an empty record is returned and nothing is
// written. Failures while seeding are logged and yield an empty record.
func (s *MonthService) LoadMonth(ctx context.Context, month string) (record core.MonthlyRecord, copied bool) {
	if r, ok := s.store.GetMonth(ctx, month); ok {
		return r, false
	}

	empty := core.NewMonthlyRecord(month)

	prevKey, err := core.PreviousMonthKey(month)
	if err != nil {
		slog.WarnContext(ctx, "Cannot derive previous month, skipping rollover",
			applog.FieldComponent, applog.ComponentMonth, "month", month, "error", err)
		return empty, false
	}

	prev, ok := s.store.GetMonth(ctx, prevKey)
	if !ok || len(prev.Expenses) == 0 {
		return empty, false
	}

	seeded := core.CarryRecurring(prev, month, s.opts.now(), s.opts.NewID)
	if len(seeded.Expenses) == 0 {
		return empty, false
	}

	if err := s.store.SaveMonth(ctx, seeded); err != nil {
		slog.ErrorContext(ctx, "Failed to persist rolled over month",
			applog.FieldComponent, applog.ComponentMonth, "operation", "rollover", "month", month, "error", err)
		return empty, false
	}

	slog.InfoContext(ctx, "Recurring expenses copied into new month",
		applog.FieldComponent, applog.ComponentMonth,
		"operation", "rollover",
		"month", month,
		"from", prevKey,
		"copied", len(seeded.Expenses))

	return seeded, true
}

// mutate loads month (running rollover for unseen months), applies fn and
// persists the result.
func (s *MonthService) mutate(ctx context.Context, month string, fn func(r *core.MonthlyRecord) error) (core.MonthlyRecord, error) {
	if _, _, err := core.ParseMonthKey(month); err != nil {
		return core.MonthlyRecord{}, err
	}
	r, _ := s.LoadMonth(ctx, month)
	if err := fn(&r); err != nil {
		return core.MonthlyRecord{}, err
	}
	r.Month = month
	r.Refresh()
	if err := s.store.SaveMonth(ctx, r); err != nil {
		return core.MonthlyRecord{}, fmt.Errorf("save month %s: %w", month, err)
	}
	return r, nil
}

// ListMonths returns every stored month key in ascending order.
func (s *MonthService) ListMonths(ctx context.Context) []string {
	return s.store.ListMonths(ctx)
}

// DeleteMonth removes a month record entirely.
func (s *MonthService) DeleteMonth(ctx context.Context, month string) error {
	if _, _, err := core.ParseMonthKey(month); err != nil {
		return err
	}
	return s.store.DeleteMonth(ctx, month)
}

// Summary returns the totals of month, running rollover first.
func (s *MonthService) Summary(ctx context.Context, month string) core.Summary {
	r, _ := s.LoadMonth(ctx, month)
	return r.Summary
}

// Reminders lists the pending expenses of month that are due today or overdue.
func (s *MonthService) Reminders(ctx context.Context, month string) core.Reminders {
	r, _ := s.LoadMonth(ctx, month)
	return core.BuildReminders(r, s.opts.now())
}

func (s *MonthService) AddIncome(ctx context.Context, month string, in IncomeInput) (core.IncomeEntry, error) {
	now := s.opts.now()
	entry := core.IncomeEntry{
		ID:        s.opts.NewID(),
		Source:    in.Source,
		Deadline:  in.Deadline,
		Amount:    core.RoundMoney(in.Amount),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := entry.Validate(); err != nil {
		return core.IncomeEntry{}, err
	}
	_, err := s.mutate(ctx, month, func(r *core.MonthlyRecord) error {
		r.Income = append(r.Income, entry)
		return nil
	})
	if err != nil {
		return core.IncomeEntry{}, err
	}
	return entry, nil
}

func (s *MonthService) UpdateIncome(ctx context.Context, month, id string, in IncomeInput) (core.IncomeEntry, error) {
	var updated core.IncomeEntry
	_, err := s.mutate(ctx, month, func(r *core.MonthlyRecord) error {
		for i := range r.Income {
			if r.Income[i].ID != id {
				continue
			}
			e := r.Income[i]
			e.Source = in.Source
			e.Deadline = in.Deadline
			e.Amount = core.RoundMoney(in.Amount)
			e.UpdatedAt = s.opts.now()
			if err := e.Validate(); err != nil {
				return err
			}
			r.Income[i] = e
			updated = e
			return nil
		}
		return fmt.Errorf("%w: income %s", ErrEntryNotFound, id)
	})
	return updated, err
}

func (s *MonthService) RemoveIncome(ctx context.Context, month, id string) error {
	_, err := s.mutate(ctx, month, func(r *core.MonthlyRecord) error {
		for i := range r.Income {
			if r.Income[i].ID == id {
				r.Income = append(r.Income[:i], r.Income[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: income %s", ErrEntryNotFound, id)
	})
	return err
}

func (s *MonthService) AddExpense(ctx context.Context, month string, in ExpenseInput) (core.ExpenseEntry, error) {
	now := s.opts.now()
	entry := core.ExpenseEntry{
		ID:            s.opts.NewID(),
		Description:   in.Description,
		Kind:          in.Kind,
		Deadline:      in.Deadline,
		Status:        in.Status,
		PaymentMethod: in.PaymentMethod,
		Amount:        core.RoundMoney(in.Amount),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if entry.Status == "" {
		entry.Status = core.Pending
	}
	if err := entry.Validate(); err != nil {
		return core.ExpenseEntry{}, err
	}
	_, err := s.mutate(ctx, month, func(r *core.MonthlyRecord) error {
		r.Expenses = append(r.Expenses, entry)
		return nil
	})
	if err != nil {
		return core.ExpenseEntry{}, err
	}
	return entry, nil
}

func (s *MonthService) UpdateExpense(ctx context.Context, month, id string, in ExpenseInput) (core.ExpenseEntry, error) {
	var updated core.ExpenseEntry
	_, err := s.mutate(ctx, month, func(r *core.MonthlyRecord) error {
		for i := range r.Expenses {
			if r.Expenses[i].ID != id {
				continue
			}
			e := r.Expenses[i]
			e.Description = in.Description
			e.Kind = in.Kind
			e.Deadline = in.Deadline
			if in.Status != "" {
				e.Status = in.Status
			}
			e.PaymentMethod = in.PaymentMethod
			e.Amount = core.RoundMoney(in.Amount)
			e.UpdatedAt = s.opts.now()
			if err := e.Validate(); err != nil {
				return err
			}
			r.Expenses[i] = e
			updated = e
			return nil
		}
		return fmt.Errorf("%w: expense %s", ErrEntryNotFound, id)
	})
	return updated, err
}

// ToggleExpense flips an expense between Paid and Pending.
func (s *MonthService) ToggleExpense(ctx context.Context, month, id string) (core.ExpenseEntry, error) {
	var updated core.ExpenseEntry
	_, err := s.mutate(ctx, month, func(r *core.MonthlyRecord) error {
		for i := range r.Expenses {
			if r.Expenses[i].ID == id {
				r.Expenses[i].Status = r.Expenses[i].Status.Toggle()
				r.Expenses[i].UpdatedAt = s.opts.now()
				updated = r.Expenses[i]
				return nil
			}
		}
		return fmt.Errorf("%w: expense %s", ErrEntryNotFound, id)
	})
	return updated, err
}

func (s *MonthService) RemoveExpense(ctx context.Context, month, id string) error {
	_, err := s.mutate(ctx, month, func(r *core.MonthlyRecord) error {
		for i := range r.Expenses {
			if r.Expenses[i].ID == id {
				r.Expenses = append(r.Expenses[:i], r.Expenses[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: expense %s", ErrEntryNotFound, id)
	})
	return err
}

// UpsertInvestment records a value for the (kind, institution) pair,
// updating the existing position in place when there is one.
func (s *MonthService) UpsertInvestment(ctx context.Context, month string, in InvestmentInput) (core.InvestmentEntry, error) {
	candidate := core.InvestmentEntry{
		Kind:         in.Kind,
		Institution:  in.Institution,
		CurrentValue: core.RoundMoney(in.CurrentValue),
		Rate:         in.Rate,
	}
	if err := candidate.Validate(); err != nil {
		return core.InvestmentEntry{}, err
	}

	var stored core.InvestmentEntry
	_, err := s.mutate(ctx, month, func(r *core.MonthlyRecord) error {
		r.Investments, stored = core.UpsertInvestment(r.Investments, candidate, s.opts.NewID(), s.opts.now())
		return nil
	})
	if err != nil {
		return core.InvestmentEntry{}, err
	}
	return stored, nil
}

// UpdateInvestment edits one position directly. The previous value is
// left alone; growth and projection are recomputed. Moving a position onto
// a (kind, institution) pair another entry holds is rejected.
func (s *MonthService) UpdateInvestment(ctx context.Context, month, id string, in InvestmentInput) (core.InvestmentEntry, error) {
	var updated core.InvestmentEntry
	_, err := s.mutate(ctx, month, func(r *core.MonthlyRecord) error {
		for i := range r.Investments {
			if r.Investments[i].ID != id {
				continue
			}
			e := r.Investments[i]
			e.Kind = in.Kind
			e.Institution = in.Institution
			e.CurrentValue = core.RoundMoney(in.CurrentValue)
			e.Rate = in.Rate
			e.UpdatedAt = s.opts.now()
			if err := e.Validate(); err != nil {
				return err
			}
			if core.HasInvestment(r.Investments, e.Kind, e.Institution, id) {
				return fmt.Errorf("%w: %s at %s", core.ErrDuplicateInvestment, e.Kind, e.Institution)
			}
			e.Recalculate()
			r.Investments[i] = e
			updated = e
			return nil
		}
		return fmt.Errorf("%w: investment %s", ErrEntryNotFound, id)
	})
	return updated, err
}

func (s *MonthService) RemoveInvestment(ctx context.Context, month, id string) error {
	_, err := s.mutate(ctx, month, func(r *core.MonthlyRecord) error {
		for i := range r.Investments {
			if r.Investments[i].ID == id {
				r.Investments = append(r.Investments[:i], r.Investments[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: investment %s", ErrEntryNotFound, id)
	})
	return err
}
