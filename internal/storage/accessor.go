package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"financitos/internal/core"
	applog "financitos/internal/log"
)

// Accessor is the typed view over a Medium. Reads never fail: a medium
// error or an undecodable value is logged and reported as absent. Writes
// return an error wrapping ErrStorageUnavailable.
type Accessor struct {
	medium Medium
	logger *applog.Logger
	now    func() time.Time
}

type AccessorOption func(*Accessor)

func WithLogger(l *applog.Logger) AccessorOption {
	return func(a *Accessor) { a.logger = l }
}

func WithClock(now func() time.Time) AccessorOption {
	return func(a *Accessor) { a.now = now }
}

func NewAccessor(m Medium, opts ...AccessorOption) *Accessor {
	a := &Accessor{
		medium: m,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = applog.Wrap(slog.Default(), applog.ComponentStorage)
	}
	return a
}

// Medium exposes the underlying medium, e.g. for readiness checks.
func (a *Accessor) Medium() Medium { return a.medium }

// read loads and decodes one record into dst. It returns false when the
// record is absent or cannot be read.
func (a *Accessor) read(ctx context.Context, kind Kind, key string, dst any) bool {
	data, err := a.medium.Get(ctx, kind, key)
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if err != nil {
		a.logger.ErrorContext(ctx, "Storage read failed, treating record as absent",
			applog.NewFields().
				WithStorageKey(string(kind), key).
				WithOperation(applog.OpRead).
				WithError(err).
				ToSlice()...)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		a.logger.ErrorContext(ctx, "Stored record is corrupted, treating as absent",
			applog.NewFields().
				WithStorageKey(string(kind), key).
				WithOperation(applog.OpRead).
				WithError(err).
				ToSlice()...)
		return false
	}
	return true
}

func (a *Accessor) write(ctx context.Context, kind Kind, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s/%s: %w", ErrStorageUnavailable, kind, key, err)
	}
	if err := a.medium.Set(ctx, kind, key, data); err != nil {
		a.logger.ErrorContext(ctx, "Storage write failed",
			applog.NewFields().
				WithStorageKey(string(kind), key).
				WithOperation(applog.OpUpdate).
				WithError(err).
				ToSlice()...)
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return nil
}

func (a *Accessor) remove(ctx context.Context, kind Kind, key string) error {
	if err := a.medium.Delete(ctx, kind, key); err != nil {
		a.logger.ErrorContext(ctx, "Storage delete failed",
			applog.NewFields().
				WithStorageKey(string(kind), key).
				WithOperation(applog.OpDelete).
				WithError(err).
				ToSlice()...)
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return nil
}

// GetMonth returns the stored record for month, if any.
func (a *Accessor) GetMonth(ctx context.Context, month string) (core.MonthlyRecord, bool) {
	var r core.MonthlyRecord
	if !a.read(ctx, KindFinancial, month, &r) {
		return core.MonthlyRecord{}, false
	}
	r.Normalize()
	if r.Month == "" {
		r.Month = month
	}
	return r, true
}

// SaveMonth recomputes the summary and persists the full record under its month.
func (a *Accessor) SaveMonth(ctx context.Context, r core.MonthlyRecord) error {
	if r.Month == "" {
		return fmt.Errorf("%w: empty month key", core.ErrInvalidMonthKey)
	}
	r.Refresh()
	return a.write(ctx, KindFinancial, r.Month, r)
}

func (a *Accessor) DeleteMonth(ctx context.Context, month string) error {
	return a.remove(ctx, KindFinancial, month)
}

// ListMonths returns the stored month keys in ascending order.
func (a *Accessor) ListMonths(ctx context.Context) []string {
	keys, err := a.medium.ListKeys(ctx, KindFinancial)
	if err != nil {
		a.logger.ErrorContext(ctx, "Listing months failed",
			applog.NewFields().
				WithOperation(applog.OpList).
				WithError(err).
				ToSlice()...)
		return []string{}
	}
	keys = slices.Clone(keys)
	slices.Sort(keys)
	return keys
}

// GetShopping returns the stored list or an empty one stamped now.
func (a *Accessor) GetShopping(ctx context.Context) core.ShoppingList {
	var l core.ShoppingList
	if !a.read(ctx, KindShopping, ShoppingKey, &l) {
		return core.NewShoppingList(a.now().UTC())
	}
	if l.Items == nil {
		l.Items = []core.ShoppingItem{}
	}
	return l
}

func (a *Accessor) SaveShopping(ctx context.Context, l core.ShoppingList) error {
	if l.Items == nil {
		l.Items = []core.ShoppingItem{}
	}
	return a.write(ctx, KindShopping, ShoppingKey, l)
}

// GetSettings returns the stored settings or the defaults.
func (a *Accessor) GetSettings(ctx context.Context) core.AppSettings {
	s := core.DefaultSettings()
	if !a.read(ctx, KindSettings, SettingsKey, &s) {
		return core.DefaultSettings()
	}
	return s
}

func (a *Accessor) SaveSettings(ctx context.Context, s core.AppSettings) error {
	return a.write(ctx, KindSettings, SettingsKey, s)
}

// ClearAll deletes every record of every kind. It keeps going after a
// failure and reports the first one.
func (a *Accessor) ClearAll(ctx context.Context) error {
	var first error
	for _, kind := range AllKinds {
		keys, err := a.medium.ListKeys(ctx, kind)
		if err != nil {
			if first == nil {
				first = fmt.Errorf("%w: list %s: %w", ErrStorageUnavailable, kind, err)
			}
			continue
		}
		for _, key := range keys {
			if err := a.remove(ctx, kind, key); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
