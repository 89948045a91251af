package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"financitos/internal/core"
	"financitos/internal/storage"
)

var fixedNow = time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)

// countingMedium records writes so tests can assert that nothing was persisted.
type countingMedium struct {
	storage.Medium
	mu     sync.Mutex
	writes int
}

func (m *countingMedium) Set(ctx context.Context, kind storage.Kind, key string, data []byte) error {
	m.mu.Lock()
	m.writes++
	m.mu.Unlock()
	return m.Medium.Set(ctx, kind, key, data)
}

func (m *countingMedium) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

var errBroken = errors.New("quota exceeded")

// brokenMedium fails every operation.
type brokenMedium struct{}

func (brokenMedium) Get(context.Context, storage.Kind, string) ([]byte, error) { return nil, errBroken }
func (brokenMedium) Set(context.Context, storage.Kind, string, []byte) error   { return errBroken }
func (brokenMedium) Delete(context.Context, storage.Kind, string) error        { return errBroken }
func (brokenMedium) ListKeys(context.Context, storage.Kind) ([]string, error)  { return nil, errBroken }
func (brokenMedium) Close() error                                              { return nil }

func testOptions() Options {
	n := 0
	return Options{
		Now: func() time.Time { return fixedNow },
		NewID: func() string {
			n++
			return fmt.Sprintf("gen-%d", n)
		},
	}
}

func newTestStore(m storage.Medium) *storage.Accessor {
	return storage.NewAccessor(m, storage.WithClock(func() time.Time { return fixedNow }))
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func expense(id string, kind core.ExpenseKind, status core.ExpenseStatus, deadline, amount string) core.ExpenseEntry {
	return core.ExpenseEntry{
		ID:            id,
		Description:   "expense " + id,
		Kind:          kind,
		Deadline:      deadline,
		Status:        status,
		PaymentMethod: core.Debit,
		Amount:        dec(amount),
		CreatedAt:     fixedNow.AddDate(0, -1, 0),
		UpdatedAt:     fixedNow.AddDate(0, -1, 0),
	}
}
