package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financitos/internal/core"
)

var fixedNow = time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)

func newTestAccessor(m Medium) *Accessor {
	return NewAccessor(m, WithClock(func() time.Time { return fixedNow }))
}

// failingMedium fails every operation, standing in for a broken store.
type failingMedium struct{}

var errBroken = errors.New("disk on fire")

func (failingMedium) Get(context.Context, Kind, string) ([]byte, error) { return nil, errBroken }
func (failingMedium) Set(context.Context, Kind, string, []byte) error   { return errBroken }
func (failingMedium) Delete(context.Context, Kind, string) error        { return errBroken }
func (failingMedium) ListKeys(context.Context, Kind) ([]string, error)  { return nil, errBroken }
func (failingMedium) Close() error                                      { return nil }

func sampleRecord(month string) core.MonthlyRecord {
	r := core.NewMonthlyRecord(month)
	r.Income = []core.IncomeEntry{{ID: "i1", Source: "Salary", Deadline: "05/01/2024", Amount: decimal.RequireFromString("6500"), CreatedAt: fixedNow, UpdatedAt: fixedNow}}
	r.Expenses = []core.ExpenseEntry{
		{ID: "e1", Description: "Rent", Kind: core.Recurring, Status: core.Paid, PaymentMethod: core.InstantTransfer, Deadline: "10/01/2024", Amount: decimal.RequireFromString("1200"), CreatedAt: fixedNow, UpdatedAt: fixedNow},
		{ID: "e2", Description: "Shoes", Kind: core.OneTime, Status: core.Pending, PaymentMethod: core.Credit, Deadline: "20/01/2024", Amount: decimal.RequireFromString("350"), CreatedAt: fixedNow, UpdatedAt: fixedNow},
	}
	prev := decimal.RequireFromString("900")
	r.Investments = []core.InvestmentEntry{{ID: "v1", Kind: core.CDI, Institution: "Nubank", CurrentValue: decimal.RequireFromString("1000"), PreviousValue: &prev, Rate: decimal.RequireFromString("10"), CreatedAt: fixedNow, UpdatedAt: fixedNow}}
	r.Investments[0].Recalculate()
	return r
}

func TestAccessorMonthLifecycle(t *testing.T) {
	ctx := context.Background()
	a := newTestAccessor(NewMemoryMedium())

	_, ok := a.GetMonth(ctx, "2024-01")
	assert.False(t, ok)

	rec := sampleRecord("2024-01")
	rec.Summary = core.Summary{} // stale on purpose
	require.NoError(t, a.SaveMonth(ctx, rec))

	got, ok := a.GetMonth(ctx, "2024-01")
	require.True(t, ok)
	assert.Equal(t, "2024-01", got.Month)
	assert.Len(t, got.Expenses, 2)
	assert.True(t, got.Summary.NetBalance.Equal(decimal.RequireFromString("4950")), "summary recomputed on save, got %s", got.Summary.NetBalance)

	require.NoError(t, a.SaveMonth(ctx, core.NewMonthlyRecord("2023-12")))
	assert.Equal(t, []string{"2023-12", "2024-01"}, a.ListMonths(ctx))

	require.NoError(t, a.DeleteMonth(ctx, "2024-01"))
	_, ok = a.GetMonth(ctx, "2024-01")
	assert.False(t, ok)
}

func TestAccessorRejectsEmptyMonthKey(t *testing.T) {
	a := newTestAccessor(NewMemoryMedium())
	err := a.SaveMonth(context.Background(), core.MonthlyRecord{})
	assert.ErrorIs(t, err, core.ErrInvalidMonthKey)
}

func TestAccessorDefaults(t *testing.T) {
	ctx := context.Background()
	a := newTestAccessor(NewMemoryMedium())

	list := a.GetShopping(ctx)
	assert.Empty(t, list.Items)
	assert.NotNil(t, list.Items)
	assert.Equal(t, fixedNow, list.LastUpdated)

	assert.Equal(t, core.DefaultSettings(), a.GetSettings(ctx))
	assert.Equal(t, "10:00", a.GetSettings(ctx).NotificationTime)
}

func TestAccessorGracefulFailure(t *testing.T) {
	ctx := context.Background()
	a := newTestAccessor(failingMedium{})

	_, ok := a.GetMonth(ctx, "2024-01")
	assert.False(t, ok, "read failure must look like not-found")
	assert.Equal(t, core.DefaultSettings(), a.GetSettings(ctx))
	assert.Empty(t, a.GetShopping(ctx).Items)
	assert.Empty(t, a.ListMonths(ctx))

	err := a.SaveMonth(ctx, sampleRecord("2024-01"))
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, errBroken)
	assert.ErrorIs(t, a.SaveSettings(ctx, core.DefaultSettings()), ErrStorageUnavailable)
	assert.ErrorIs(t, a.ClearAll(ctx), ErrStorageUnavailable)
}

func TestAccessorCorruptedValueIsAbsent(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryMedium()
	require.NoError(t, m.Set(ctx, KindFinancial, "2024-01", []byte("{not json")))
	require.NoError(t, m.Set(ctx, KindSettings, SettingsKey, []byte("[]")))

	a := newTestAccessor(m)
	_, ok := a.GetMonth(ctx, "2024-01")
	assert.False(t, ok)
	assert.Equal(t, core.DefaultSettings(), a.GetSettings(ctx))
}

func TestAccessorClearAll(t *testing.T) {
	ctx := context.Background()
	a := newTestAccessor(NewMemoryMedium())

	require.NoError(t, a.SaveMonth(ctx, sampleRecord("2024-01")))
	require.NoError(t, a.SaveShopping(ctx, core.ShoppingList{Items: []core.ShoppingItem{{ID: "s", Description: "Chair", Priority: core.PriorityLow}}}))
	settings := core.DefaultSettings()
	settings.AutoSync = true
	require.NoError(t, a.SaveSettings(ctx, settings))

	require.NoError(t, a.ClearAll(ctx))

	assert.Empty(t, a.ListMonths(ctx))
	assert.Empty(t, a.GetShopping(ctx).Items)
	assert.False(t, a.GetSettings(ctx).AutoSync)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestAccessor(NewMemoryMedium())

	require.NoError(t, src.SaveMonth(ctx, sampleRecord("2024-01")))
	require.NoError(t, src.SaveMonth(ctx, sampleRecord("2024-02")))
	price := decimal.RequireFromString("199.90")
	require.NoError(t, src.SaveShopping(ctx, core.ShoppingList{
		Items:       []core.ShoppingItem{{ID: "s1", Description: "Chair", Priority: core.PriorityHigh, EstimatedPrice: &price, Deadline: "2024-03-01", CreatedAt: fixedNow, UpdatedAt: fixedNow}},
		LastUpdated: fixedNow,
	}))
	last := fixedNow.Add(-time.Hour)
	require.NoError(t, src.SaveSettings(ctx, core.AppSettings{DriveEnabled: true, NotificationsEnabled: true, NotificationTime: "08:30", LastSync: &last, AutoSync: true}))

	exported, err := src.ExportAll(ctx)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(exported, &doc))
	for _, k := range []string{"financialData", "shoppingList", "settings", "exportedAt"} {
		assert.Contains(t, doc, k)
	}

	dst := newTestAccessor(NewMemoryMedium())
	res, err := dst.ImportAll(ctx, exported)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01", "2024-02"}, res.Months)
	assert.True(t, res.Shopping)
	assert.True(t, res.Settings)

	reexported, err := dst.ExportAll(ctx)
	require.NoError(t, err)

	var before, after map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(exported, &before))
	require.NoError(t, json.Unmarshal(reexported, &after))
	for _, k := range []string{"financialData", "shoppingList", "settings"} {
		assert.JSONEq(t, string(before[k]), string(after[k]), "section %s", k)
	}
}

func TestImportRejectsMalformed(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"not json":        "{oops",
		"no sections":     `{"foo": 1}`,
		"null sections":   `{"financialData": null, "shoppingList": null, "settings": null}`,
		"bad financial":   `{"financialData": [1,2,3]}`,
		"bad month key":   `{"financialData": {"2024-1": {"month": "2024-1"}}}`,
		"bad settings":    `{"financialData": {}, "settings": "yes"}`,
		"top level array": `[]`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			m := NewMemoryMedium()
			a := newTestAccessor(m)
			_, err := a.ImportAll(ctx, []byte(payload))
			assert.ErrorIs(t, err, ErrMalformedImport)
			assert.Empty(t, a.ListMonths(ctx), "nothing may be written")
			keys, _ := m.ListKeys(ctx, KindSettings)
			assert.Empty(t, keys)
		})
	}
}

func TestImportPartialSections(t *testing.T) {
	ctx := context.Background()
	a := newTestAccessor(NewMemoryMedium())
	require.NoError(t, a.SaveMonth(ctx, sampleRecord("2024-01")))

	res, err := a.ImportAll(ctx, []byte(`{"settings": {"notificationTime": "07:15", "autoSync": true}}`))
	require.NoError(t, err)
	assert.Empty(t, res.Months)
	assert.False(t, res.Shopping)
	assert.True(t, res.Settings)

	s := a.GetSettings(ctx)
	assert.Equal(t, "07:15", s.NotificationTime)
	assert.True(t, s.AutoSync)
	assert.Equal(t, []string{"2024-01"}, a.ListMonths(ctx), "untouched sections stay as they were")
}

func TestImportUsesMapKeyWhenMonthMissing(t *testing.T) {
	ctx := context.Background()
	a := newTestAccessor(NewMemoryMedium())

	payload := `{"financialData": {"2024-03": {"income": [{"id": "x", "source": "Bonus", "amount": 100}]}}}`
	_, err := a.ImportAll(ctx, []byte(payload))
	require.NoError(t, err)

	r, ok := a.GetMonth(ctx, "2024-03")
	require.True(t, ok)
	assert.Equal(t, "2024-03", r.Month)
	assert.True(t, r.Summary.TotalIncome.Equal(decimal.NewFromInt(100)))
	assert.NotNil(t, r.Expenses)
}
