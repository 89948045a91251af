package services

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financitos/internal/core"
	"financitos/internal/storage"
)

func seedMonth(t *testing.T, store *storage.Accessor, month string, expenses ...core.ExpenseEntry) {
	t.Helper()
	r := core.NewMonthlyRecord(month)
	r.Expenses = expenses
	require.NoError(t, store.SaveMonth(context.Background(), r))
}

func TestLoadMonthCopiesRecurringOnly(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(storage.NewMemoryMedium())
	seedMonth(t, store, "2024-01",
		expense("rent", core.Recurring, core.Paid, "30/01/2024", "1200"),
		expense("gym", core.Recurring, core.Pending, "05/01/2024", "100"),
		expense("shoes", core.OneTime, core.Pending, "20/01/2024", "350"),
	)
	svc := NewMonthService(store, testOptions())

	rec, copied := svc.LoadMonth(ctx, "2024-02")
	require.True(t, copied)
	require.Len(t, rec.Expenses, 2)

	for _, e := range rec.Expenses {
		assert.Equal(t, core.Recurring, e.Kind)
		assert.Equal(t, core.Pending, e.Status)
		assert.NotEqual(t, "rent", e.ID)
		assert.NotEqual(t, "gym", e.ID)
		assert.Equal(t, fixedNow, e.CreatedAt)
		assert.Equal(t, fixedNow, e.UpdatedAt)
		_, ok := core.ParseDeadline(e.Deadline)
		assert.True(t, ok)
		assert.Contains(t, e.Deadline, "/02/2024")
	}
	assert.Equal(t, "29/02/2024", rec.Expenses[0].Deadline, "day 30 clamps to leap-year February")
	assert.Equal(t, "05/02/2024", rec.Expenses[1].Deadline)
	assert.True(t, rec.Summary.TotalExpenses.Equal(dec("1300")))
	assert.True(t, rec.Summary.RecurringTotal.Equal(dec("1300")))
	assert.Empty(t, rec.Income)
	assert.Empty(t, rec.Investments)

	stored, ok := store.GetMonth(ctx, "2024-02")
	require.True(t, ok, "rolled over month is persisted")
	assert.Len(t, stored.Expenses, 2)
}

func TestLoadMonthIsIdempotentForExistingMonth(t *testing.T) {
	ctx := context.Background()
	medium := &countingMedium{Medium: storage.NewMemoryMedium()}
	store := newTestStore(medium)
	seedMonth(t, store, "2024-01", expense("rent", core.Recurring, core.Paid, "10/01/2024", "1200"))
	svc := NewMonthService(store, testOptions())

	first, copied := svc.LoadMonth(ctx, "2024-02")
	require.True(t, copied)
	writes := medium.Writes()

	second, copied := svc.LoadMonth(ctx, "2024-02")
	assert.False(t, copied)
	third, _ := svc.LoadMonth(ctx, "2024-02")

	assert.Equal(t, writes, medium.Writes(), "loading an existing month never writes")
	assert.Equal(t, first.Expenses[0].ID, second.Expenses[0].ID)
	assert.Equal(t, second, third)
}

func TestLoadMonthNoCopyCases(t *testing.T) {
	tests := []struct {
		name string
		seed func(t *testing.T, store *storage.Accessor)
	}{
		{
			name: "no previous month",
			seed: func(*testing.T, *storage.Accessor) {},
		},
		{
			name: "previous month without expenses",
			seed: func(t *testing.T, store *storage.Accessor) { seedMonth(t, store, "2024-01") },
		},
		{
			name: "previous month with one-time expenses only",
			seed: func(t *testing.T, store *storage.Accessor) {
				seedMonth(t, store, "2024-01", expense("shoes", core.OneTime, core.Paid, "20/01/2024", "350"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			medium := &countingMedium{Medium: storage.NewMemoryMedium()}
			store := newTestStore(medium)
			tt.seed(t, store)
			writes := medium.Writes()

			rec, copied := NewMonthService(store, testOptions()).LoadMonth(ctx, "2024-02")

			assert.False(t, copied)
			assert.Equal(t, "2024-02", rec.Month)
			assert.True(t, rec.IsEmpty())
			assert.True(t, rec.Summary.NetBalance.IsZero())
			assert.Equal(t, writes, medium.Writes(), "empty month is not persisted")
			_, ok := store.GetMonth(ctx, "2024-02")
			assert.False(t, ok)
		})
	}
}

func TestLoadMonthYearBoundary(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(storage.NewMemoryMedium())
	seedMonth(t, store, "2023-12", expense("rent", core.Recurring, core.Paid, "31/12/2023", "1200"))

	rec, copied := NewMonthService(store, testOptions()).LoadMonth(ctx, "2024-01")
	require.True(t, copied)
	assert.Equal(t, "31/01/2024", rec.Expenses[0].Deadline)
}

func TestLoadMonthSurvivesBrokenStorage(t *testing.T) {
	svc := NewMonthService(newTestStore(brokenMedium{}), testOptions())

	rec, copied := svc.LoadMonth(context.Background(), "2024-02")
	assert.False(t, copied)
	assert.True(t, rec.IsEmpty())
	assert.Equal(t, "2024-02", rec.Month)
}

func TestLoadMonthInvalidKey(t *testing.T) {
	svc := NewMonthService(newTestStore(storage.NewMemoryMedium()), testOptions())
	rec, copied := svc.LoadMonth(context.Background(), "2024/02")
	assert.False(t, copied)
	assert.True(t, rec.IsEmpty())
}

func TestIncomeAndExpenseMutations(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(storage.NewMemoryMedium())
	svc := NewMonthService(store, testOptions())

	inc, err := svc.AddIncome(ctx, "2024-02", IncomeInput{Source: "Salary", Deadline: "05/02/2024", Amount: dec("6500")})
	require.NoError(t, err)
	rent, err := svc.AddExpense(ctx, "2024-02", ExpenseInput{
		Description: "Rent", Kind: core.Recurring, Deadline: "10/02/2024",
		PaymentMethod: core.InstantTransfer, Amount: dec("1200"),
	})
	require.NoError(t, err)
	assert.Equal(t, core.Pending, rent.Status, "status defaults to pending")
	_, err = svc.AddExpense(ctx, "2024-02", ExpenseInput{
		Description: "Shoes", Kind: core.OneTime, Deadline: "20/02/2024", Status: core.Paid,
		PaymentMethod: core.Credit, Amount: dec("350"),
	})
	require.NoError(t, err)

	sum := svc.Summary(ctx, "2024-02")
	assert.True(t, sum.TotalIncome.Equal(dec("6500")))
	assert.True(t, sum.TotalExpenses.Equal(dec("1550")))
	assert.True(t, sum.OneTimeTotal.Equal(dec("350")))
	assert.True(t, sum.NetBalance.Equal(dec("4950")))

	toggled, err := svc.ToggleExpense(ctx, "2024-02", rent.ID)
	require.NoError(t, err)
	assert.Equal(t, core.Paid, toggled.Status)

	updated, err := svc.UpdateIncome(ctx, "2024-02", inc.ID, IncomeInput{Source: "Salary", Deadline: "06/02/2024", Amount: dec("7000")})
	require.NoError(t, err)
	assert.Equal(t, "06/02/2024", updated.Deadline)
	assert.True(t, svc.Summary(ctx, "2024-02").NetBalance.Equal(dec("5450")))

	require.NoError(t, svc.RemoveExpense(ctx, "2024-02", rent.ID))
	require.NoError(t, svc.RemoveIncome(ctx, "2024-02", inc.ID))
	sum = svc.Summary(ctx, "2024-02")
	assert.True(t, sum.TotalIncome.IsZero())
	assert.True(t, sum.NetBalance.Equal(dec("-350")))
	assert.Equal(t, []string{"2024-02"}, svc.ListMonths(ctx))
}

func TestMutationErrors(t *testing.T) {
	ctx := context.Background()
	svc := NewMonthService(newTestStore(storage.NewMemoryMedium()), testOptions())

	_, err := svc.UpdateIncome(ctx, "2024-02", "missing", IncomeInput{Source: "x", Deadline: "01/02/2024", Amount: dec("1")})
	assert.ErrorIs(t, err, ErrEntryNotFound)
	assert.ErrorIs(t, svc.RemoveExpense(ctx, "2024-02", "missing"), ErrEntryNotFound)
	_, err = svc.ToggleExpense(ctx, "2024-02", "missing")
	assert.ErrorIs(t, err, ErrEntryNotFound)
	assert.ErrorIs(t, svc.RemoveInvestment(ctx, "2024-02", "missing"), ErrEntryNotFound)

	_, err = svc.AddIncome(ctx, "2024-02", IncomeInput{Source: "", Deadline: "01/02/2024", Amount: dec("1")})
	assert.ErrorIs(t, err, core.ErrEmptySource)
	_, err = svc.AddExpense(ctx, "2024-02", ExpenseInput{Description: "x", Kind: "Weekly", Deadline: "01/02/2024", PaymentMethod: core.Cash, Amount: dec("1")})
	assert.ErrorIs(t, err, core.ErrInvalidKind)
	_, err = svc.AddIncome(ctx, "02-2024", IncomeInput{Source: "x", Deadline: "01/02/2024", Amount: dec("1")})
	assert.ErrorIs(t, err, core.ErrInvalidMonthKey)

	assert.Empty(t, svc.ListMonths(ctx), "failed mutations write nothing")
}

func TestMutationReportsStorageFailure(t *testing.T) {
	svc := NewMonthService(newTestStore(brokenMedium{}), testOptions())
	_, err := svc.AddIncome(context.Background(), "2024-02", IncomeInput{Source: "Salary", Deadline: "05/02/2024", Amount: dec("10")})
	assert.ErrorIs(t, err, storage.ErrStorageUnavailable)
}

func TestMutationOnUnseenMonthRunsRollover(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(storage.NewMemoryMedium())
	seedMonth(t, store, "2024-01", expense("rent", core.Recurring, core.Paid, "10/01/2024", "1200"))
	svc := NewMonthService(store, testOptions())

	_, err := svc.AddIncome(ctx, "2024-02", IncomeInput{Source: "Salary", Deadline: "05/02/2024", Amount: dec("6500")})
	require.NoError(t, err)

	rec, _ := svc.LoadMonth(ctx, "2024-02")
	assert.Len(t, rec.Expenses, 1)
	assert.Len(t, rec.Income, 1)
	assert.True(t, rec.Summary.NetBalance.Equal(dec("5300")))
}

func TestInvestmentUpsert(t *testing.T) {
	ctx := context.Background()
	svc := NewMonthService(newTestStore(storage.NewMemoryMedium()), testOptions())

	first, err := svc.UpsertInvestment(ctx, "2024-02", InvestmentInput{Kind: core.CDI, Institution: "Nubank", CurrentValue: dec("1000"), Rate: dec("10")})
	require.NoError(t, err)
	assert.Nil(t, first.PreviousValue)
	assert.True(t, first.Growth.IsZero())
	assert.True(t, first.Projection.Equal(dec("1100")))

	second, err := svc.UpsertInvestment(ctx, "2024-02", InvestmentInput{Kind: core.CDI, Institution: "Nubank", CurrentValue: dec("1200"), Rate: dec("10")})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.PreviousValue)
	assert.True(t, second.PreviousValue.Equal(dec("1000")))
	assert.True(t, second.Growth.Equal(dec("200")))

	_, err = svc.UpsertInvestment(ctx, "2024-02", InvestmentInput{Kind: core.Savings, Institution: "Nubank", CurrentValue: dec("300"), Rate: dec("6")})
	require.NoError(t, err)

	rec, _ := svc.LoadMonth(ctx, "2024-02")
	require.Len(t, rec.Investments, 2)
	assert.True(t, rec.Summary.TotalInvestments.Equal(dec("1500")))
	assert.True(t, rec.Summary.CDITotal.Equal(dec("1200")))
	assert.True(t, rec.Summary.SavingsTotal.Equal(dec("300")))

	edited, err := svc.UpdateInvestment(ctx, "2024-02", first.ID, InvestmentInput{Kind: core.CDI, Institution: "Nubank", CurrentValue: dec("1250"), Rate: dec("10")})
	require.NoError(t, err)
	assert.True(t, edited.Growth.Equal(dec("250")), "previous value is kept on direct edit")

	require.NoError(t, svc.RemoveInvestment(ctx, "2024-02", first.ID))
	assert.True(t, svc.Summary(ctx, "2024-02").TotalInvestments.Equal(dec("300")))
}

func TestUpdateInvestmentRejectsDuplicatePair(t *testing.T) {
	ctx := context.Background()
	svc := NewMonthService(newTestStore(storage.NewMemoryMedium()), testOptions())

	_, err := svc.UpsertInvestment(ctx, "2024-02", InvestmentInput{Kind: core.CDI, Institution: "Nubank", CurrentValue: dec("1000"), Rate: dec("10")})
	require.NoError(t, err)
	inter, err := svc.UpsertInvestment(ctx, "2024-02", InvestmentInput{Kind: core.CDI, Institution: "Inter", CurrentValue: dec("500"), Rate: dec("10")})
	require.NoError(t, err)

	_, err = svc.UpdateInvestment(ctx, "2024-02", inter.ID, InvestmentInput{Kind: core.CDI, Institution: "Nubank", CurrentValue: dec("500"), Rate: dec("10")})
	assert.ErrorIs(t, err, core.ErrDuplicateInvestment)

	rec, _ := svc.LoadMonth(ctx, "2024-02")
	require.Len(t, rec.Investments, 2)
	assert.Equal(t, "Inter", rec.Investments[1].Institution)

	_, err = svc.UpdateInvestment(ctx, "2024-02", inter.ID, InvestmentInput{Kind: core.Savings, Institution: "Nubank", CurrentValue: dec("500"), Rate: dec("6")})
	assert.NoError(t, err, "a different kind at the same institution is a distinct pair")
}

func TestRemindersAndDeleteMonth(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(storage.NewMemoryMedium())
	seedMonth(t, store, "2024-02",
		expense("due", core.OneTime, core.Pending, "10/02/2024", "10"),
		expense("late", core.OneTime, core.Pending, "01/02/2024", "20"),
		expense("paid", core.OneTime, core.Paid, "01/02/2024", "30"),
	)
	svc := NewMonthService(store, testOptions())

	rem := svc.Reminders(ctx, "2024-02")
	require.Len(t, rem.DueToday, 1)
	require.Len(t, rem.Overdue, 1)
	assert.Equal(t, "due", rem.DueToday[0].ID)
	assert.Equal(t, "late", rem.Overdue[0].ID)

	require.NoError(t, svc.DeleteMonth(ctx, "2024-02"))
	assert.Empty(t, svc.ListMonths(ctx))
	assert.ErrorIs(t, svc.DeleteMonth(ctx, "bad"), core.ErrInvalidMonthKey)
}

func TestRemindersUseConfiguredLocation(t *testing.T) {
	saoPaulo, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	// 00:30 UTC on the 11th is still the evening of the 10th in Sao Paulo.
	evening := time.Date(2024, 3, 10, 21, 30, 0, 0, saoPaulo)

	ctx := context.Background()
	store := newTestStore(storage.NewMemoryMedium())
	seedMonth(t, store, "2024-03", expense("rent", core.OneTime, core.Pending, "10/03/2024", "100"))

	local := NewMonthService(store, Options{Now: func() time.Time { return evening }, Location: saoPaulo})
	rem := local.Reminders(ctx, "2024-03")
	assert.Len(t, rem.DueToday, 1)
	assert.Empty(t, rem.Overdue)

	utc := NewMonthService(store, Options{Now: func() time.Time { return evening }})
	rem = utc.Reminders(ctx, "2024-03")
	assert.Empty(t, rem.DueToday)
	assert.Len(t, rem.Overdue, 1)
}

func TestAmountsAreStoredInCentavos(t *testing.T) {
	ctx := context.Background()
	svc := NewMonthService(newTestStore(storage.NewMemoryMedium()), testOptions())

	inc, err := svc.AddIncome(ctx, "2024-02", IncomeInput{Source: "Salary", Amount: dec("1.005")})
	require.NoError(t, err)
	assert.Equal(t, "1.01", inc.Amount.String())

	exp, err := svc.AddExpense(ctx, "2024-02", ExpenseInput{
		Description: "Coffee", Kind: core.OneTime, PaymentMethod: core.Cash, Amount: dec("10.004"),
	})
	require.NoError(t, err)
	assert.Equal(t, "10", exp.Amount.String())

	inv, err := svc.UpsertInvestment(ctx, "2024-02", InvestmentInput{Kind: core.Savings, Institution: "Caixa", CurrentValue: dec("99.999")})
	require.NoError(t, err)
	assert.Equal(t, "100", inv.CurrentValue.String())

	rec, _ := svc.LoadMonth(ctx, "2024-02")
	assert.Equal(t, "-8.99", rec.Summary.NetBalance.String())
}
