package core

import "github.com/shopspring/decimal"

// Summary holds the totals derived from a month's entries. It is never
// edited directly: Recompute rebuilds it from the raw collections.
type Summary struct {
	TotalIncome      decimal.Decimal `json:"totalIncome"`
	TotalExpenses    decimal.Decimal `json:"totalExpenses"`
	RecurringTotal   decimal.Decimal `json:"recurringTotal"`
	OneTimeTotal     decimal.Decimal `json:"oneTimeTotal"`
	TotalInvestments decimal.Decimal `json:"totalInvestments"`
	SavingsTotal     decimal.Decimal `json:"savingsTotal"`
	CDITotal         decimal.Decimal `json:"cdiTotal"`
	NetBalance       decimal.Decimal `json:"netBalance"`
}

// Recompute reduces the three collections into a fresh Summary.
func Recompute(income []IncomeEntry, expenses []ExpenseEntry, investments []InvestmentEntry) Summary {
	var s Summary
	s.TotalIncome = decimal.Zero
	s.TotalExpenses = decimal.Zero
	s.RecurringTotal = decimal.Zero
	s.OneTimeTotal = decimal.Zero
	s.TotalInvestments = decimal.Zero
	s.SavingsTotal = decimal.Zero
	s.CDITotal = decimal.Zero

	for _, in := range income {
		s.TotalIncome = s.TotalIncome.Add(in.Amount)
	}

	for _, e := range expenses {
		s.TotalExpenses = s.TotalExpenses.Add(e.Amount)
		switch e.Kind {
		case Recurring:
			s.RecurringTotal = s.RecurringTotal.Add(e.Amount)
		case OneTime:
			s.OneTimeTotal = s.OneTimeTotal.Add(e.Amount)
		}
	}

	for _, inv := range investments {
		s.TotalInvestments = s.TotalInvestments.Add(inv.CurrentValue)
		switch inv.Kind {
		case Savings:
			s.SavingsTotal = s.SavingsTotal.Add(inv.CurrentValue)
		case CDI:
			s.CDITotal = s.CDITotal.Add(inv.CurrentValue)
		}
	}

	s.NetBalance = s.TotalIncome.Sub(s.TotalExpenses)
	return s
}
