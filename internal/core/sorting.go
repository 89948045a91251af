package core

import (
	"slices"
	"time"
)

// SortByDeadline orders entries by their dd/mm/yyyy deadline, earliest
// first. Entries with a missing or malformed deadline go last. The input is
// not modified.
func SortByDeadline[T any](items []T, deadline func(T) string) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		ta, okA := ParseDeadline(deadline(a))
		tb, okB := ParseDeadline(deadline(b))
		switch {
		case !okA && !okB:
			return 0
		case !okA:
			return 1
		case !okB:
			return -1
		}
		return ta.Compare(tb)
	})
	return out
}

// SortByCreatedAt orders entries by creation time, oldest first. Zero
// timestamps go last.
func SortByCreatedAt[T any](items []T, createdAt func(T) time.Time) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		ta, tb := createdAt(a), createdAt(b)
		switch {
		case ta.IsZero() && tb.IsZero():
			return 0
		case ta.IsZero():
			return 1
		case tb.IsZero():
			return -1
		}
		return ta.Compare(tb)
	})
	return out
}

// ExpensesByDeadline is the ordering used for the month view. Entries
// sharing a deadline keep creation order.
func ExpensesByDeadline(expenses []ExpenseEntry) []ExpenseEntry {
	byCreation := SortByCreatedAt(expenses, func(e ExpenseEntry) time.Time { return e.CreatedAt })
	return SortByDeadline(byCreation, func(e ExpenseEntry) string { return e.Deadline })
}

func IncomeByDeadline(income []IncomeEntry) []IncomeEntry {
	byCreation := SortByCreatedAt(income, func(e IncomeEntry) time.Time { return e.CreatedAt })
	return SortByDeadline(byCreation, func(e IncomeEntry) string { return e.Deadline })
}

// ForDisplay returns a copy of r with income and expenses in view order.
func (r MonthlyRecord) ForDisplay() MonthlyRecord {
	r.Income = IncomeByDeadline(r.Income)
	r.Expenses = ExpensesByDeadline(r.Expenses)
	return r
}

// SortShoppingItems orders by priority (High first), then items with a
// deadline before items without one, then by the closest deadline.
func SortShoppingItems(items []ShoppingItem) []ShoppingItem {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b ShoppingItem) int {
		if ra, rb := a.Priority.rank(), b.Priority.rank(); ra != rb {
			return ra - rb
		}
		switch {
		case a.Deadline != "" && b.Deadline != "":
			ta, errA := time.Parse(ISODateLayout, a.Deadline)
			tb, errB := time.Parse(ISODateLayout, b.Deadline)
			if errA != nil || errB != nil {
				return 0
			}
			return ta.Compare(tb)
		case a.Deadline != "":
			return -1
		case b.Deadline != "":
			return 1
		}
		return 0
	})
	return out
}
