package core

import "time"

// DueToday returns the pending expenses whose deadline is the calendar day of now.
func DueToday(expenses []ExpenseEntry, now time.Time) []ExpenseEntry {
	today := startOfDay(now)
	var out []ExpenseEntry
	for _, e := range expenses {
		if e.Status != Pending {
			continue
		}
		if d, ok := ParseDeadline(e.Deadline); ok && d.Equal(today) {
			out = append(out, e)
		}
	}
	return out
}

// Overdue returns the pending expenses whose deadline is before today.
func Overdue(expenses []ExpenseEntry, now time.Time) []ExpenseEntry {
	today := startOfDay(now)
	var out []ExpenseEntry
	for _, e := range expenses {
		if e.Status != Pending {
			continue
		}
		if d, ok := ParseDeadline(e.Deadline); ok && d.Before(today) {
			out = append(out, e)
		}
	}
	return out
}

// Reminders groups the two lists for one month.
type Reminders struct {
	Month    string         `json:"month"`
	DueToday []ExpenseEntry `json:"dueToday"`
	Overdue  []ExpenseEntry `json:"overdue"`
}

// IsEmpty reports whether nothing needs attention.
func (r Reminders) IsEmpty() bool {
	return len(r.DueToday) == 0 && len(r.Overdue) == 0
}

// BuildReminders collects the due-today and overdue expenses of a record.
func BuildReminders(r MonthlyRecord, now time.Time) Reminders {
	return Reminders{
		Month:    r.Month,
		DueToday: orEmpty(DueToday(r.Expenses, now)),
		Overdue:  orEmpty(Overdue(r.Expenses, now)),
	}
}

func orEmpty(in []ExpenseEntry) []ExpenseEntry {
	if in == nil {
		return []ExpenseEntry{}
	}
	return in
}
