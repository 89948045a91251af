package core

import "time"

// CarryRecurring builds the seed for targetMonth from the previous month's
// record: only recurring expenses are copied, each with a fresh id, a
// pending status, timestamps set to now and its deadline moved into the
// target month. The result is empty when nothing qualifies.
func CarryRecurring(prev MonthlyRecord, targetMonth string, now time.Time, newID func() string) MonthlyRecord {
	next := NewMonthlyRecord(targetMonth)
	for _, e := range prev.Expenses {
		if e.Kind != Recurring {
			continue
		}
		e.ID = newID()
		e.Status = Pending
		e.Deadline = AdjustDeadline(e.Deadline, targetMonth)
		e.CreatedAt = now
		e.UpdatedAt = now
		next.Expenses = append(next.Expenses, e)
	}
	next.Refresh()
	return next
}
