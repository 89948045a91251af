package core

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// InvestmentGrowth returns current minus previous. A missing previous value
// means the position was never updated and the growth is zero; a present
// zero is a real baseline.
func InvestmentGrowth(current decimal.Decimal, previous *decimal.Decimal) decimal.Decimal {
	if previous == nil {
		return decimal.Zero
	}
	return current.Sub(*previous)
}

// InvestmentProjection applies rate (a percentage) once to current.
func InvestmentProjection(current, rate decimal.Decimal) decimal.Decimal {
	return current.Add(current.Mul(rate).Div(hundred))
}

// UpsertInvestment records a new value for the (kind, institution) pair.
// When the pair already exists its current value becomes the previous one
// and growth is derived from the difference; otherwise a fresh entry is
// appended with the supplied id. The returned entry is the stored one.
func UpsertInvestment(list []InvestmentEntry, in InvestmentEntry, id string, now time.Time) ([]InvestmentEntry, InvestmentEntry) {
	for i, existing := range list {
		if existing.Kind != in.Kind || existing.Institution != in.Institution {
			continue
		}
		prev := existing.CurrentValue
		updated := existing
		updated.PreviousValue = &prev
		updated.CurrentValue = in.CurrentValue
		updated.Rate = in.Rate
		updated.Growth = InvestmentGrowth(in.CurrentValue, &prev)
		updated.Projection = InvestmentProjection(in.CurrentValue, in.Rate)
		updated.UpdatedAt = now

		out := make([]InvestmentEntry, len(list))
		copy(out, list)
		out[i] = updated
		return out, updated
	}

	entry := InvestmentEntry{
		ID:           id,
		Kind:         in.Kind,
		Institution:  in.Institution,
		CurrentValue: in.CurrentValue,
		Growth:       decimal.Zero,
		Rate:         in.Rate,
		Projection:   InvestmentProjection(in.CurrentValue, in.Rate),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return append(append([]InvestmentEntry{}, list...), entry), entry
}

// HasInvestment reports whether an entry other than exceptID already holds
// the (kind, institution) pair.
func HasInvestment(list []InvestmentEntry, kind InvestmentKind, institution, exceptID string) bool {
	for _, e := range list {
		if e.ID != exceptID && e.Kind == kind && e.Institution == institution {
			return true
		}
	}
	return false
}

// Recalculate refreshes growth and projection after a direct edit.
func (e *InvestmentEntry) Recalculate() {
	e.Growth = InvestmentGrowth(e.CurrentValue, e.PreviousValue)
	e.Projection = InvestmentProjection(e.CurrentValue, e.Rate)
}
