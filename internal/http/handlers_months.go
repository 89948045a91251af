package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"financitos/internal/core"
)

type monthResponse struct {
	Record          core.MonthlyRecord `json:"record"`
	Label           string             `json:"label"`
	ShortLabel      string             `json:"shortLabel"`
	Previous        string             `json:"previous"`
	Next            string             `json:"next"`
	RecurringCopied bool               `json:"recurringCopied"`
}

// investmentResponse adds the display form of the rate to a position.
type investmentResponse struct {
	core.InvestmentEntry
	RateLabel string `json:"rateLabel"`
}

func newInvestmentResponse(e core.InvestmentEntry) investmentResponse {
	return investmentResponse{InvestmentEntry: e, RateLabel: core.FormatPercentage(e.Rate)}
}

type summaryResponse struct {
	Month     string            `json:"month"`
	Label     string            `json:"label"`
	Summary   core.Summary      `json:"summary"`
	Formatted map[string]string `json:"formatted"`
}

// GET /api/months
func (s *Server) handleListMonths(w http.ResponseWriter, r *http.Request) {
	months := s.svc.Months.ListMonths(r.Context())
	if months == nil {
		months = []string{}
	}
	writeJSON(w, http.StatusOK, months)
}

// GET /api/months/{month}
func (s *Server) handleGetMonth(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	record, copied := s.svc.Months.LoadMonth(r.Context(), month)
	// month is validated, so neither neighbour can fail.
	prev, _ := core.PreviousMonthKey(month)
	next, _ := core.NextMonthKey(month)
	writeJSON(w, http.StatusOK, monthResponse{
		Record:          record.ForDisplay(),
		Label:           core.MonthLabel(month),
		ShortLabel:      core.MonthLabelShort(month),
		Previous:        prev,
		Next:            next,
		RecurringCopied: copied,
	})
}

// DELETE /api/months/{month}
func (s *Server) handleDeleteMonth(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Months.DeleteMonth(r.Context(), month); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}

// GET /api/months/{month}/summary
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sum := s.svc.Months.Summary(r.Context(), month)
	writeJSON(w, http.StatusOK, summaryResponse{
		Month:   month,
		Label:   core.MonthLabel(month),
		Summary: sum,
		Formatted: map[string]string{
			"totalIncome":      core.FormatBRL(sum.TotalIncome),
			"totalExpenses":    core.FormatBRL(sum.TotalExpenses),
			"recurringTotal":   core.FormatBRL(sum.RecurringTotal),
			"oneTimeTotal":     core.FormatBRL(sum.OneTimeTotal),
			"totalInvestments": core.FormatBRL(sum.TotalInvestments),
			"savingsTotal":     core.FormatBRL(sum.SavingsTotal),
			"cdiTotal":         core.FormatBRL(sum.CDITotal),
			"netBalance":       core.FormatBRL(sum.NetBalance),
		},
	})
}

// GET /api/months/{month}/reminders
func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Months.Reminders(r.Context(), month))
}

// POST /api/months/{month}/income
func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req incomeRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := s.svc.Months.AddIncome(r.Context(), month, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// PUT /api/months/{month}/income/{id}
func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req incomeRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := s.svc.Months.UpdateIncome(r.Context(), month, chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// DELETE /api/months/{month}/income/{id}
func (s *Server) handleRemoveIncome(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Months.RemoveIncome(r.Context(), month, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}

// POST /api/months/{month}/expenses
func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req expenseRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := s.svc.Months.AddExpense(r.Context(), month, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// PUT /api/months/{month}/expenses/{id}
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req expenseRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := s.svc.Months.UpdateExpense(r.Context(), month, chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// POST /api/months/{month}/expenses/{id}/toggle
func (s *Server) handleToggleExpense(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := s.svc.Months.ToggleExpense(r.Context(), month, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// DELETE /api/months/{month}/expenses/{id}
func (s *Server) handleRemoveExpense(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Months.RemoveExpense(r.Context(), month, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}

// POST /api/months/{month}/investments
// Upserts by (kind, institution).
func (s *Server) handleUpsertInvestment(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req investmentRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := s.svc.Months.UpsertInvestment(r.Context(), month, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newInvestmentResponse(entry))
}

// PUT /api/months/{month}/investments/{id}
func (s *Server) handleUpdateInvestment(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req investmentRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := s.svc.Months.UpdateInvestment(r.Context(), month, chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newInvestmentResponse(entry))
}

// DELETE /api/months/{month}/investments/{id}
func (s *Server) handleRemoveInvestment(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Months.RemoveInvestment(r.Context(), month, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}
