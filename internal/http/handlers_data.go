package http

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"financitos/internal/core"
	"financitos/internal/remote"
	"financitos/internal/services"
)

// GET /api/settings
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Settings.Get(r.Context()))
}

// PUT /api/settings
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	settings, err := s.svc.Settings.Update(r.Context(), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// GET /api/export
// Served as a download named like the Drive backups.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.svc.Backup.ExportJSON(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", remote.BackupFileName(s.now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// POST /api/import
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: read body: %w", errBadRequest, err))
		return
	}
	if len(data) > maxBodyBytes {
		ErrorResponse(http.StatusRequestEntityTooLarge, "import payload too large").Write(w)
		return
	}
	res, err := s.svc.Backup.Import(r.Context(), data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// DELETE /api/data
func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Backup.ClearAll(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}

// POST /api/sync
// With ?wait=true the upload runs inline; otherwise it is handed to the
// worker when a queue is configured.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))

	var (
		res services.SyncResult
		err error
	)
	if wait {
		res, err = s.svc.Backup.Sync(r.Context())
	} else {
		res, err = s.svc.Backup.RequestSync(r.Context(), "manual")
	}
	if err != nil {
		NewJSONResponse().Status(statusFor(err)).Body(res).Write(w)
		return
	}

	status := http.StatusOK
	if res.Queued {
		status = http.StatusAccepted
	}
	writeJSON(w, status, res)
}

type ratesResponse struct {
	Rates     services.RatesData `json:"rates"`
	Info      services.RatesInfo `json:"info"`
	Formatted map[string]string  `json:"formatted"`
}

// GET /api/rates
func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	rates := s.svc.Rates.All(r.Context())
	writeJSON(w, http.StatusOK, ratesResponse{
		Rates: rates,
		Info:  s.svc.Rates.Info(),
		Formatted: map[string]string{
			"cdi":   core.FormatPercentage(rates.CDI.Value),
			"selic": core.FormatPercentage(rates.SELIC.Value),
		},
	})
}

// PUT /api/rates
func (s *Server) handleSetRates(w http.ResponseWriter, r *http.Request) {
	var req ratesRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.CDI.IsNegative() || req.SELIC.IsNegative() {
		writeError(w, r, fmt.Errorf("%w: rates must not be negative", errBadRequest))
		return
	}
	s.svc.Rates.SetManual(r.Context(), *req.CDI, *req.SELIC)
	s.handleRates(w, r)
}
