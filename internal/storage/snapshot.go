package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"financitos/internal/core"
	applog "financitos/internal/log"
)

// ErrMalformedImport rejects payloads that are not JSON, carry none of the
// known sections, or have a section that does not decode.
var ErrMalformedImport = errors.New("malformed import")

// Snapshot is the backup document. Its JSON shape is the export file format.
type Snapshot struct {
	FinancialData map[string]core.MonthlyRecord `json:"financialData"`
	ShoppingList  core.ShoppingList             `json:"shoppingList"`
	Settings      core.AppSettings              `json:"settings"`
	ExportedAt    time.Time                     `json:"exportedAt"`
}

// ImportResult reports which sections an import wrote.
type ImportResult struct {
	Months   []string `json:"months"`
	Shopping bool     `json:"shopping"`
	Settings bool     `json:"settings"`
}

// Export collects every stored record into a Snapshot.
func (a *Accessor) Export(ctx context.Context) Snapshot {
	snap := Snapshot{
		FinancialData: make(map[string]core.MonthlyRecord),
		ShoppingList:  a.GetShopping(ctx),
		Settings:      a.GetSettings(ctx),
		ExportedAt:    a.now().UTC(),
	}
	for _, month := range a.ListMonths(ctx) {
		if r, ok := a.GetMonth(ctx, month); ok {
			snap.FinancialData[month] = r
		}
	}
	return snap
}

// ExportAll serializes the full snapshot as indented JSON.
func (a *Accessor) ExportAll(ctx context.Context) ([]byte, error) {
	data, err := json.MarshalIndent(a.Export(ctx), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

type importDocument struct {
	FinancialData json.RawMessage `json:"financialData"`
	ShoppingList  json.RawMessage `json:"shoppingList"`
	Settings      json.RawMessage `json:"settings"`
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// ImportAll restores a backup produced by ExportAll. Every present section
// is decoded before anything is written, so a malformed payload writes
// nothing. Sections are then written one at a time without rollback:
// financial records first, then the shopping list, then the settings.
// Financial records are stored under their own month, falling back to the
// map key, and their summaries are recomputed.
func (a *Accessor) ImportAll(ctx context.Context, data []byte) (ImportResult, error) {
	result := ImportResult{Months: []string{}}

	var doc importDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return result, fmt.Errorf("%w: invalid JSON: %w", ErrMalformedImport, err)
	}

	hasFinancial := present(doc.FinancialData)
	hasShopping := present(doc.ShoppingList)
	hasSettings := present(doc.Settings)
	if !hasFinancial && !hasShopping && !hasSettings {
		return result, fmt.Errorf("%w: not a valid backup", ErrMalformedImport)
	}

	var (
		months   map[string]core.MonthlyRecord
		shopping core.ShoppingList
		settings = core.DefaultSettings()
	)
	if hasFinancial {
		if err := json.Unmarshal(doc.FinancialData, &months); err != nil {
			return result, fmt.Errorf("%w: financialData: %w", ErrMalformedImport, err)
		}
		for key, r := range months {
			if r.Month == "" {
				r.Month = key
			}
			if _, _, err := core.ParseMonthKey(r.Month); err != nil {
				return result, fmt.Errorf("%w: financialData: %w", ErrMalformedImport, err)
			}
			months[key] = r
		}
	}
	if hasShopping {
		if err := json.Unmarshal(doc.ShoppingList, &shopping); err != nil {
			return result, fmt.Errorf("%w: shoppingList: %w", ErrMalformedImport, err)
		}
	}
	if hasSettings {
		if err := json.Unmarshal(doc.Settings, &settings); err != nil {
			return result, fmt.Errorf("%w: settings: %w", ErrMalformedImport, err)
		}
	}

	for _, key := range sortedKeys(months) {
		r := months[key]
		if err := a.SaveMonth(ctx, r); err != nil {
			return result, err
		}
		result.Months = append(result.Months, r.Month)
	}
	if hasShopping {
		if err := a.SaveShopping(ctx, shopping); err != nil {
			return result, err
		}
		result.Shopping = true
	}
	if hasSettings {
		if err := a.SaveSettings(ctx, settings); err != nil {
			return result, err
		}
		result.Settings = true
	}

	fields := applog.NewFields().WithOperation(applog.OpImport).ToSlice()
	a.logger.InfoContext(ctx, "Backup imported",
		append(fields,
			"months", len(result.Months),
			"shopping", result.Shopping,
			"settings", result.Settings,
		)...)
	return result, nil
}

func sortedKeys(m map[string]core.MonthlyRecord) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
