package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	applog "financitos/internal/log"
)

const RateSourceManual = "manual"

// InterestRate is an annual reference rate in percent.
type InterestRate struct {
	Date   string          `json:"date"` // yyyy-mm-dd
	Value  decimal.Decimal `json:"value"`
	Source string          `json:"source"`
}

type RatesData struct {
	CDI   InterestRate `json:"cdi"`
	SELIC InterestRate `json:"selic"`
}

// RatesInfo describes where the current reference values came from.
type RatesInfo struct {
	LastUpdate string `json:"lastUpdate"`
	Source     string `json:"source"`
}

// RatesService serves the CDI and SELIC reference rates used as default
// investment rate hints. Values are maintained manually.
type RatesService struct {
	mu         sync.RWMutex
	cdi        decimal.Decimal
	selic      decimal.Decimal
	lastUpdate string
	now        func() time.Time
}

func NewRatesService(now func() time.Time) *RatesService {
	if now == nil {
		now = time.Now
	}
	return &RatesService{
		cdi:        decimal.RequireFromString("10.65"),
		selic:      decimal.RequireFromString("10.75"),
		lastUpdate: "2024-12-20",
		now:        now,
	}
}

func (s *RatesService) All(_ context.Context) RatesData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	today := s.now().UTC().Format("2006-01-02")
	return RatesData{
		CDI:   InterestRate{Date: today, Value: s.cdi, Source: RateSourceManual},
		SELIC: InterestRate{Date: today, Value: s.selic, Source: RateSourceManual},
	}
}

func (s *RatesService) CDI(ctx context.Context) InterestRate { return s.All(ctx).CDI }

func (s *RatesService) SELIC(ctx context.Context) InterestRate { return s.All(ctx).SELIC }

// SetManual replaces both reference values.
func (s *RatesService) SetManual(ctx context.Context, cdi, selic decimal.Decimal) {
	s.mu.Lock()
	s.cdi = cdi
	s.selic = selic
	s.lastUpdate = s.now().UTC().Format("2006-01-02")
	s.mu.Unlock()

	slog.InfoContext(ctx, "Reference rates updated",
		applog.FieldComponent, applog.ComponentRates, "cdi", cdi.String(), "selic", selic.String())
}

func (s *RatesService) Info() RatesInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return RatesInfo{LastUpdate: s.lastUpdate, Source: RateSourceManual}
}
