package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Recurring ExpenseKind = "Recurring"
	OneTime   ExpenseKind = "OneTime"

	Paid    ExpenseStatus = "Paid"
	Pending ExpenseStatus = "Pending"

	Credit          PaymentMethod = "Credit"
	Debit           PaymentMethod = "Debit"
	InstantTransfer PaymentMethod = "InstantTransfer"
	Cash            PaymentMethod = "Cash"

	Savings InvestmentKind = "Savings"
	CDI     InvestmentKind = "CDI"
)

type (
	ExpenseKind    string
	ExpenseStatus  string
	PaymentMethod  string
	InvestmentKind string

	IncomeEntry struct {
		ID        string          `json:"id"`
		Source    string          `json:"source"`
		Deadline  string          `json:"deadline"` // dd/mm/yyyy
		Amount    decimal.Decimal `json:"amount"`
		CreatedAt time.Time       `json:"createdAt"`
		UpdatedAt time.Time       `json:"updatedAt"`
	}

	ExpenseEntry struct {
		ID            string          `json:"id"`
		Description   string          `json:"description"`
		Kind          ExpenseKind     `json:"kind"`
		Deadline      string          `json:"deadline"` // dd/mm/yyyy
		Status        ExpenseStatus   `json:"status"`
		PaymentMethod PaymentMethod   `json:"paymentMethod"`
		Amount        decimal.Decimal `json:"amount"`
		CreatedAt     time.Time       `json:"createdAt"`
		UpdatedAt     time.Time       `json:"updatedAt"`
	}

	InvestmentEntry struct {
		ID           string          `json:"id"`
		Kind         InvestmentKind  `json:"kind"`
		Institution  string          `json:"institution"`
		CurrentValue decimal.Decimal `json:"currentValue"`
		// PreviousValue is nil until the same (kind, institution) pair is updated.
		PreviousValue *decimal.Decimal `json:"previousValue,omitempty"`
		Growth        decimal.Decimal  `json:"growth"`
		Rate          decimal.Decimal  `json:"rate"` // percent
		Projection    decimal.Decimal  `json:"projection"`
		CreatedAt     time.Time        `json:"createdAt"`
		UpdatedAt     time.Time        `json:"updatedAt"`
	}

	// MonthlyRecord owns every entry of one month plus the derived Summary.
	MonthlyRecord struct {
		Month       string            `json:"month"` // YYYY-MM
		Income      []IncomeEntry     `json:"income"`
		Expenses    []ExpenseEntry    `json:"expenses"`
		Investments []InvestmentEntry `json:"investments"`
		Summary     Summary           `json:"summary"`
	}

	AppSettings struct {
		DriveEnabled         bool       `json:"driveEnabled"`
		NotificationsEnabled bool       `json:"notificationsEnabled"`
		NotificationTime     string     `json:"notificationTime"` // HH:MM
		LastSync             *time.Time `json:"lastSync,omitempty"`
		AutoSync             bool       `json:"autoSync"`
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyDescription    = errors.New("empty description")
	ErrEmptySource         = errors.New("empty income source")
	ErrEmptyInstitution    = errors.New("empty institution")
	ErrInvalidKind         = errors.New("invalid kind")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidPayment      = errors.New("invalid payment method")
	ErrInvalidDeadline     = errors.New("invalid deadline")
	ErrInvalidNotification = errors.New("invalid notification time")
	ErrTextTooLong         = errors.New("text too long (max 200 characters)")
	ErrDuplicateInvestment = errors.New("investment already exists for kind and institution")
)

// NewMonthlyRecord returns an empty record with a zeroed summary.
func NewMonthlyRecord(month string) MonthlyRecord {
	return MonthlyRecord{
		Month:       month,
		Income:      []IncomeEntry{},
		Expenses:    []ExpenseEntry{},
		Investments: []InvestmentEntry{},
		Summary:     Recompute(nil, nil, nil),
	}
}

// IsEmpty reports whether the record holds no entries at all.
func (r MonthlyRecord) IsEmpty() bool {
	return len(r.Income) == 0 && len(r.Expenses) == 0 && len(r.Investments) == 0
}

// Normalize replaces nil collections with empty ones so the JSON form is stable.
func (r *MonthlyRecord) Normalize() {
	if r.Income == nil {
		r.Income = []IncomeEntry{}
	}
	if r.Expenses == nil {
		r.Expenses = []ExpenseEntry{}
	}
	if r.Investments == nil {
		r.Investments = []InvestmentEntry{}
	}
}

// Refresh recomputes the summary from the current collections.
func (r *MonthlyRecord) Refresh() {
	r.Normalize()
	r.Summary = Recompute(r.Income, r.Expenses, r.Investments)
}

// DefaultSettings mirrors the values used when nothing was ever saved.
func DefaultSettings() AppSettings {
	return AppSettings{
		DriveEnabled:         false,
		NotificationsEnabled: false,
		NotificationTime:     "10:00",
		AutoSync:             false,
	}
}

func (k ExpenseKind) Valid() bool {
	return k == Recurring || k == OneTime
}

func (s ExpenseStatus) Valid() bool {
	return s == Paid || s == Pending
}

// Toggle flips Paid and Pending.
func (s ExpenseStatus) Toggle() ExpenseStatus {
	if s == Paid {
		return Pending
	}
	return Paid
}

func (p PaymentMethod) Valid() bool {
	switch p {
	case Credit, Debit, InstantTransfer, Cash:
		return true
	}
	return false
}

func (k InvestmentKind) Valid() bool {
	return k == Savings || k == CDI
}

func validateAmount(d decimal.Decimal) error {
	if d.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func validateDeadline(s string) error {
	if s == "" {
		return nil
	}
	if _, ok := ParseDeadline(s); !ok {
		return ErrInvalidDeadline
	}
	return nil
}

func (e IncomeEntry) Validate() error {
	if strings.TrimSpace(e.Source) == "" {
		return ErrEmptySource
	}
	if err := validateDeadline(e.Deadline); err != nil {
		return err
	}
	return validateAmount(e.Amount)
}

func (e ExpenseEntry) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return ErrTextTooLong
	}
	if !e.Kind.Valid() {
		return ErrInvalidKind
	}
	if !e.Status.Valid() {
		return ErrInvalidStatus
	}
	if !e.PaymentMethod.Valid() {
		return ErrInvalidPayment
	}
	if err := validateDeadline(e.Deadline); err != nil {
		return err
	}
	return validateAmount(e.Amount)
}

func (e InvestmentEntry) Validate() error {
	if !e.Kind.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(e.Institution) == "" {
		return ErrEmptyInstitution
	}
	return validateAmount(e.CurrentValue)
}

func (s AppSettings) Validate() error {
	if _, err := time.Parse("15:04", s.NotificationTime); err != nil || len(s.NotificationTime) != 5 {
		return ErrInvalidNotification
	}
	return nil
}
