package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"financitos/internal/core"
	"financitos/internal/services"
)

const maxBodyBytes = 10 << 20

var errBadRequest = errors.New("bad request")

var hhmmRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// newValidator registers the domain validations used by the request DTOs.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "deadline", validateDeadline)
	mustRegister(v, "isodate", validateISODate)
	mustRegister(v, "hhmm", validateHHMM)
	mustRegister(v, "expense_kind", validateExpenseKind)
	mustRegister(v, "expense_status", validateExpenseStatus)
	mustRegister(v, "payment_method", validatePaymentMethod)
	mustRegister(v, "investment_kind", validateInvestmentKind)
	mustRegister(v, "priority", validatePriority)
	return v
}

// mustRegister panics when a tag cannot be registered; DTO validation
// would otherwise silently skip it.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

func validateDeadline(fl validator.FieldLevel) bool {
	_, ok := core.ParseDeadline(fl.Field().String())
	return ok
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse(core.ISODateLayout, fl.Field().String())
	return err == nil
}

func validateHHMM(fl validator.FieldLevel) bool {
	return hhmmRegex.MatchString(fl.Field().String())
}

func validateExpenseKind(fl validator.FieldLevel) bool {
	return core.ExpenseKind(fl.Field().String()).Valid()
}

func validateExpenseStatus(fl validator.FieldLevel) bool {
	return core.ExpenseStatus(fl.Field().String()).Valid()
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	return core.PaymentMethod(fl.Field().String()).Valid()
}

func validateInvestmentKind(fl validator.FieldLevel) bool {
	return core.InvestmentKind(fl.Field().String()).Valid()
}

func validatePriority(fl validator.FieldLevel) bool {
	return core.Priority(fl.Field().String()).Valid()
}

func describeValidation(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: failed '%s'", fe.Field(), fe.Tag()))
	}
	return "invalid request: " + strings.Join(parts, ", ")
}

// money decodes an amount from a JSON number, a plain decimal string
// ("1234.56" or "1234,56") or Brazilian currency notation ("R$ 1.234,56").
type money struct{ decimal.Decimal }

func (m *money) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || b[0] != '"' {
		return m.Decimal.UnmarshalJSON(b)
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	d, err := parseMoney(s)
	if err != nil {
		return err
	}
	m.Decimal = d
	return nil
}

func parseMoney(s string) (decimal.Decimal, error) {
	if !strings.ContainsAny(s, "0123456789") {
		return decimal.Zero, core.ErrInvalidAmount
	}
	if strings.Contains(s, "R$") || (strings.Contains(s, ",") && strings.Contains(s, ".")) {
		d := core.ParseFormCurrency(s)
		if d.IsNegative() {
			return decimal.Zero, core.ErrInvalidAmount
		}
		return d, nil
	}
	return core.ParseAmount(s)
}

func (m *money) decimalPtr() *decimal.Decimal {
	if m == nil {
		return nil
	}
	d := m.Decimal
	return &d
}

// Request DTOs. Amounts go through money; rates are plain decimals.
type (
	incomeRequest struct {
		Source   string `json:"source" validate:"required,max=200"`
		Deadline string `json:"deadline" validate:"omitempty,deadline"`
		Amount   *money `json:"amount" validate:"required"`
	}

	expenseRequest struct {
		Description   string `json:"description" validate:"required,max=200"`
		Kind          string `json:"kind" validate:"required,expense_kind"`
		Deadline      string `json:"deadline" validate:"omitempty,deadline"`
		Status        string `json:"status" validate:"omitempty,expense_status"`
		PaymentMethod string `json:"paymentMethod" validate:"required,payment_method"`
		Amount        *money `json:"amount" validate:"required"`
	}

	investmentRequest struct {
		Kind         string           `json:"kind" validate:"required,investment_kind"`
		Institution  string           `json:"institution" validate:"required,max=200"`
		CurrentValue *money           `json:"currentValue" validate:"required"`
		Rate         *decimal.Decimal `json:"rate"`
	}

	shoppingItemRequest struct {
		Description    string `json:"description" validate:"required,max=200"`
		EstimatedPrice *money `json:"estimatedPrice"`
		Priority       string `json:"priority" validate:"required,priority"`
		Deadline       string `json:"deadline" validate:"omitempty,isodate"`
		ProductLink    string `json:"productLink" validate:"omitempty,url,max=2048"`
		ActualPrice    *money `json:"actualPrice"`
	}

	settingsRequest struct {
		DriveEnabled         bool   `json:"driveEnabled"`
		NotificationsEnabled bool   `json:"notificationsEnabled"`
		NotificationTime     string `json:"notificationTime" validate:"omitempty,hhmm"`
		AutoSync             bool   `json:"autoSync"`
	}

	ratesRequest struct {
		CDI   *decimal.Decimal `json:"cdi" validate:"required"`
		SELIC *decimal.Decimal `json:"selic" validate:"required"`
	}
)

func (r incomeRequest) input() services.IncomeInput {
	return services.IncomeInput{
		Source:   sanitizeInput(r.Source),
		Deadline: strings.TrimSpace(r.Deadline),
		Amount:   r.Amount.Decimal,
	}
}

func (r expenseRequest) input() services.ExpenseInput {
	return services.ExpenseInput{
		Description:   sanitizeInput(r.Description),
		Kind:          core.ExpenseKind(r.Kind),
		Deadline:      strings.TrimSpace(r.Deadline),
		Status:        core.ExpenseStatus(r.Status),
		PaymentMethod: core.PaymentMethod(r.PaymentMethod),
		Amount:        r.Amount.Decimal,
	}
}

func (r investmentRequest) input() services.InvestmentInput {
	in := services.InvestmentInput{
		Kind:         core.InvestmentKind(r.Kind),
		Institution:  sanitizeInput(r.Institution),
		CurrentValue: r.CurrentValue.Decimal,
	}
	if r.Rate != nil {
		in.Rate = *r.Rate
	}
	return in
}

func (r shoppingItemRequest) input() services.ShoppingItemInput {
	return services.ShoppingItemInput{
		Description:    sanitizeInput(r.Description),
		EstimatedPrice: r.EstimatedPrice.decimalPtr(),
		Priority:       core.Priority(r.Priority),
		Deadline:       strings.TrimSpace(r.Deadline),
		ProductLink:    strings.TrimSpace(r.ProductLink),
		ActualPrice:    r.ActualPrice.decimalPtr(),
	}
}

func (r settingsRequest) input() services.SettingsInput {
	return services.SettingsInput{
		DriveEnabled:         r.DriveEnabled,
		NotificationsEnabled: r.NotificationsEnabled,
		NotificationTime:     strings.TrimSpace(r.NotificationTime),
		AutoSync:             r.AutoSync,
	}
}

// decodeJSON reads a single JSON document into dst and validates it.
func (s *Server) decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %w", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON body", errBadRequest)
	}
	return s.validate.Struct(dst)
}

// monthParam returns the validated {month} path parameter.
func monthParam(r *http.Request) (string, error) {
	month := chi.URLParam(r, "month")
	if _, _, err := core.ParseMonthKey(month); err != nil {
		return "", err
	}
	return month, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
