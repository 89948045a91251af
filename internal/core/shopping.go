package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ISODateLayout is used for shopping deadlines and purchase dates.
const ISODateLayout = "2006-01-02"

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

var ErrInvalidPriority = errors.New("invalid priority")

type Priority string

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

type ShoppingItem struct {
	ID             string           `json:"id"`
	Description    string           `json:"description"`
	EstimatedPrice *decimal.Decimal `json:"estimatedPrice,omitempty"`
	Priority       Priority         `json:"priority"`
	Deadline       string           `json:"deadline,omitempty"` // yyyy-mm-dd
	ProductLink    string           `json:"productLink,omitempty"`
	Purchased      bool             `json:"purchased"`
	PurchaseDate   string           `json:"purchaseDate,omitempty"` // yyyy-mm-dd
	ActualPrice    *decimal.Decimal `json:"actualPrice,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

type ShoppingList struct {
	Items       []ShoppingItem `json:"items"`
	LastUpdated time.Time      `json:"lastUpdated"`
}

// NewShoppingList returns the empty list used when nothing is stored.
func NewShoppingList(now time.Time) ShoppingList {
	return ShoppingList{Items: []ShoppingItem{}, LastUpdated: now}
}

func (it ShoppingItem) Validate() error {
	if strings.TrimSpace(it.Description) == "" {
		return ErrEmptyDescription
	}
	if !it.Priority.Valid() {
		return ErrInvalidPriority
	}
	if it.Deadline != "" {
		if _, err := time.Parse(ISODateLayout, it.Deadline); err != nil {
			return ErrInvalidDeadline
		}
	}
	if it.EstimatedPrice != nil && it.EstimatedPrice.IsNegative() {
		return ErrInvalidAmount
	}
	if it.ActualPrice != nil && it.ActualPrice.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// TogglePurchased flips the purchased flag, stamping today's date when the
// item becomes purchased and clearing it otherwise.
func (it *ShoppingItem) TogglePurchased(now time.Time) {
	it.Purchased = !it.Purchased
	if it.Purchased {
		it.PurchaseDate = now.Format(ISODateLayout)
	} else {
		it.PurchaseDate = ""
	}
	it.UpdatedAt = now
}
