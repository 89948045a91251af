// Package core provides the finance domain: monthly records, entries,
// summary aggregation, date handling and money utilities.
//
// This file contains helpers for parsing and formatting monetary amounts
// in the Brazilian real (R$ 1.234,56) notation.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as plain JSON numbers in backups and API payloads.
	decimal.MarshalJSONWithoutQuotes = true
}

const nbsp = "\u00a0"

// MoneyPlaces is the precision every stored amount is rounded to.
const MoneyPlaces = 2

// RoundMoney rounds half away from zero to centavos.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// RoundMoneyPtr is RoundMoney for optional amounts; nil stays nil.
func RoundMoneyPtr(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	r := RoundMoney(*d)
	return &r
}

// ParseAmount parses a plain decimal amount accepting either a dot or a
// comma as decimal separator. Negative values are rejected.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return RoundMoney(d), nil
}

// ParseFormCurrency parses user input in Brazilian notation. Currency
// symbols and whitespace are stripped, dots are thousand separators and a
// single comma marks the decimal part. Unparseable input yields zero.
//
// Examples:
//
//	ParseFormCurrency("R$ 1.234,56") -> 1234.56
//	ParseFormCurrency("1.500")       -> 1500
//	ParseFormCurrency("abc")         -> 0
func ParseFormCurrency(s string) decimal.Decimal {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case 'R', '$', ' ', '\t', '\n', '\u00a0':
			return -1
		}
		return r
	}, s)

	parts := strings.Split(clean, ",")
	if len(parts) == 2 {
		clean = strings.ReplaceAll(parts[0], ".", "") + "." + parts[1]
	} else {
		clean = strings.ReplaceAll(clean, ".", "")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatBRL renders an amount as "R$ 1.234,56" with a non-breaking space
// after the symbol. Negative values are prefixed with a minus sign.
func FormatBRL(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	out := "R$" + nbsp + b.String() + "," + frac
	if neg {
		return "-" + out
	}
	return out
}

// FormatPercentage renders a percentage with one decimal place, e.g. "10.7%".
func FormatPercentage(d decimal.Decimal) string {
	return d.StringFixed(1) + "%"
}
