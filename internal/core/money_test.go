package core

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{" 2.50 ", "2.5", true},
		{"0", "0", true},
		{"-1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseFormCurrency(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"R$ 1.234,56", "1234.56"},
		{"R$\u00a01.234,56", "1234.56"},
		{"1.500", "1500"},
		{"12,5", "12.5"},
		{"100", "100"},
		{"abc", "0"},
		{"", "0"},
	}
	for _, tc := range cases {
		if got := ParseFormCurrency(tc.in); got.String() != tc.out {
			t.Fatalf("ParseFormCurrency(%q) = %s, want %s", tc.in, got, tc.out)
		}
	}
}

func TestFormatBRL(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"1234.56", "R$\u00a01.234,56"},
		{"-1234.56", "-R$\u00a01.234,56"},
		{"0", "R$\u00a00,00"},
		{"999.9", "R$\u00a0999,90"},
		{"1000000", "R$\u00a01.000.000,00"},
	}
	for _, tc := range cases {
		if got := FormatBRL(decimal.RequireFromString(tc.in)); got != tc.out {
			t.Fatalf("FormatBRL(%s) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestFormatPercentage(t *testing.T) {
	if got := FormatPercentage(decimal.RequireFromString("1.23")); got != "1.2%" {
		t.Fatalf("got %q", got)
	}
	if got := FormatPercentage(decimal.RequireFromString("10.65")); got != "10.7%" {
		t.Fatalf("got %q", got)
	}
}

func TestAmountsMarshalAsNumbers(t *testing.T) {
	b, err := json.Marshal(IncomeEntry{ID: "a", Source: "s", Amount: decimal.RequireFromString("6500.50")})
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["amount"].(float64); !ok {
		t.Fatalf("amount should be a JSON number, got %T", raw["amount"])
	}
}
