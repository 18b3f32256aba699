package core

import (
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
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"0", "0", true},
		{"1.005", "1.01", true}, // half-up rounding
		{"12.344", "12.34", true},
		{" 2.50 ", "2.5", true},
		{"1.234,56", "1234.56", true},
		{"€ 10,00", "10", true},
		{",5", "0.5", true},
		{"-1", "", false},
		{"+1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1,2,3", "", false},
		{"1e3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if !tc.ok {
			if err == nil {
				t.Fatalf("%q expected error, got %s", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q unexpected error %v", tc.in, err)
		}
		if !got.Equal(decimal.RequireFromString(tc.out)) {
			t.Fatalf("%q expected %s, got %s", tc.in, tc.out, got)
		}
	}
}

func TestFormatEUR(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "€0,00"},
		{"12.3", "€12,30"},
		{"999.99", "€999,99"},
		{"1234.56", "€1.234,56"},
		{"1234567.8", "€1.234.567,80"},
		{"-42.5", "-€42,50"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := FormatEUR(decimal.RequireFromString(tt.in)); got != tt.want {
				t.Errorf("FormatEUR(%s) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSumIsExact(t *testing.T) {
	tenth := decimal.RequireFromString("0.1")
	got := Sum(tenth, tenth, tenth)
	if !got.Equal(decimal.RequireFromString("0.3")) {
		t.Fatalf("expected 0.3, got %s", got)
	}
	if !Sum().IsZero() {
		t.Fatalf("empty sum should be zero")
	}
}
