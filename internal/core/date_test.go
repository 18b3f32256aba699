package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAddMonthsClampsToLastDay(t *testing.T) {
	tests := []struct {
		name string
		base Date
		n    int
		want Date
	}{
		{"plain", NewDate(2024, 3, 15), 1, NewDate(2024, 4, 15)},
		{"jan 31 leap feb", NewDate(2024, 1, 31), 1, NewDate(2024, 2, 29)},
		{"jan 31 non leap feb", NewDate(2023, 1, 31), 1, NewDate(2023, 2, 28)},
		{"31 into 30 day month", NewDate(2024, 3, 31), 1, NewDate(2024, 4, 30)},
		{"year rollover", NewDate(2024, 12, 15), 1, NewDate(2025, 1, 15)},
		{"twelve months", NewDate(2024, 1, 31), 12, NewDate(2025, 1, 31)},
		{"no drift after short month", NewDate(2024, 1, 31), 2, NewDate(2024, 3, 31)},
		{"backwards", NewDate(2024, 3, 31), -1, NewDate(2024, 2, 29)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.base.AddMonths(tt.n); !got.Equal(tt.want) {
				t.Errorf("AddMonths(%s, %d) = %s, want %s", tt.base, tt.n, got, tt.want)
			}
		})
	}
}

func TestMonthBounds(t *testing.T) {
	tests := []struct {
		d     Date
		first Date
		last  Date
	}{
		{NewDate(2024, 2, 10), NewDate(2024, 2, 1), NewDate(2024, 2, 29)},
		{NewDate(2023, 2, 10), NewDate(2023, 2, 1), NewDate(2023, 2, 28)},
		{NewDate(2024, 4, 30), NewDate(2024, 4, 1), NewDate(2024, 4, 30)},
		{NewDate(2024, 12, 1), NewDate(2024, 12, 1), NewDate(2024, 12, 31)},
	}
	for _, tt := range tests {
		if got := tt.d.FirstOfMonth(); !got.Equal(tt.first) {
			t.Errorf("FirstOfMonth(%s) = %s, want %s", tt.d, got, tt.first)
		}
		if got := tt.d.LastOfMonth(); !got.Equal(tt.last) {
			t.Errorf("LastOfMonth(%s) = %s, want %s", tt.d, got, tt.last)
		}
	}
}

func TestDateValidate(t *testing.T) {
	if err := NewDate(2025, 1, 1).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Date{Time: time.Time{}}).Validate(); err == nil {
		t.Fatalf("expected error for zero date")
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.MonthKey() != "2024-02" || d.Day() != 29 {
		t.Fatalf("unexpected date %s", d)
	}
	for _, bad := range []string{"", "2023-02-29", "29/02/2024", "2024-13-01"} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("ParseDate(%q) expected error", bad)
		}
	}
}

func TestDateOfUsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	late := time.Date(2024, 3, 10, 23, 30, 0, 0, loc)
	if got := DateOf(late); !got.Equal(NewDate(2024, 3, 10)) {
		t.Fatalf("DateOf = %s, want 2024-03-10", got)
	}
}

func TestDateJSON(t *testing.T) {
	type wrapper struct {
		On Date `json:"on"`
	}
	b, err := json.Marshal(wrapper{On: NewDate(2024, 1, 5)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"on":"2024-01-05"}` {
		t.Fatalf("unexpected json %s", b)
	}
	var w wrapper
	if err := json.Unmarshal(b, &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !w.On.Equal(NewDate(2024, 1, 5)) {
		t.Fatalf("round trip lost the date: %s", w.On)
	}
	if err := json.Unmarshal([]byte(`{"on":"05/01/2024"}`), &w); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}

func TestDateScan(t *testing.T) {
	tests := []struct {
		name string
		src  any
		want Date
	}{
		{"text", "2024-01-31", NewDate(2024, 1, 31)},
		{"bytes", []byte("2024-01-31"), NewDate(2024, 1, 31)},
		{"timestamp text", "2024-01-31 00:00:00+00:00", NewDate(2024, 1, 31)},
		{"time", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), NewDate(2024, 1, 31)},
		{"null", nil, Date{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			if err := d.Scan(tt.src); err != nil {
				t.Fatalf("Scan: %v", err)
			}
			if !d.Equal(tt.want) {
				t.Errorf("Scan(%v) = %s, want %s", tt.src, d, tt.want)
			}
		})
	}
}
