package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"despesas/internal/core"
	"despesas/internal/store"

	"github.com/shopspring/decimal"
)

func TestParseMonthParams(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		query   string
		want    MonthParams
		wantErr bool
	}{
		{"defaults", "", MonthParams{2024, 3}, false},
		{"explicit", "year=2023&month=12", MonthParams{2023, 12}, false},
		{"month only", "month=1", MonthParams{2024, 1}, false},
		{"trimmed", "year=%202025%20", MonthParams{2025, 3}, false},
		{"month out of range", "month=13", MonthParams{}, true},
		{"month zero", "month=0", MonthParams{}, true},
		{"year not a number", "year=abc", MonthParams{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := ParseMonthParams(q, now)
			if tt.wantErr {
				if !errors.Is(err, errBadParam) {
					t.Fatalf("err = %v, want errBadParam", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ParseMonthParams() = %+v, %v, want %+v", got, err, tt.want)
			}
		})
	}

	if d := (MonthParams{Year: 2024, Month: 2}).Date(); !d.Equal(core.NewDate(2024, 2, 1)) {
		t.Errorf("Date() = %s", d)
	}
}

func TestParseIntParam(t *testing.T) {
	q := url.Values{"months": {"6"}, "bad": {"x"}, "big": {"99"}}
	if n, err := parseIntParam(q, "months", 12, 1, 36); err != nil || n != 6 {
		t.Errorf("months = %d, %v", n, err)
	}
	if n, err := parseIntParam(q, "absent", 12, 1, 36); err != nil || n != 12 {
		t.Errorf("absent = %d, %v", n, err)
	}
	for _, key := range []string{"bad", "big"} {
		if _, err := parseIntParam(q, key, 12, 1, 36); !errors.Is(err, errBadParam) {
			t.Errorf("%s: err = %v", key, err)
		}
	}
}

func TestAmountValue(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{`12.5`, "12.5", false},
		{`"12,50"`, "12.5", false},
		{`"1.234,56"`, "1234.56", false},
		{`"€ 10"`, "10", false},
		{`-1`, "", true},
		{`null`, "", true},
		{`"abc"`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var body struct {
				Amount amountValue `json:"amount"`
			}
			if err := json.Unmarshal([]byte(`{"amount":`+tt.raw+`}`), &body); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			got, err := body.Amount.Decimal()
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidAmount) {
					t.Fatalf("err = %v, want ErrInvalidAmount", err)
				}
				return
			}
			if err != nil || !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("Decimal() = %s, %v, want %s", got, err, tt.want)
			}
		})
	}

	if d, err := amountValue("").optionalDecimal(); err != nil || !d.IsZero() {
		t.Errorf("optional empty = %s, %v", d, err)
	}
}

func TestRecordRequest(t *testing.T) {
	today := core.NewDate(2024, 3, 10)
	req := recordRequest{Name: "Luz", Amount: "80", Category: " Moradia "}

	rec, err := req.record(core.KindExpense, today)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !rec.OccursOn.Equal(today) || rec.Category != "Moradia" || rec.Kind != core.KindExpense {
		t.Errorf("record = %+v", rec)
	}

	if _, err := req.record(core.KindUpcoming, today); !errors.Is(err, core.ErrInvalidDate) {
		t.Errorf("upcoming without due date: err = %v", err)
	}
	req.OccursOn = "2024-04-05"
	rec, err = req.record(core.KindUpcoming, today)
	if err != nil || !rec.OccursOn.Equal(core.NewDate(2024, 4, 5)) {
		t.Errorf("upcoming = %+v, %v", rec, err)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{core.ErrGoalRegression, http.StatusUnprocessableEntity},
		{errors.Join(errors.New("create expense"), core.ErrInvalidCategory), http.StatusUnprocessableEntity},
		{errBadParam, http.StatusBadRequest},
		{store.ErrNotFound, http.StatusNotFound},
		{store.ErrAlreadyPaid, http.StatusConflict},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		status, msg := statusFor(tt.err)
		if status != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, status, tt.want)
		}
		if status == http.StatusInternalServerError && msg != "internal error" {
			t.Errorf("server error leaked %q", msg)
		}
	}
}
