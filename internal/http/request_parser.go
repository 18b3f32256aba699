package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"despesas/internal/core"
	"despesas/internal/middleware/auth"

	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

var errBadParam = errors.New("invalid query parameter")

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// Date returns the first day of the month.
func (p MonthParams) Date() core.Date {
	return core.NewDate(p.Year, p.Month, 1)
}

// ParseMonthParams extracts year and month from query parameters, using
// the month of now for absent values.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	params := MonthParams{
		Year:  now.Year(),
		Month: int(now.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			return params, fmt.Errorf("%w: year %q", errBadParam, v)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return params, fmt.Errorf("%w: month %q", errBadParam, v)
		}
		params.Month = m
	}
	return params, nil
}

// parseIntParam reads an optional integer in [lo, hi]; absent yields def.
func parseIntParam(query url.Values, key string, def, lo, hi int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%w: %s must be between %d and %d", errBadParam, key, lo, hi)
	}
	return n, nil
}

// decodeJSON reads a single JSON object from the body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must contain a single JSON object")
	}
	return nil
}

// userID returns the authenticated caller. The auth middleware guarantees
// it on every /api/ route.
func userID(r *http.Request) string {
	id, _ := auth.UserID(r.Context())
	return id
}

// amountValue accepts an amount as a JSON number or a string in either
// "1234.56" or "1.234,56" form.
type amountValue string

func (a *amountValue) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountValue(s)
		return nil
	}
	*a = amountValue(b)
	return nil
}

func (a amountValue) Decimal() (decimal.Decimal, error) {
	return core.ParseAmount(string(a))
}

// optionalDecimal is zero when the amount is absent.
func (a amountValue) optionalDecimal() (decimal.Decimal, error) {
	if strings.TrimSpace(string(a)) == "" {
		return decimal.Zero, nil
	}
	return a.Decimal()
}

type recordRequest struct {
	Name         string      `json:"name"`
	Amount       amountValue `json:"amount"`
	Category     string      `json:"category"`
	OccursOn     string      `json:"occurs_on"`
	PayerID      string      `json:"payer_id"`
	Observations string      `json:"observations"`
	IsMonthly    bool        `json:"is_monthly"`
}

// record converts the request to a record of kind. Expenses and incomes
// without a date happen today; upcoming expenses need a due date.
func (req recordRequest) record(kind core.Kind, today core.Date) (core.Record, error) {
	amount, err := req.Amount.Decimal()
	if err != nil {
		return core.Record{}, err
	}
	on := today
	if strings.TrimSpace(req.OccursOn) != "" || kind == core.KindUpcoming {
		if on, err = core.ParseDate(req.OccursOn); err != nil {
			return core.Record{}, err
		}
	}
	return core.Record{
		Kind:         kind,
		Name:         req.Name,
		Amount:       amount,
		Category:     strings.TrimSpace(req.Category),
		OccursOn:     on,
		PayerID:      strings.TrimSpace(req.PayerID),
		Observations: strings.TrimSpace(req.Observations),
		IsMonthly:    req.IsMonthly,
	}, nil
}

type goalRequest struct {
	Name          string      `json:"name"`
	Category      string      `json:"category"`
	TargetAmount  amountValue `json:"target_amount"`
	CurrentAmount amountValue `json:"current_amount"`
	Month         string      `json:"month"`
}

func (req goalRequest) goal() (core.Goal, error) {
	target, err := req.TargetAmount.Decimal()
	if err != nil {
		return core.Goal{}, err
	}
	current, err := req.CurrentAmount.optionalDecimal()
	if err != nil {
		return core.Goal{}, err
	}
	return core.Goal{
		Name:          req.Name,
		Category:      strings.TrimSpace(req.Category),
		TargetAmount:  target,
		CurrentAmount: current,
		Month:         strings.TrimSpace(req.Month),
	}, nil
}

type progressRequest struct {
	CurrentAmount amountValue `json:"current_amount"`
}

type shoppingRequest struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Category string `json:"category"`
}

type toggleRequest struct {
	Completed *bool `json:"completed"`
}

type profileRequest struct {
	DisplayName string `json:"display_name"`
	CoupleID    string `json:"couple_id"`
}
