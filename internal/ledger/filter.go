package ledger

import (
	"slices"

	"despesas/internal/core"

	"github.com/shopspring/decimal"
)

// MonthRange returns the first and last calendar day of ref's month.
func MonthRange(ref core.Date) (start, end core.Date) {
	return ref.FirstOfMonth(), ref.LastOfMonth()
}

// FilterByRange keeps records with start <= OccursOn <= end.
func FilterByRange(records []core.Record, start, end core.Date) []core.Record {
	return filter(records, func(r core.Record) bool {
		return !r.OccursOn.Before(start) && !r.OccursOn.After(end)
	})
}

// FilterByMonth keeps records falling in ref's calendar month.
func FilterByMonth(records []core.Record, ref core.Date) []core.Record {
	start, end := MonthRange(ref)
	return FilterByRange(records, start, end)
}

// FilterByOwners keeps records owned by one of ids.
func FilterByOwners(records []core.Record, ids []string) []core.Record {
	return filter(records, func(r core.Record) bool {
		return slices.Contains(ids, r.OwnerID)
	})
}

// FilterByPayers keeps records whose payer is one of ids.
func FilterByPayers(records []core.Record, ids []string) []core.Record {
	return filter(records, func(r core.Record) bool {
		return r.PayerID != "" && slices.Contains(ids, r.PayerID)
	})
}

func FilterUnpaid(records []core.Record) []core.Record {
	return filter(records, func(r core.Record) bool { return !r.IsPaid })
}

// Total sums the amounts of records.
func Total(records []core.Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}

// TotalsByCategory returns the non-zero totals per category, in the order
// of categories.
func TotalsByCategory(records []core.Record, categories []string) []core.CategoryAmount {
	byName := make(map[string]decimal.Decimal, len(categories))
	for _, r := range records {
		byName[r.Category] = byName[r.Category].Add(r.Amount)
	}
	out := make([]core.CategoryAmount, 0, len(categories))
	for _, name := range categories {
		if amount := byName[name]; amount.IsPositive() {
			out = append(out, core.CategoryAmount{Name: name, Amount: amount})
		}
	}
	return out
}

func filter(records []core.Record, keep func(core.Record) bool) []core.Record {
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
