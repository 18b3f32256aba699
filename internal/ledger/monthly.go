package ledger

import (
	"despesas/internal/core"

	"github.com/shopspring/decimal"
)

// BuildSummaries buckets records into monthCount consecutive calendar
// months starting at ref's month. Records outside the window are dropped,
// buckets keep the input order of their records, and only the first
// bucket is flagged as current.
func BuildSummaries(records []core.Record, ref core.Date, monthCount int) []core.MonthSummary {
	if monthCount <= 0 {
		return []core.MonthSummary{}
	}

	first := ref.FirstOfMonth()
	buckets := make([]core.MonthSummary, monthCount)
	index := make(map[string]int, monthCount)
	for i := range buckets {
		month := first.AddMonths(i)
		buckets[i] = core.MonthSummary{
			MonthKey:       month.MonthKey(),
			Year:           month.Year(),
			Month:          int(month.Month()),
			Total:          decimal.Zero,
			Records:        []core.Record{},
			IsCurrentMonth: i == 0,
		}
		index[buckets[i].MonthKey] = i
	}

	for _, r := range records {
		i, ok := index[r.OccursOn.MonthKey()]
		if !ok {
			continue
		}
		b := &buckets[i]
		b.Records = append(b.Records, r)
		b.Total = b.Total.Add(r.Amount)
		b.Count++
	}
	return buckets
}
