package ledger

import "despesas/internal/core"

// ProjectionMonths is how far ahead a monthly template is replicated.
const ProjectionMonths = 12

// Expand returns the 12 monthly projections of a recurring template, one
// per following calendar month. Each month offset is computed from the
// template's own date and clamped to the last valid day, so a template on
// the 31st lands on Feb 28/29, Apr 30, and back on Mar 31.
//
// Projections are unpaid, carry no id and keep IsMonthly. A template that
// is not monthly yields nothing.
func Expand(template core.Record) []core.Record {
	if !template.IsMonthly {
		return []core.Record{}
	}
	out := make([]core.Record, 0, ProjectionMonths)
	for i := 1; i <= ProjectionMonths; i++ {
		out = append(out, template.Projection(template.OccursOn.AddMonths(i)))
	}
	return out
}
