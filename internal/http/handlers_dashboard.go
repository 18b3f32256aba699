package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"despesas/internal/core"
	"despesas/internal/log"
	"despesas/internal/report"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), time.Now())
	if err != nil {
		writeServiceError(w, r, "dashboard", err)
		return
	}
	dash, err := s.svc.Dashboard.Dashboard(r.Context(), userID(r), params.Date())
	if err != nil {
		writeServiceError(w, r, "dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (s *Server) monthlySummaries(r *http.Request) ([]core.MonthSummary, error) {
	months, err := parseIntParam(r.URL.Query(), "months", 0, 1, 36)
	if err != nil {
		return nil, err
	}
	return s.svc.Records.MonthlySummaries(r.Context(), userID(r), months)
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.monthlySummaries(r)
	if err != nil {
		writeServiceError(w, r, "summary", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"months": summaries})
}

// handleMonthlySummaryXLSX renders the summary in memory first so a
// failure still yields a JSON error.
func (s *Server) handleMonthlySummaryXLSX(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.monthlySummaries(r)
	if err != nil {
		writeServiceError(w, r, log.OpExport, err)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteMonthlySummary(&buf, summaries); err != nil {
		writeServiceError(w, r, log.OpExport, err)
		return
	}

	name := "despesas-resumo.xlsx"
	if len(summaries) > 0 {
		name = fmt.Sprintf("despesas-resumo-%s.xlsx", summaries[0].MonthKey)
	}
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
