package http

import (
	"net/http"
	"time"

	"despesas/internal/core"
	"despesas/internal/ledger"
	"despesas/internal/log"

	"github.com/shopspring/decimal"
)

// recordRoutes registers the month list and CRUD routes of one kind under
// /api/<path>.
func (s *Server) recordRoutes(mux *http.ServeMux, path string, kind core.Kind) {
	base := "/api/" + path
	mux.HandleFunc("GET "+base, s.handleListRecords(kind))
	mux.HandleFunc("POST "+base, s.handleCreateRecord(kind))
	mux.HandleFunc("GET "+base+"/{id}", s.handleGetRecord(kind))
	mux.HandleFunc("PUT "+base+"/{id}", s.handleUpdateRecord(kind))
	mux.HandleFunc("DELETE "+base+"/{id}", s.handleDeleteRecord(kind))
}

type recordList struct {
	Month   string          `json:"month"`
	Records []core.Record   `json:"records"`
	Total   decimal.Decimal `json:"total"`
	Count   int             `json:"count"`
}

func (s *Server) handleListRecords(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := ParseMonthParams(r.URL.Query(), time.Now())
		if err != nil {
			writeServiceError(w, r, log.OpList, err)
			return
		}
		ref := params.Date()
		records, err := s.svc.Records.ListMonth(r.Context(), userID(r), kind, ref)
		if err != nil {
			writeServiceError(w, r, log.OpList, err)
			return
		}
		if records == nil {
			records = []core.Record{}
		}
		writeJSON(w, http.StatusOK, recordList{
			Month:   ref.MonthKey(),
			Records: records,
			Total:   ledger.Total(records),
			Count:   len(records),
		})
	}
}

type createdRecords struct {
	Record      core.Record   `json:"record"`
	Projections []core.Record `json:"projections,omitempty"`
}

func (s *Server) handleCreateRecord(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeBadBody(w, err)
			return
		}
		rec, err := req.record(kind, core.DateOf(time.Now()))
		if err != nil {
			writeServiceError(w, r, log.OpCreate, err)
			return
		}
		created, err := s.svc.Records.Create(r.Context(), userID(r), rec)
		if err != nil {
			writeServiceError(w, r, log.OpCreate, err)
			return
		}
		writeJSON(w, http.StatusCreated, createdRecords{Record: created[0], Projections: created[1:]})
	}
}

func (s *Server) handleGetRecord(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := s.svc.Records.Get(r.Context(), userID(r), kind, r.PathValue("id"))
		if err != nil {
			writeServiceError(w, r, "get", err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) handleUpdateRecord(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeBadBody(w, err)
			return
		}
		rec, err := req.record(kind, core.DateOf(time.Now()))
		if err != nil {
			writeServiceError(w, r, log.OpUpdate, err)
			return
		}
		rec.ID = r.PathValue("id")
		updated, err := s.svc.Records.Update(r.Context(), userID(r), rec)
		if err != nil {
			writeServiceError(w, r, log.OpUpdate, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func (s *Server) handleDeleteRecord(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.svc.Records.Delete(r.Context(), userID(r), kind, r.PathValue("id")); err != nil {
			writeServiceError(w, r, log.OpDelete, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handlePayUpcoming(w http.ResponseWriter, r *http.Request) {
	realized, err := s.svc.Records.MarkPaid(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, log.OpMarkPaid, err)
		return
	}
	writeJSON(w, http.StatusOK, realized)
}

func (s *Server) handleDueSoon(w http.ResponseWriter, r *http.Request) {
	window, err := parseIntParam(r.URL.Query(), "window", -1, 0, 365)
	if err != nil {
		writeServiceError(w, r, log.OpList, err)
		return
	}
	items, err := s.svc.Records.DueSoon(r.Context(), userID(r), window)
	if err != nil {
		writeServiceError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) handleOverdue(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Records.Overdue(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}
