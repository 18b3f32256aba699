package http

import (
	"net/http"
	"strings"
	"time"

	"despesas/internal/core"
	"despesas/internal/log"
	"despesas/internal/services"
)

// handleListGoals lists the couple's goals; ?month=YYYY-MM narrows to one
// month.
func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if month != "" {
		if _, err := time.Parse("2006-01", month); err != nil {
			writeServiceError(w, r, log.OpList, core.ErrInvalidMonth)
			return
		}
	}
	goals, err := s.svc.Goals.List(r.Context(), userID(r), month)
	if err != nil {
		writeServiceError(w, r, log.OpList, err)
		return
	}
	if goals == nil {
		goals = []services.GoalView{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": goals})
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadBody(w, err)
		return
	}
	g, err := req.goal()
	if err != nil {
		writeServiceError(w, r, log.OpCreate, err)
		return
	}
	created, err := s.svc.Goals.Create(r.Context(), userID(r), g)
	if err != nil {
		writeServiceError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadBody(w, err)
		return
	}
	amount, err := req.CurrentAmount.Decimal()
	if err != nil {
		writeServiceError(w, r, log.OpUpdate, err)
		return
	}
	updated, err := s.svc.Goals.UpdateProgress(r.Context(), userID(r), r.PathValue("id"), amount)
	if err != nil {
		writeServiceError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
