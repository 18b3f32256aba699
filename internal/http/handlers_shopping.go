package http

import (
	"net/http"

	"despesas/internal/core"
	"despesas/internal/log"
	"despesas/internal/services"
)

type shoppingList struct {
	Items   []core.ShoppingItem `json:"items"`
	Pending int                 `json:"pending"`
}

func (s *Server) handleListShopping(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Shopping.List(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, r, log.OpList, err)
		return
	}
	if items == nil {
		items = []core.ShoppingItem{}
	}
	writeJSON(w, http.StatusOK, shoppingList{Items: items, Pending: services.PendingCount(items)})
}

func (s *Server) handleAddShopping(w http.ResponseWriter, r *http.Request) {
	var req shoppingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadBody(w, err)
		return
	}
	item, err := s.svc.Shopping.Add(r.Context(), userID(r), core.ShoppingItem{
		Name:     req.Name,
		Quantity: req.Quantity,
		Category: req.Category,
	})
	if err != nil {
		writeServiceError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleToggleShopping(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadBody(w, err)
		return
	}
	if req.Completed == nil {
		writeError(w, http.StatusBadRequest, "completed is required")
		return
	}
	item, err := s.svc.Shopping.SetCompleted(r.Context(), userID(r), r.PathValue("id"), *req.Completed)
	if err != nil {
		writeServiceError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteShopping(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Shopping.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeServiceError(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClearShopping removes the caller's own completed items.
func (s *Server) handleClearShopping(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Shopping.ClearCompleted(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, r, log.OpDelete, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}
