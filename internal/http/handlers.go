package http

import (
	"net/http"

	"despesas/internal/core"
	"despesas/internal/log"
)

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.svc.Profiles.List(r.Context())
	if err != nil {
		writeServiceError(w, r, log.OpList, err)
		return
	}
	if profiles == nil {
		profiles = []core.Profile{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadBody(w, err)
		return
	}
	saved, err := s.svc.Profiles.Save(r.Context(), userID(r), core.Profile{
		DisplayName: req.DisplayName,
		CoupleID:    req.CoupleID,
	})
	if err != nil {
		writeServiceError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleCouple(w http.ResponseWriter, r *http.Request) {
	couple := s.svc.Profiles.Couple(r.Context(), userID(r))
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":     couple.UserID,
		"partner_id":  couple.PartnerID,
		"ids":         couple.IDs(),
		"has_partner": couple.HasPartner(),
	})
}

// handleHistory returns the caller's expense names matching ?q, most
// recent first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	names, err := s.svc.History.Search(r.Context(), userID(r), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, "history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"names": names})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.History.Clear(r.Context(), userID(r)); err != nil {
		writeServiceError(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
