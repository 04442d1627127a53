package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/versemark/versemark/internal/views"
	"github.com/versemark/versemark/pkg/index"
	"github.com/versemark/versemark/pkg/storage"
)

type progressResponse struct {
	Progress index.Progress `json:"progress"`
	index.Tally
}

type ToggleRequest struct {
	Key string `json:"key"`
}

type toggleResponse struct {
	Key  string `json:"key"`
	Read bool   `json:"read"`
	index.Tally
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) serverError(w http.ResponseWriter, what string, err error) {
	s.log.Errorf("%s: %v", what, err)
	writeJSONError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) renderError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	views.ErrorPage(status, msg).Render(w)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	s.renderError(w, http.StatusNotFound, "There is nothing at "+r.URL.Path+".")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.catalog.Current()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"entries":     snap.Index.Total(),
		"fingerprint": snap.Fingerprint,
		"loaded_at":   snap.LoadedAt,
	})
}

func (s *Server) handleChecklist(w http.ResponseWriter, r *http.Request, userID string) {
	user, err := s.db.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			http.Redirect(w, r, "/logout", http.StatusSeeOther)
			return
		}
		s.serverError(w, "loading user", err)
		return
	}
	progress, err := s.progress.ReadProgress(r.Context(), userID)
	if err != nil {
		s.serverError(w, "reading progress", err)
		return
	}
	name := user.DisplayName
	if name == "" {
		name = "Guest"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	views.ChecklistPage(name, s.catalog.Current().Index, progress).Render(w)
}

// handleIndex serves the whole index. The dataset fingerprint is the ETag.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.catalog.Current()
	etag := `"` + snap.Fingerprint + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, snap.Index)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request, userID string) {
	progress, err := s.progress.ReadProgress(r.Context(), userID)
	if err != nil {
		s.serverError(w, "reading progress", err)
		return
	}
	writeJSON(w, http.StatusOK, progressResponse{
		Progress: progress,
		Tally:    s.catalog.Current().Index.Tally(progress),
	})
}

// handleToggle flips one leaf for the signed-in user and tells their other
// open checklists about it.
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request, userID string) {
	if !s.limiter.Allow(userID) {
		s.metrics.rateLimited.Inc()
		writeJSONError(w, http.StatusTooManyRequests, "too many requests")
		return
	}

	var req ToggleRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil || req.Key == "" {
		writeJSONError(w, http.StatusBadRequest, "body must be {\"key\": \"...\"}")
		return
	}
	ix := s.catalog.Current().Index
	if !ix.HasKey(req.Key) {
		writeJSONError(w, http.StatusNotFound, "unknown key")
		return
	}

	unlock := s.lockUser(userID)
	progress, err := s.progress.ReadProgress(r.Context(), userID)
	if err != nil {
		unlock()
		s.serverError(w, "reading progress", err)
		return
	}
	read, patch := progress.Toggle(req.Key)
	err = s.progress.ApplyPatch(r.Context(), userID, patch)
	unlock()
	if err != nil {
		s.serverError(w, "saving progress", err)
		return
	}

	state := "unread"
	if read {
		state = "read"
	}
	s.metrics.toggles.WithLabelValues(state).Inc()

	tally := ix.Tally(progress)
	s.hub.Send(userID, event{Type: "toggle", Key: req.Key, Read: &read, Tally: &tally})
	writeJSON(w, http.StatusOK, toggleResponse{Key: req.Key, Read: read, Tally: tally})
}
