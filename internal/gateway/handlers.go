package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lendfront/unirouter/internal/domain"
	"github.com/lendfront/unirouter/internal/version"
)

// maxUploadBytes bounds the multipart form held in memory. Slightly
// above the attachment limit so oversized files reach the typed
// validation error instead of a generic parse failure.
const maxUploadBytes = 6 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// handleChat is the unified chat endpoint: classify, route, respond.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseChatForm(w, r, "message", "session_id")
	if !ok {
		return
	}

	start := time.Now()
	resp, err := s.router.Handle(r.Context(), *req)
	if err != nil {
		s.writeRouterError(w, r, err)
		return
	}

	s.hub.BroadcastChatTurn(resp.Backend, resp.SessionID, time.Since(start))
	writeJSON(w, http.StatusOK, resp)
}

// handleDirectChat serves a capability's own chat route, bypassing
// classification. The field names match the provider's native shape.
func (s *Server) handleDirectChat(label domain.Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Message   string `json:"message"`
			Query     string `json:"query"`
			Question  string `json:"question"`
			SessionID string `json:"session_id"`
			ThreadID  string `json:"thread_id"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&body); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid JSON body: "+err.Error())
			return
		}

		message := body.Message
		if message == "" {
			message = body.Query
		}
		if message == "" {
			message = body.Question
		}
		sessionID := body.SessionID
		if sessionID == "" {
			sessionID = body.ThreadID
		}

		start := time.Now()
		resp, err := s.router.HandleDirect(r.Context(), label, domain.ChatRequest{
			Message:   message,
			SessionID: sessionID,
		})
		if err != nil {
			s.writeRouterError(w, r, err)
			return
		}
		s.hub.BroadcastChatTurn(resp.Backend, resp.SessionID, time.Since(start))
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleDirectDocument serves the document capability's multipart route.
func (s *Server) handleDirectDocument(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseChatForm(w, r, "question", "session_id")
	if !ok {
		return
	}

	start := time.Now()
	resp, err := s.router.HandleDirect(r.Context(), domain.BackendDocument, *req)
	if err != nil {
		s.writeRouterError(w, r, err)
		return
	}
	s.hub.BroadcastChatTurn(resp.Backend, resp.SessionID, time.Since(start))
	writeJSON(w, http.StatusOK, resp)
}

// parseChatForm extracts the message, session ID and optional PDF from
// a multipart (or urlencoded) form. On failure it writes the error
// response and returns ok=false.
func (s *Server) parseChatForm(w http.ResponseWriter, r *http.Request, messageField, sessionField string) (*domain.ChatRequest, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			if err := r.ParseForm(); err != nil {
				writeError(w, http.StatusUnprocessableEntity, "invalid form body: "+err.Error())
				return nil, false
			}
		} else {
			writeError(w, http.StatusUnprocessableEntity, "invalid multipart body: "+err.Error())
			return nil, false
		}
	}

	req := domain.ChatRequest{
		Message:   r.FormValue(messageField),
		SessionID: r.FormValue(sessionField),
	}

	if r.MultipartForm != nil && len(r.MultipartForm.File["file"]) > 0 {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid file upload: "+err.Error())
			return nil, false
		}
		defer f.Close()
		content, err := io.ReadAll(f)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "could not read file upload: "+err.Error())
			return nil, false
		}
		contentType := hdr.Header.Get("Content-Type")
		req.File = &domain.FileUpload{
			Filename:    hdr.Filename,
			ContentType: contentType,
			Content:     content,
		}
	}
	return &req, true
}

// writeRouterError maps dispatch failures onto HTTP statuses.
func (s *Server) writeRouterError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, r.Context().Err()) && r.Context().Err() != nil:
		// Client went away; the status is never seen but keeps logs honest.
		writeError(w, 499, "client closed request")
	default:
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("chat dispatch failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// handleClear removes a session's history. Idempotent: clearing an
// unknown session still reports success.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	if _, err := s.sessions.Clear(r.Context(), sessionID); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("failed to clear session")
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Error: " + err.Error(),
			"success": false,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Session %s cleared", sessionID),
		"success": true,
	})
}

// handleHealth reports aggregated backend health. The endpoint answers
// 503 only when the aggregate is unhealthy, so load balancers keep
// routing while a single provider warms up.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.monitor.Check(r.Context())
	status := http.StatusOK
	if snap.Aggregate() == domain.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, snap)
}

// handleRoot describes the service.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	backends := make([]string, 0, len(domain.Backends()))
	for _, b := range domain.Backends() {
		backends = append(backends, b.String())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service":  "unirouter",
		"version":  version.Version,
		"backends": backends,
		"endpoints": map[string]string{
			"chat":   "POST /chat",
			"clear":  "POST /chat/clear/{session_id}",
			"health": "GET /health",
			"ws":     "GET /ws",
		},
	})
}

// handleSessions lists live sessions.
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.sessions.List(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list sessions")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": summaries})
}

// handleHistory returns one session's turns.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	sess, ok, err := s.sessions.Get(r.Context(), sessionID)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("failed to load session")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "session not found: "+sessionID)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}
