package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adedotun019/EventSense-AI/internal/domain"
	"github.com/Adedotun019/EventSense-AI/internal/packager"
	"github.com/Adedotun019/EventSense-AI/internal/session"
	"github.com/Adedotun019/EventSense-AI/pkg/icron"
	"github.com/Adedotun019/EventSense-AI/pkg/log"
)

type uploadResponse struct {
	SessionID string        `json:"session_id"`
	Name      string        `json:"name"`
	Size      int64         `json:"size"`
	State     session.State `json:"state"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// reject oversized uploads before buffering the body
	if r.ContentLength > s.maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "uploaded file exceeds the size ceiling")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	name, payload, err := readUpload(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "uploaded file exceeds the size ceiling")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := s.manager.Upload(r.URL.Query().Get("session"), name, payload)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		SessionID: sess.ID,
		Name:      name,
		Size:      int64(len(payload)),
		State:     sess.State(),
	})
}

// readUpload accepts either a multipart "file" field or a raw request body.
func readUpload(r *http.Request) (string, []byte, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		f, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, fmt.Errorf("no file uploaded")
		}
		defer f.Close()
		payload, err := io.ReadAll(f)
		if err != nil {
			return "", nil, err
		}
		return header.Filename, payload, nil
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, err
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload.mp4"
	}
	return name, payload, nil
}

// handleSession dispatches /api/sessions/{id}/{operation...}.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.SplitN(rest, "/", 2)
	if parts[0] == "" {
		writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	sess, ok := s.manager.Get(parts[0])
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	op := ""
	if len(parts) == 2 {
		op = strings.TrimSuffix(parts[1], "/")
	}

	switch {
	case op == "analyze":
		s.handleAnalyze(w, r, sess)
	case op == "clips":
		s.handleExtractAll(w, r, sess)
	case strings.HasPrefix(op, "clips/"):
		s.handleClipDownload(w, r, sess, strings.TrimPrefix(op, "clips/"))
	case op == "archive":
		s.handleArchive(w, r, sess)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := sess.Analyze(r.Context()); err != nil {
		log.Error("session %s analyze failed: %v", sess.ID, err)
		writeDomainError(w, err)
		return
	}

	result, err := sess.Result()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExtractAll(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	clips, err := sess.ExtractAll(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	// domain.Clip serializes without payload bytes; this is the manifest
	writeJSON(w, http.StatusOK, clips)
}

func (s *Server) handleClipDownload(w http.ResponseWriter, r *http.Request, sess *session.Session, rawID string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	chapterID, err := strconv.Atoi(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid clip id")
		return
	}

	clip, err := sess.ExtractOne(r.Context(), chapterID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	d := packager.For(clip)
	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(d.Payload)
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	clips, err := sess.Clips()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", packager.ArchiveName))
	w.WriteHeader(http.StatusOK)
	if _, err := packager.WriteArchive(w, clips); err != nil {
		// headers are gone; the truncated stream is all we can report
		log.Error("session %s archive stream failed: %v", sess.ID, err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	status := map[string]any{
		"sessions": s.manager.Count(),
	}
	if s.queue != nil {
		status["transcoding"] = s.queue.Busy()
	}
	if s.janitorExpr != "" {
		if next, err := icron.Next(s.janitorExpr, time.Now()); err == nil {
			status["next_cleanup"] = next.Format(time.RFC3339)
		}
	}
	writeJSON(w, http.StatusOK, status)
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusForError(err), err.Error())
}

// statusForError maps the error taxonomy onto HTTP statuses: upload problems
// are the client's, provider/timeout failures are upstream, engine failures
// are ours.
func statusForError(err error) int {
	switch {
	case domain.IsKind(err, domain.KindUpload):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.KindValidation):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.KindProvider):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.KindTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
