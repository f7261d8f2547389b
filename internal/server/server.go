// Package server exposes the validation pipeline over HTTP as a thin
// adapter: one multipart upload endpoint plus a health probe. All domain
// logic stays in the app package.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/solarqa/plancheck/internal/app"
)

// DefaultMaxUploadBytes caps uploaded plan sets at 50 MiB.
const DefaultMaxUploadBytes = 50 << 20

// Server handles plan-set validation requests.
type Server struct {
	App            *app.App
	MaxUploadBytes int64
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /validate-pdf", s.handleValidate)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	started := time.Now()
	rep, err := s.App.ValidatePDF(r.Context(), content)
	if err != nil {
		// Unreadable uploads are a plain bad request; a document that
		// parsed but yielded no reference record gets 422.
		status := http.StatusBadRequest
		if errors.Is(err, app.ErrReferenceExtraction) {
			status = http.StatusUnprocessableEntity
		}
		log.Warn().Err(err).Str("filename", header.Filename).Msg("validation failed")
		writeError(w, status, err.Error())
		return
	}
	log.Info().
		Str("filename", header.Filename).
		Int("pages", rep.TotalPages).
		Dur("elapsed", time.Since(started)).
		Msg("validation complete")

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rep); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
