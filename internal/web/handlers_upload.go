package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/willbda/happy-to-have-lived-sub002/internal/core"
)

// multipartOverhead is allowed on top of the file size for form boundaries
// and headers.
const multipartOverhead = 1 << 20

// previewResponse is a stored preview with its per-status counts.
type previewResponse struct {
	*core.PreviewSession
	Summary map[core.StatusType]int `json:"summary"`
}

func newPreviewResponse(session *core.PreviewSession) previewResponse {
	summary := make(map[core.StatusType]int)
	for _, r := range session.Records {
		summary[r.Status.Type]++
	}
	return previewResponse{PreviewSession: session, Summary: summary}
}

// confirmRequest is the optional body of a confirm call. Overrides are keyed
// by row number.
type confirmRequest struct {
	Overrides map[int]bool `json:"overrides"`
}

// handlePreview classifies an uploaded file and stores the preview for a
// later confirm. The file is the raw body or the multipart field "file".
// ?semantic=false skips near-duplicate detection.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	src, filename, err := s.uploadSource(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer src.Close()

	format, err := formatParam(r, filename)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var opts []core.PreviewOption
	if r.URL.Query().Get("semantic") == "false" {
		opts = append(opts, core.SkipSemantic())
	}

	session, err := s.service.StartPreview(r.Context(), kind, format, src, opts...)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPreviewResponse(session))
}

// handleGetPreview returns a stored preview.
func (s *Server) handleGetPreview(w http.ResponseWriter, r *http.Request) {
	id, err := previewIDParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	session, err := s.service.GetPreview(id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPreviewResponse(session))
}

// handleDiscardPreview drops a stored preview without importing it.
func (s *Server) handleDiscardPreview(w http.ResponseWriter, r *http.Request) {
	id, err := previewIDParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !s.service.DiscardPreview(id) {
		respondError(w, r, core.ErrPreviewNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleConfirm imports a stored preview, applying any row overrides.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	id, err := previewIDParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, r, fmt.Errorf("%w: invalid confirm body: %v", errBadRequest, err))
		return
	}

	result, err := s.service.ConfirmPreview(withOrigin(r.Context(), r), id, req.Overrides)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// uploadSource returns the import file of r and its client-side name, if
// any. Raw bodies are bounded by the service itself.
func (s *Server) uploadSource(w http.ResponseWriter, r *http.Request) (io.ReadCloser, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, "", nil
	}

	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("%w: invalid form: %v", errBadRequest, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("%w: no file provided", errBadRequest)
	}
	return file, header.Filename, nil
}

func previewIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "previewID"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid preview id", errBadRequest)
	}
	return id, nil
}
