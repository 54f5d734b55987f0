package web

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/willbda/happy-to-have-lived-sub002/internal/core"
	"github.com/willbda/happy-to-have-lived-sub002/internal/domain"
)

// exportStamp matches the file names written by core.Service.ExportFile.
const exportStamp = "20060102T150405Z"

// handleHealth reports liveness and confirm capacity.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"imports": s.service.Limiter().Status(),
	})
}

// handleListKinds returns the registered kinds with their tabular columns.
func (s *Server) handleListKinds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Kinds())
}

// handleDownloadTemplate serves a header-only CSV for a kind.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	data, err := s.service.Template(kind)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", core.FormatCSV.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-template.csv"`, kind))
	w.Write(data)
}

// handleExport downloads every stored record of a kind.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	format, err := formatParam(r, "")
	if err != nil {
		respondError(w, r, err)
		return
	}

	// Buffer so a failed export still gets a proper error status.
	var buf bytes.Buffer
	n, err := s.service.Export(r.Context(), kind, format, &buf)
	if err != nil {
		respondError(w, r, err)
		return
	}

	name := fmt.Sprintf("%s-%s.%s", kind, time.Now().UTC().Format(exportStamp), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Header().Set("X-Record-Count", fmt.Sprint(n))
	w.Write(buf.Bytes())
}

func kindParam(r *http.Request) (domain.Kind, error) {
	return domain.ParseKind(chi.URLParam(r, "kind"))
}

// formatParam reads ?format=, falling back to the extension of filename.
func formatParam(r *http.Request, filename string) (core.Format, error) {
	raw := r.URL.Query().Get("format")
	if raw == "" && filename != "" {
		raw = filepath.Ext(filename)
	}
	format, err := core.ParseFormat(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return format, nil
}
