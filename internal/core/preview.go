package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/willbda/happy-to-have-lived-sub002/internal/domain"
	"github.com/willbda/happy-to-have-lived-sub002/internal/logging"
	"github.com/willbda/happy-to-have-lived-sub002/internal/metrics"
)

// DefaultPreviewTTL is how long a stored preview waits for confirmation.
const DefaultPreviewTTL = 30 * time.Minute

var (
	// ErrPreviewNotFound is returned for unknown, consumed or expired previews.
	ErrPreviewNotFound = errors.New("preview not found or expired")

	// ErrUnknownRow is returned when an override names a row the preview
	// does not contain.
	ErrUnknownRow = errors.New("override for unknown row")
)

// PreviewSession is a stored preview awaiting confirmation.
type PreviewSession struct {
	ID        uuid.UUID                     `json:"previewId"`
	Kind      domain.Kind                   `json:"kind"`
	Format    Format                        `json:"format"`
	Records   []ImportRecord[domain.Record] `json:"records"`
	CreatedAt time.Time                     `json:"createdAt"`
	ExpiresAt time.Time                     `json:"expiresAt"`
}

// StartPreview runs Preview and stores the result for a later
// ConfirmPreview.
func (s *Service) StartPreview(ctx context.Context, kind domain.Kind, format Format, src io.Reader, opts ...PreviewOption) (*PreviewSession, error) {
	records, err := s.Preview(ctx, kind, format, src, opts...)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &PreviewSession{
		ID:        uuid.New(),
		Kind:      kind,
		Format:    format,
		Records:   records,
		CreatedAt: now,
		ExpiresAt: now.Add(s.opts.PreviewTTL),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	count := len(s.sessions)
	s.mu.Unlock()
	metrics.PreviewSessions.Set(float64(count))

	logging.FromContext(ctx).Debug("preview stored", "preview_id", session.ID, "kind", kind, "rows", len(records))
	return session.snapshot(), nil
}

// GetPreview returns a copy of a stored preview.
func (s *Service) GetPreview(id uuid.UUID) (*PreviewSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || !s.now().Before(session.ExpiresAt) {
		return nil, ErrPreviewNotFound
	}
	return session.snapshot(), nil
}

// ConfirmPreview applies per-row ShouldImport overrides to a stored preview
// and confirms it. The preview is consumed once any record was written or
// attempted; a confirm that fails before touching the store leaves it in place.
func (s *Service) ConfirmPreview(ctx context.Context, id uuid.UUID, overrides map[int]bool) (ImportResult, error) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	if !ok || !s.now().Before(session.ExpiresAt) {
		s.mu.Unlock()
		return ImportResult{}, ErrPreviewNotFound
	}
	records := session.snapshot().Records
	if err := applyOverrides(records, overrides); err != nil {
		s.mu.Unlock()
		return ImportResult{}, err
	}
	delete(s.sessions, id)
	count := len(s.sessions)
	s.mu.Unlock()
	metrics.PreviewSessions.Set(float64(count))

	result, err := s.Confirm(ctx, records)
	if err != nil && result.Imported == 0 && len(result.Failed) == 0 {
		// Nothing was written, so the client may retry the same preview.
		s.mu.Lock()
		s.sessions[id] = session
		s.mu.Unlock()
	}
	return result, err
}

// DiscardPreview drops a stored preview. It reports whether one existed.
func (s *Service) DiscardPreview(id uuid.UUID) bool {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	count := len(s.sessions)
	s.mu.Unlock()
	metrics.PreviewSessions.Set(float64(count))
	return ok
}

// SweepExpired drops every expired preview and returns how many it removed.
func (s *Service) SweepExpired() int {
	now := s.now()

	s.mu.Lock()
	removed := 0
	for id, session := range s.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	count := len(s.sessions)
	s.mu.Unlock()

	metrics.PreviewSessions.Set(float64(count))
	return removed
}

func applyOverrides(records []ImportRecord[domain.Record], overrides map[int]bool) error {
	if len(overrides) == 0 {
		return nil
	}
	byRow := make(map[int]int, len(records))
	for i, r := range records {
		byRow[r.RowNumber] = i
	}
	for row := range overrides {
		if _, ok := byRow[row]; !ok {
			return fmt.Errorf("%w: %d", ErrUnknownRow, row)
		}
	}
	for row, include := range overrides {
		records[byRow[row]].ShouldImport = include
	}
	return nil
}

// snapshot copies the record slice so callers can edit flags freely.
func (p *PreviewSession) snapshot() *PreviewSession {
	cp := *p
	cp.Records = append([]ImportRecord[domain.Record](nil), p.Records...)
	return &cp
}
