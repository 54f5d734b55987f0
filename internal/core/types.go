package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/willbda/happy-to-have-lived-sub002/internal/domain"
)

// Format is a serialization format of import sources and export files.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat converts user input ("CSV", "json", ".csv") to a Format.
// An empty string selects FormatCSV.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "", "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format: %q", s)
	}
}

// ContentType returns the MIME type written for the format.
func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv; charset=utf-8"
}

// StatusType names one ImportStatus case.
type StatusType string

const (
	StatusValid             StatusType = "valid"
	StatusDuplicateID       StatusType = "duplicateId"
	StatusSemanticDuplicate StatusType = "semanticDuplicate"
	StatusValidationError   StatusType = "validationError"
	StatusForeignKeyMissing StatusType = "foreignKeyMissing"
)

// Status is the classification of one previewed record. Only the payload
// field that belongs to Type is set.
type Status struct {
	Type        StatusType
	ExistingID  uuid.UUID   // StatusDuplicateID
	Score       float64     // StatusSemanticDuplicate
	MissingKind domain.Kind // StatusForeignKeyMissing
}

func Valid() Status { return Status{Type: StatusValid} }

func DuplicateID(existing uuid.UUID) Status {
	return Status{Type: StatusDuplicateID, ExistingID: existing}
}

func SemanticDuplicate(score float64) Status {
	return Status{Type: StatusSemanticDuplicate, Score: score}
}

func ValidationError() Status { return Status{Type: StatusValidationError} }

func ForeignKeyMissing(kind domain.Kind) Status {
	return Status{Type: StatusForeignKeyMissing, MissingKind: kind}
}

// String renders the status with its payload, e.g. "semanticDuplicate(0.91)".
func (s Status) String() string {
	switch s.Type {
	case StatusDuplicateID:
		return fmt.Sprintf("%s(%s)", s.Type, s.ExistingID)
	case StatusSemanticDuplicate:
		return fmt.Sprintf("%s(%.2f)", s.Type, s.Score)
	case StatusForeignKeyMissing:
		return fmt.Sprintf("%s(%s)", s.Type, s.MissingKind)
	default:
		return string(s.Type)
	}
}

// DefaultShouldImport is the import flag a record starts with for the status.
// Semantic duplicates are advisory and stay importable.
func (s Status) DefaultShouldImport() bool {
	switch s.Type {
	case StatusValid, StatusSemanticDuplicate:
		return true
	default:
		return false
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	out := struct {
		Type        StatusType  `json:"type"`
		ExistingID  *uuid.UUID  `json:"existingId,omitempty"`
		Score       *float64    `json:"score,omitempty"`
		MissingKind domain.Kind `json:"missingKind,omitempty"`
	}{Type: s.Type, MissingKind: s.MissingKind}
	switch s.Type {
	case StatusDuplicateID:
		out.ExistingID = &s.ExistingID
	case StatusSemanticDuplicate:
		out.Score = &s.Score
	}
	return json.Marshal(out)
}

// DuplicateMatch is an existing record that an incoming record resembles.
type DuplicateMatch struct {
	ID    uuid.UUID   `json:"id"`
	Title string      `json:"title"`
	Score float64     `json:"score"`
	Kind  domain.Kind `json:"kind"`
}

// ImportRecord is a decoded record with its preview classification.
// RowNumber is diagnostic only and never used as identity.
type ImportRecord[T domain.Record] struct {
	RowNumber    int
	Record       T
	Status       Status
	Errors       []string
	Matches      []DuplicateMatch
	ShouldImport bool
}

func (r ImportRecord[T]) MarshalJSON() ([]byte, error) {
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	matches := r.Matches
	if matches == nil {
		matches = []DuplicateMatch{}
	}
	return json.Marshal(struct {
		RowNumber    int              `json:"rowNumber"`
		ID           uuid.UUID        `json:"id"`
		Kind         domain.Kind      `json:"kind"`
		Title        string           `json:"title"`
		Status       Status           `json:"status"`
		Errors       []string         `json:"errors"`
		Matches      []DuplicateMatch `json:"matches"`
		ShouldImport bool             `json:"shouldImport"`
	}{
		RowNumber:    r.RowNumber,
		ID:           r.Record.RecordID(),
		Kind:         r.Record.RecordKind(),
		Title:        r.Record.DisplayTitle(),
		Status:       r.Status,
		Errors:       errs,
		Matches:      matches,
		ShouldImport: r.ShouldImport,
	})
}

// FailedRecord is a record whose creation failed during confirm.
type FailedRecord struct {
	RowNumber int    `json:"rowNumber"`
	Message   string `json:"message"`
}

// ImportResult accounts for every record passed to confirm:
// TotalRecords == Imported + Skipped + len(Failed).
type ImportResult struct {
	Kind         domain.Kind    `json:"kind"`
	TotalRecords int            `json:"totalRecords"`
	Imported     int            `json:"imported"`
	Skipped      int            `json:"skipped"`
	Failed       []FailedRecord `json:"failed"`
	Duration     time.Duration  `json:"durationNs"`
	Cancelled    bool           `json:"cancelled"`
}

// Balanced reports whether the accounting invariant holds.
func (r ImportResult) Balanced() bool {
	return r.TotalRecords == r.Imported+r.Skipped+len(r.Failed)
}

// Reference is one outgoing link of a record to records of another kind.
type Reference struct {
	Kind domain.Kind
	IDs  []uuid.UUID
}
