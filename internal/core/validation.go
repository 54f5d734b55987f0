package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/willbda/happy-to-have-lived-sub002/internal/domain"
	"github.com/willbda/happy-to-have-lived-sub002/internal/similarity"
	"github.com/willbda/happy-to-have-lived-sub002/internal/store"
)

// DefaultSimilarityThreshold is the minimum score reported as a semantic
// duplicate when no threshold is configured.
const DefaultSimilarityThreshold = 0.85

// sourceRecord is a mapped record with its source position.
type sourceRecord struct {
	Row    int
	Record domain.Record
}

// Validator classifies mapped records against the store. It only reads.
type Validator struct {
	store     store.Reader
	finder    similarity.Finder
	threshold float64
	tags      *validator.Validate
}

// NewValidator creates a Validator. finder may be nil to disable semantic
// duplicate detection.
func NewValidator(r store.Reader, finder similarity.Finder, threshold float64) *Validator {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &Validator{
		store:     r,
		finder:    finder,
		threshold: threshold,
		tags:      store.NewValidate(),
	}
}

// Classify assigns exactly one status to every record, checked in priority
// order: existing id, structural rules, missing references, similarity.
// Store and similarity failures abort the whole call.
func (v *Validator) Classify(ctx context.Context, def KindDefinition, records []sourceRecord, semantic bool) ([]ImportRecord[domain.Record], error) {
	kind := def.Info.Kind

	var candidates []similarity.Candidate
	if semantic && v.finder != nil && len(records) > 0 {
		existing, err := def.FetchAll(ctx, v.store)
		if err != nil {
			return nil, fmt.Errorf("load %s similarity candidates: %w", kind, err)
		}
		candidates = make([]similarity.Candidate, len(existing))
		for i, rec := range existing {
			candidates[i] = similarity.CandidateOf(rec)
		}
	}

	// Same-id pre-pass over the source only, so a row's outcome never
	// depends on how an earlier row was classified.
	firstSeen := make(map[uuid.UUID]int, len(records))
	for _, sr := range records {
		id := sr.Record.RecordID()
		if _, ok := firstSeen[id]; !ok {
			firstSeen[id] = sr.Row
		}
	}

	out := make([]ImportRecord[domain.Record], 0, len(records))
	for _, sr := range records {
		ir, err := v.classify(ctx, def, sr, firstSeen, candidates)
		if err != nil {
			return nil, err
		}
		ir.ShouldImport = ir.Status.DefaultShouldImport()
		out = append(out, ir)
	}
	return out, nil
}

func (v *Validator) classify(ctx context.Context, def KindDefinition, sr sourceRecord, firstSeen map[uuid.UUID]int, candidates []similarity.Candidate) (ImportRecord[domain.Record], error) {
	rec := sr.Record
	ir := ImportRecord[domain.Record]{RowNumber: sr.Row, Record: rec}
	id := rec.RecordID()

	exists, err := v.store.Exists(ctx, def.Info.Kind, id)
	if err != nil {
		return ir, fmt.Errorf("check %s %s: %w", def.Info.Kind, id, err)
	}
	if exists {
		ir.Status = DuplicateID(id)
		ir.Errors = []string{fmt.Sprintf("a %s with id %s already exists", def.Info.Label, id)}
		return ir, nil
	}

	problems := v.structural(rec)
	if def.Rules != nil {
		problems = append(problems, def.Rules(rec)...)
	}
	if first := firstSeen[id]; first != sr.Row {
		problems = append(problems, fmt.Sprintf("duplicate id in file, first seen at row %d", first))
	}
	if len(problems) > 0 {
		ir.Status = ValidationError()
		ir.Errors = problems
		return ir, nil
	}

	if def.References != nil {
		var missingKind domain.Kind
		var missing []string
		for _, ref := range def.References(rec) {
			for _, target := range ref.IDs {
				ok, err := v.store.Exists(ctx, ref.Kind, target)
				if err != nil {
					return ir, fmt.Errorf("check %s %s: %w", ref.Kind, target, err)
				}
				if ok {
					continue
				}
				if missingKind == "" {
					missingKind = ref.Kind
				}
				missing = append(missing, fmt.Sprintf("referenced %s %s not found", ref.Kind, target))
			}
		}
		if missingKind != "" {
			ir.Status = ForeignKeyMissing(missingKind)
			ir.Errors = missing
			return ir, nil
		}
	}

	if len(candidates) > 0 {
		text := rec.SimilarityText()
		matches, err := v.finder.FindSimilar(ctx, text, candidates, v.threshold)
		if err != nil {
			return ir, fmt.Errorf("find similar %s: %w", def.Info.Kind, err)
		}
		if len(matches) > 0 {
			ir.Status = SemanticDuplicate(matches[0].Score)
			ir.Matches = make([]DuplicateMatch, len(matches))
			for i, m := range matches {
				ir.Matches[i] = DuplicateMatch{ID: m.ID, Title: m.Title, Score: m.Score, Kind: m.Kind}
			}
			return ir, nil
		}
	}

	ir.Status = Valid()
	return ir, nil
}

// structural runs the struct-tag rules declared on the domain types.
func (v *Validator) structural(rec domain.Record) []string {
	err := v.tags.Struct(rec)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return msgs
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
