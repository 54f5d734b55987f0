package kinds

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/willbda/happy-to-have-lived-sub002/internal/core"
	"github.com/willbda/happy-to-have-lived-sub002/internal/domain"
	"github.com/willbda/happy-to-have-lived-sub002/internal/store"
	"github.com/willbda/happy-to-have-lived-sub002/internal/structured"
)

// valueLevelAliases maps loosely written value levels to their canonical
// form. Keys are lower case with spaces and dashes folded to underscores.
var valueLevelAliases = map[string]string{
	"general":       domain.ValueLevelGeneral,
	"major":         domain.ValueLevelMajor,
	"highest_order": domain.ValueLevelHighestOrder,
	"highestorder":  domain.ValueLevelHighestOrder,
	"life_area":     domain.ValueLevelLifeArea,
	"lifearea":      domain.ValueLevelLifeArea,
}

// NormalizeValueLevel converts "Highest Order" or "life-area" to the stored
// spelling. Blank gives the general level; unknown input is returned
// trimmed so validation can report it.
func NormalizeValueLevel(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.ValueLevelGeneral
	}
	key := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(s))
	if level, ok := valueLevelAliases[key]; ok {
		return level
	}
	return s
}

// idOrNew keeps an existing sub-item id and allocates one when absent.
func idOrNew(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}

// newLinks builds relationship rows, each with a fresh id.
func newLinks(targets []uuid.UUID) []store.Link {
	if len(targets) == 0 {
		return nil
	}
	links := make([]store.Link, len(targets))
	for i, target := range targets {
		links[i] = store.Link{ID: uuid.New(), TargetID: target}
	}
	return links
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// optTime gives nil for a missing time so it encodes as null.
func optTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return structured.FormatTime(*t)
}

func finite(field string, v float64) []string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []string{field + " must be a finite number"}
	}
	return nil
}

func recordAs[T domain.Record](rec domain.Record) (T, error) {
	out, ok := rec.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("unexpected record type %T, want %T", rec, zero)
	}
	return out, nil
}

func requestAs[T any](req any) (T, error) {
	out, ok := req.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("unexpected request type %T, want %T", req, zero)
	}
	return out, nil
}

func records[T any, P interface {
	*T
	domain.Record
}](items []T) []domain.Record {
	out := make([]domain.Record, len(items))
	for i := range items {
		out[i] = P(&items[i])
	}
	return out
}

func references(kind domain.Kind, ids []uuid.UUID) []core.Reference {
	if len(ids) == 0 {
		return nil
	}
	return []core.Reference{{Kind: kind, IDs: ids}}
}
