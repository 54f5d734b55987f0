package core

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/willbda/happy-to-have-lived-sub002/internal/domain"
	"github.com/willbda/happy-to-have-lived-sub002/internal/store"
	"github.com/willbda/happy-to-have-lived-sub002/internal/structured"
)

// KindInfo contains display and layout information about a kind.
type KindInfo struct {
	Kind     domain.Kind `json:"kind"`
	Label    string      `json:"label"`
	Columns  []string    `json:"columns"`  // Tabular header, in export order
	Required []string    `json:"required"` // Columns that must not be blank on import
}

// FromFieldsFunc maps one tabular record to a domain record.
type FromFieldsFunc func(f Fields) (domain.Record, error)

// ToFieldsFunc renders a record as one tabular row in KindInfo.Columns order.
type ToFieldsFunc func(rec domain.Record) ([]string, error)

// FromObjectFunc maps one structured object to a domain record.
type FromObjectFunc func(r *structured.Reader) (domain.Record, error)

// ToObjectFunc renders a record as one structured object.
type ToObjectFunc func(rec domain.Record) (*structured.Object, error)

// RulesFunc returns kind-specific structural problems beyond the struct tags.
type RulesFunc func(rec domain.Record) []string

// ReferencesFunc lists the records rec links to.
type ReferencesFunc func(rec domain.Record) []Reference

// TransformFunc builds the creation request for an importable record.
type TransformFunc func(rec domain.Record) (any, error)

// CreateFunc submits a request built by TransformFunc.
type CreateFunc func(ctx context.Context, w store.Writer, req any) error

// FetchAllFunc reads every stored record of the kind.
type FetchAllFunc func(ctx context.Context, r store.Reader) ([]domain.Record, error)

// KindDefinition contains everything needed to import and export one kind.
type KindDefinition struct {
	Info       KindInfo
	FromFields FromFieldsFunc
	ToFields   ToFieldsFunc
	FromObject FromObjectFunc
	ToObject   ToObjectFunc
	Rules      RulesFunc      // Optional
	References ReferencesFunc // Optional
	Transform  TransformFunc
	Create     CreateFunc
	FetchAll   FetchAllFunc
}

var (
	registry   = make(map[domain.Kind]KindDefinition)
	registryMu sync.RWMutex
)

// Register adds a kind definition to the registry.
// Panics if the kind is already registered or the definition is incomplete.
func Register(def KindDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	kind := def.Info.Kind
	if _, exists := registry[kind]; exists {
		panic(fmt.Sprintf("kind already registered: %s", kind))
	}
	if len(def.Info.Columns) == 0 || def.FromFields == nil || def.ToFields == nil ||
		def.FromObject == nil || def.ToObject == nil || def.Transform == nil ||
		def.Create == nil || def.FetchAll == nil {
		panic(fmt.Sprintf("incomplete kind definition: %s", kind))
	}
	if def.Info.Label == "" {
		def.Info.Label = kind.Label()
	}

	registry[kind] = def
}

// Get returns a kind definition.
// Returns false if not found.
func Get(kind domain.Kind) (KindDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[kind]
	return def, ok
}

// All returns all registered kind definitions in domain.Kinds order.
func All() []KindDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	order := make(map[domain.Kind]int)
	for i, k := range domain.Kinds() {
		order[k] = i
	}

	result := make([]KindDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}
	sort.Slice(result, func(i, j int) bool {
		return order[result[i].Info.Kind] < order[result[j].Info.Kind]
	})
	return result
}

// Clear removes all registered kinds.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[domain.Kind]KindDefinition)
}

func lookup(kind domain.Kind) (KindDefinition, error) {
	def, ok := Get(kind)
	if !ok {
		return KindDefinition{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return def, nil
}
