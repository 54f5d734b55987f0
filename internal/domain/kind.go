// Package domain defines the record types exchanged by the import and export
// pipeline. It has no dependencies on storage, transport, or file formats.
package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind identifies one entity kind. The set is closed: every per-kind
// operation dispatches over exactly these values.
type Kind string

const (
	KindAction Kind = "action"
	KindGoal   Kind = "goal"
	KindValue  Kind = "value"
	KindTerm   Kind = "term"
)

// ErrUnknownKind is returned for input that names no supported kind.
var ErrUnknownKind = errors.New("unknown kind")

// Kinds returns every supported kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindAction, KindGoal, KindValue, KindTerm}
}

// ParseKind converts user input ("Action", "goals", "value") to a Kind.
func ParseKind(s string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.TrimSuffix(key, "s")
	for _, k := range Kinds() {
		if string(k) == key {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Label returns the display name of the kind.
func (k Kind) Label() string {
	switch k {
	case KindAction:
		return "Action"
	case KindGoal:
		return "Goal"
	case KindValue:
		return "Personal Value"
	case KindTerm:
		return "Term"
	default:
		return string(k)
	}
}

// Record is one domain entity instance of any supported kind.
type Record interface {
	RecordID() uuid.UUID
	RecordKind() Kind
	DisplayTitle() string
	// SimilarityText is the text compared against existing records when
	// looking for near-duplicates.
	SimilarityText() string
}
