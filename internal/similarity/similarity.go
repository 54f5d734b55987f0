// Package similarity finds existing records whose text closely resembles an
// incoming record.
//
// The default [FingerprintFinder] compares token term-frequency vectors by
// cosine similarity. Text is folded before tokenizing: compatibility
// decomposition, combining marks dropped, then Unicode case folding, so
// "Café" and "cafe" produce the same token.
package similarity

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/willbda/happy-to-have-lived-sub002/internal/domain"
)

// Candidate is an existing record that incoming text is compared against.
type Candidate struct {
	ID    uuid.UUID
	Kind  domain.Kind
	Title string
	Text  string
}

// CandidateOf builds a Candidate from a stored record.
func CandidateOf(r domain.Record) Candidate {
	return Candidate{
		ID:    r.RecordID(),
		Kind:  r.RecordKind(),
		Title: r.DisplayTitle(),
		Text:  r.SimilarityText(),
	}
}

// Match is a candidate scoring at or above the requested threshold.
type Match struct {
	Candidate
	Score float64
}

// Finder reports candidates similar to text. Results are sorted by
// descending score.
type Finder interface {
	FindSimilar(ctx context.Context, text string, candidates []Candidate, threshold float64) ([]Match, error)
}

// FingerprintFinder scores candidates by token cosine similarity.
type FingerprintFinder struct{}

// FindSimilar implements Finder.
func (FingerprintFinder) FindSimilar(ctx context.Context, text string, candidates []Candidate, threshold float64) ([]Match, error) {
	query := NewFingerprint(text)
	if query == nil {
		return nil, nil
	}

	var matches []Match
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		score := CosineSimilarity(query, NewFingerprint(c.Text))
		if score >= threshold && score > 0 {
			matches = append(matches, Match{Candidate: c, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches, nil
}

// Fingerprint is a term-frequency vector.
type Fingerprint struct {
	tokens map[string]float64
	norm   float64
}

// NewFingerprint returns nil if text has no usable tokens.
func NewFingerprint(text string) *Fingerprint {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	var sum float64
	for _, count := range counts {
		sum += count * count
	}
	return &Fingerprint{tokens: counts, norm: math.Sqrt(sum)}
}

// minTokenLen drops short connective words ("a", "to", "of").
const minTokenLen = 3

var folder = cases.Fold()

// Tokenize folds text and splits it on anything that is not a letter or digit.
func Tokenize(text string) []string {
	stripped, _, err := transform.String(
		transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		text,
	)
	if err != nil {
		stripped = text
	}
	folded := folder.String(stripped)

	raw := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := raw[:0]
	for _, token := range raw {
		if len([]rune(token)) < minTokenLen {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// CosineSimilarity returns 0 if either fingerprint is nil.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for token, count := range a.tokens {
		if other, ok := b.tokens[token]; ok {
			dot += count * other
		}
	}
	return dot / (a.norm * b.norm)
}
