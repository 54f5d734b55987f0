package similarity

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/willbda/happy-to-have-lived-sub002/internal/domain"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Morning run", []string{"morning", "run"}},
		{"Run, then stretch!", []string{"run", "then", "stretch"}},
		{"Café au lait", []string{"cafe", "lait"}},
		{"STRASSE", []string{"strasse"}},
		{"go to it", []string{}},
		{"", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Tokenize(tt.input)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := NewFingerprint("morning run in the park")
	b := NewFingerprint("Morning Run in the Park")
	if got := CosineSimilarity(a, b); math.Abs(got-1) > 1e-9 {
		t.Errorf("identical text score = %v, want 1", got)
	}

	c := NewFingerprint("evening swim")
	if got := CosineSimilarity(a, c); got != 0 {
		t.Errorf("disjoint text score = %v, want 0", got)
	}

	if got := CosineSimilarity(nil, a); got != 0 {
		t.Errorf("nil fingerprint score = %v, want 0", got)
	}
}

func TestFingerprintFinder(t *testing.T) {
	near := Candidate{ID: uuid.New(), Kind: domain.KindGoal, Title: "Run a marathon", Text: "Run a marathon this spring"}
	exact := Candidate{ID: uuid.New(), Kind: domain.KindGoal, Title: "Run marathon", Text: "run marathon"}
	far := Candidate{ID: uuid.New(), Kind: domain.KindGoal, Title: "Learn piano", Text: "Learn piano"}

	matches, err := FingerprintFinder{}.FindSimilar(context.Background(), "Run marathon", []Candidate{near, far, exact}, 0.5)
	if err != nil {
		t.Fatalf("FindSimilar() error = %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2: %+v", len(matches), matches)
	}
	if matches[0].ID != exact.ID {
		t.Errorf("best match = %q, want %q", matches[0].Title, exact.Title)
	}
	if matches[0].Score < matches[1].Score {
		t.Errorf("matches not sorted by score: %v, %v", matches[0].Score, matches[1].Score)
	}
}

func TestFingerprintFinder_NoTokens(t *testing.T) {
	matches, err := FingerprintFinder{}.FindSimilar(context.Background(), "a b", []Candidate{{Text: "a b"}}, 0)
	if err != nil || matches != nil {
		t.Errorf("FindSimilar() = %v, %v; want nil, nil", matches, err)
	}
}

func TestFingerprintFinder_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := FingerprintFinder{}.FindSimilar(ctx, "morning run", []Candidate{{Text: "morning run"}}, 0.5)
	if err == nil {
		t.Error("expected context error")
	}
}
