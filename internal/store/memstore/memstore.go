// Package memstore is an in-memory store.Store. It keeps insertion order, so
// fetches return records in the order they were created.
package memstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/willbda/happy-to-have-lived-sub002/internal/domain"
	"github.com/willbda/happy-to-have-lived-sub002/internal/store"
)

// Store is safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	actions []domain.Action
	goals   []domain.Goal
	values  []domain.PersonalValue
	terms   []domain.Term

	ids      map[domain.Kind]map[uuid.UUID]bool
	measures []domain.Measure
	catalog  map[string]int // folded unit/type key -> index into measures
}

var _ store.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	s := &Store{
		ids:     make(map[domain.Kind]map[uuid.UUID]bool),
		catalog: make(map[string]int),
	}
	for _, k := range domain.Kinds() {
		s.ids[k] = make(map[uuid.UUID]bool)
	}
	return s
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) Exists(ctx context.Context, kind domain.Kind, id uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids, ok := s.ids[kind]
	if !ok {
		return false, fmt.Errorf("unknown kind %q", kind)
	}
	return ids[id], nil
}

func (s *Store) FetchActions(ctx context.Context) ([]domain.Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEach(s.actions, cloneAction), ctx.Err()
}

func (s *Store) FetchGoals(ctx context.Context) ([]domain.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEach(s.goals, cloneGoal), ctx.Err()
}

func (s *Store) FetchValues(ctx context.Context) ([]domain.PersonalValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.values), ctx.Err()
}

func (s *Store) FetchTerms(ctx context.Context) ([]domain.Term, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEach(s.terms, cloneTerm), ctx.Err()
}

func (s *Store) Measures(ctx context.Context) ([]domain.Measure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.measures), ctx.Err()
}

func (s *Store) CreateAction(ctx context.Context, req store.NewAction) error {
	if err := store.Check(req); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.precheck(ctx, domain.KindAction, req.ID, domain.KindGoal, req.Goals); err != nil {
		return err
	}
	s.actions = append(s.actions, req.ToAction(s.resolveMeasure))
	s.ids[domain.KindAction][req.ID] = true
	return nil
}

func (s *Store) CreateGoal(ctx context.Context, req store.NewGoal) error {
	if err := store.Check(req); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.precheck(ctx, domain.KindGoal, req.ID, domain.KindValue, req.Values); err != nil {
		return err
	}
	s.goals = append(s.goals, req.ToGoal(s.resolveMeasure))
	s.ids[domain.KindGoal][req.ID] = true
	return nil
}

func (s *Store) CreateValue(ctx context.Context, req store.NewValue) error {
	if err := store.Check(req); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.precheck(ctx, domain.KindValue, req.ID, "", nil); err != nil {
		return err
	}
	s.values = append(s.values, req.ToValue())
	s.ids[domain.KindValue][req.ID] = true
	return nil
}

func (s *Store) CreateTerm(ctx context.Context, req store.NewTerm) error {
	if err := store.Check(req); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.precheck(ctx, domain.KindTerm, req.ID, domain.KindGoal, req.Goals); err != nil {
		return err
	}
	s.terms = append(s.terms, req.ToTerm())
	s.ids[domain.KindTerm][req.ID] = true
	return nil
}

// precheck runs every check that can fail before anything is mutated, which
// is what makes each create atomic. Caller holds the write lock.
func (s *Store) precheck(ctx context.Context, kind domain.Kind, id uuid.UUID, linkKind domain.Kind, links []store.Link) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.ids[kind][id] {
		return fmt.Errorf("create %s %s: %w", kind, id, store.ErrDuplicateKey)
	}
	for _, l := range links {
		if !s.ids[linkKind][l.TargetID] {
			return fmt.Errorf("create %s %s: %s %s: %w", kind, id, linkKind, l.TargetID, store.ErrMissingReference)
		}
	}
	return nil
}

var fold = cases.Fold()

// resolveMeasure is the get-or-create of the measure catalog. Caller holds
// the write lock.
func (s *Store) resolveMeasure(unit, measureType string) domain.Measure {
	key := fold.String(strings.TrimSpace(unit)) + "\x00" + fold.String(strings.TrimSpace(measureType))
	if i, ok := s.catalog[key]; ok {
		return s.measures[i]
	}
	m := domain.Measure{ID: uuid.New(), Unit: strings.TrimSpace(unit), MeasureType: strings.TrimSpace(measureType)}
	s.catalog[key] = len(s.measures)
	s.measures = append(s.measures, m)
	return m
}

func cloneSlice[T any](in []T) []T {
	if len(in) == 0 {
		return nil
	}
	return append([]T(nil), in...)
}

// cloneEach copies in and applies fn to every element so callers never share
// nested slices or pointers with the store.
func cloneEach[T any](in []T, fn func(T) T) []T {
	out := cloneSlice(in)
	for i := range out {
		out[i] = fn(out[i])
	}
	return out
}

func cloneAction(a domain.Action) domain.Action {
	a.StartTime = cloneTime(a.StartTime)
	a.Measurements = cloneSlice(a.Measurements)
	a.GoalIDs = cloneSlice(a.GoalIDs)
	return a
}

func cloneGoal(g domain.Goal) domain.Goal {
	g.StartDate = cloneTime(g.StartDate)
	g.TargetDate = cloneTime(g.TargetDate)
	g.Targets = cloneSlice(g.Targets)
	g.ValueIDs = cloneSlice(g.ValueIDs)
	return g
}

func cloneTerm(t domain.Term) domain.Term {
	t.GoalIDs = cloneSlice(t.GoalIDs)
	return t
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
