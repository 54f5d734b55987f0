package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willbda/happy-to-have-lived-sub002/internal/domain"
	"github.com/willbda/happy-to-have-lived-sub002/internal/store"
)

func TestCreateAction_ResolvesCatalog(t *testing.T) {
	s := New()
	ctx := context.Background()

	logged := time.Date(2025, 5, 1, 6, 0, 0, 0, time.FixedZone("PDT", -7*3600))
	require.NoError(t, s.CreateAction(ctx, store.NewAction{
		ID: uuid.New(), Title: "Run", LogTime: logged,
		Measurements: []store.NewMeasurement{{ID: uuid.New(), Unit: " km ", MeasureType: "distance", Value: 5}},
	}))
	require.NoError(t, s.CreateAction(ctx, store.NewAction{
		ID: uuid.New(), Title: "Run again", LogTime: logged,
		Measurements: []store.NewMeasurement{{ID: uuid.New(), Unit: "KM", MeasureType: "Distance", Value: 8}},
	}))

	measures, err := s.Measures(ctx)
	require.NoError(t, err)
	require.Len(t, measures, 1)
	assert.Equal(t, "km", measures[0].Unit)

	actions, err := s.FetchActions(ctx)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "Run", actions[0].Title, "insertion order is kept")
	assert.Equal(t, "km", actions[1].Measurements[0].Unit)
	assert.Equal(t, time.UTC, actions[0].LogTime.Location())
}

func TestCreate_DuplicateAndMissingReference(t *testing.T) {
	s := New()
	ctx := context.Background()

	goal := store.NewGoal{ID: uuid.New(), Title: "Read more"}
	require.NoError(t, s.CreateGoal(ctx, goal))

	err := s.CreateGoal(ctx, goal)
	assert.True(t, errors.Is(err, store.ErrDuplicateKey), "error = %v", err)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	termID := uuid.New()
	err = s.CreateTerm(ctx, store.NewTerm{
		ID: termID, TermNumber: 1, StartDate: start, TargetDate: start.AddDate(0, 0, 70),
		Goals: []store.Link{{ID: uuid.New(), TargetID: goal.ID}, {ID: uuid.New(), TargetID: uuid.New()}},
	})
	assert.True(t, errors.Is(err, store.ErrMissingReference), "error = %v", err)

	exists, err := s.Exists(ctx, domain.KindTerm, termID)
	require.NoError(t, err)
	assert.False(t, exists, "failed create must not persist anything")
}

func TestCreate_InvalidRequest(t *testing.T) {
	s := New()
	err := s.CreateValue(context.Background(), store.NewValue{ID: uuid.New(), Title: "x", Priority: 0, ValueLevel: "general"})
	assert.True(t, errors.Is(err, store.ErrInvalidRequest), "error = %v", err)

	err = s.CreateValue(context.Background(), store.NewValue{ID: uuid.New(), Title: " \t ", Priority: 10, ValueLevel: "general"})
	assert.ErrorIs(t, err, store.ErrInvalidRequest, "a whitespace title is blank")

	values, err := s.FetchValues(context.Background())
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestExists_UnknownKind(t *testing.T) {
	_, err := New().Exists(context.Background(), domain.Kind("habit"), uuid.New())
	assert.Error(t, err)
}

func TestFetch_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateValue(ctx, store.NewValue{ID: uuid.New(), Title: "Health", Priority: 1, ValueLevel: "major"}))

	values, err := s.FetchValues(ctx)
	require.NoError(t, err)
	values[0].Title = "changed"

	again, err := s.FetchValues(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Health", again[0].Title)

	goalID := uuid.New()
	require.NoError(t, s.CreateGoal(ctx, store.NewGoal{ID: goalID, Title: "Run a marathon"}))
	started := time.Date(2025, 1, 1, 7, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateAction(ctx, store.NewAction{
		ID: uuid.New(), Title: "Run", LogTime: started.Add(time.Hour), StartTime: &started,
		Measurements: []store.NewMeasurement{{ID: uuid.New(), Unit: "km", Value: 5}},
		Goals:        []store.Link{{ID: uuid.New(), TargetID: goalID}},
	}))

	actions, err := s.FetchActions(ctx)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	actions[0].Measurements[0].Value = 999
	actions[0].GoalIDs[0] = uuid.Nil
	*actions[0].StartTime = started.Add(24 * time.Hour)

	fresh, err := s.FetchActions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5.0, fresh[0].Measurements[0].Value)
	assert.Equal(t, []uuid.UUID{goalID}, fresh[0].GoalIDs)
	assert.Equal(t, started, *fresh[0].StartTime)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New()
	err := s.CreateValue(ctx, store.NewValue{ID: uuid.New(), Title: "Health", Priority: 1, ValueLevel: "major"})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.FetchGoals(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentCreates(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.CreateAction(ctx, store.NewAction{
				ID: uuid.New(), Title: "Walk", LogTime: time.Now(),
				Measurements: []store.NewMeasurement{{ID: uuid.New(), Unit: "steps", Value: 1000}},
			})
		}()
	}
	wg.Wait()

	actions, err := s.FetchActions(ctx)
	require.NoError(t, err)
	assert.Len(t, actions, 50)
	measures, err := s.Measures(ctx)
	require.NoError(t, err)
	assert.Len(t, measures, 1)
}
