package sqlstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/willbda/happy-to-have-lived-sub002/internal/domain"
)

func (s *Store) FetchActions(ctx context.Context) ([]domain.Action, error) {
	sb := s.flavor.NewSelectBuilder()
	sb.Select("id", "title", "description", "notes", "log_time", "start_time", "duration_minutes").
		From("actions").
		OrderBy("title", "id")
	query, args := sb.Build()

	var actions []domain.Action
	err := each(ctx, s.db, query, args, func(r rows) error {
		var (
			a                  domain.Action
			id, logTime, start string
		)
		if err := r.Scan(&id, &a.Title, &a.Description, &a.Notes, &logTime, &start, &a.DurationMinutes); err != nil {
			return err
		}
		var err error
		if a.ID, err = parseID(id); err != nil {
			return err
		}
		if a.LogTime, err = parseTime(logTime); err != nil {
			return err
		}
		if a.StartTime, err = parseOptTime(start); err != nil {
			return err
		}
		actions = append(actions, a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch actions: %w", err)
	}

	measurements, err := s.fetchMeasurements(ctx)
	if err != nil {
		return nil, err
	}
	goals, err := s.fetchLinks(ctx, "action_goals", "action_id", "goal_id")
	if err != nil {
		return nil, err
	}
	for i := range actions {
		actions[i].Measurements = measurements[actions[i].ID]
		actions[i].GoalIDs = goals[actions[i].ID]
	}
	return actions, nil
}

func (s *Store) fetchMeasurements(ctx context.Context) (map[uuid.UUID][]domain.Measurement, error) {
	sb := s.flavor.NewSelectBuilder()
	sb.Select("am.action_id", "am.id", "m.unit", "m.measure_type", "am.value").
		From(sb.As("action_measurements", "am")).
		Join(sb.As("measures", "m"), "m.id = am.measure_id").
		OrderBy("am.action_id", "am.position")
	query, args := sb.Build()

	out := make(map[uuid.UUID][]domain.Measurement)
	err := each(ctx, s.db, query, args, func(r rows) error {
		var (
			owner, id string
			m         domain.Measurement
		)
		if err := r.Scan(&owner, &id, &m.Unit, &m.MeasureType, &m.Value); err != nil {
			return err
		}
		ownerID, err := parseID(owner)
		if err != nil {
			return err
		}
		if m.ID, err = parseID(id); err != nil {
			return err
		}
		out[ownerID] = append(out[ownerID], m)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch measurements: %w", err)
	}
	return out, nil
}

func (s *Store) FetchGoals(ctx context.Context) ([]domain.Goal, error) {
	sb := s.flavor.NewSelectBuilder()
	sb.Select("id", "title", "description", "notes", "start_date", "target_date", "action_plan", "expected_term_length").
		From("goals").
		OrderBy("title", "id")
	query, args := sb.Build()

	var goals []domain.Goal
	err := each(ctx, s.db, query, args, func(r rows) error {
		var (
			g                 domain.Goal
			id, start, target string
		)
		if err := r.Scan(&id, &g.Title, &g.Description, &g.Notes, &start, &target, &g.ActionPlan, &g.ExpectedTermLength); err != nil {
			return err
		}
		var err error
		if g.ID, err = parseID(id); err != nil {
			return err
		}
		if g.StartDate, err = parseOptTime(start); err != nil {
			return err
		}
		if g.TargetDate, err = parseOptTime(target); err != nil {
			return err
		}
		goals = append(goals, g)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch goals: %w", err)
	}

	targets, err := s.fetchTargets(ctx)
	if err != nil {
		return nil, err
	}
	values, err := s.fetchLinks(ctx, "goal_values", "goal_id", "value_id")
	if err != nil {
		return nil, err
	}
	for i := range goals {
		goals[i].Targets = targets[goals[i].ID]
		goals[i].ValueIDs = values[goals[i].ID]
	}
	return goals, nil
}

func (s *Store) fetchTargets(ctx context.Context) (map[uuid.UUID][]domain.MeasureTarget, error) {
	sb := s.flavor.NewSelectBuilder()
	sb.Select("gt.goal_id", "gt.id", "m.unit", "m.measure_type", "gt.target_value", "gt.notes").
		From(sb.As("goal_targets", "gt")).
		Join(sb.As("measures", "m"), "m.id = gt.measure_id").
		OrderBy("gt.goal_id", "gt.position")
	query, args := sb.Build()

	out := make(map[uuid.UUID][]domain.MeasureTarget)
	err := each(ctx, s.db, query, args, func(r rows) error {
		var (
			owner, id string
			t         domain.MeasureTarget
		)
		if err := r.Scan(&owner, &id, &t.Unit, &t.MeasureType, &t.TargetValue, &t.Notes); err != nil {
			return err
		}
		ownerID, err := parseID(owner)
		if err != nil {
			return err
		}
		if t.ID, err = parseID(id); err != nil {
			return err
		}
		out[ownerID] = append(out[ownerID], t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch targets: %w", err)
	}
	return out, nil
}

func (s *Store) FetchValues(ctx context.Context) ([]domain.PersonalValue, error) {
	sb := s.flavor.NewSelectBuilder()
	sb.Select("id", "title", "description", "notes", "priority", "value_level", "life_domain", "alignment_guidance").
		From("personal_values").
		OrderBy("priority", "title", "id")
	query, args := sb.Build()

	var values []domain.PersonalValue
	err := each(ctx, s.db, query, args, func(r rows) error {
		var (
			v  domain.PersonalValue
			id string
		)
		if err := r.Scan(&id, &v.Title, &v.Description, &v.Notes, &v.Priority, &v.ValueLevel, &v.LifeDomain, &v.AlignmentGuidance); err != nil {
			return err
		}
		var err error
		if v.ID, err = parseID(id); err != nil {
			return err
		}
		values = append(values, v)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch values: %w", err)
	}
	return values, nil
}

func (s *Store) FetchTerms(ctx context.Context) ([]domain.Term, error) {
	sb := s.flavor.NewSelectBuilder()
	sb.Select("id", "title", "term_number", "theme", "start_date", "target_date", "reflection").
		From("terms").
		OrderBy("term_number", "id")
	query, args := sb.Build()

	var terms []domain.Term
	err := each(ctx, s.db, query, args, func(r rows) error {
		var (
			t                 domain.Term
			id, start, target string
		)
		if err := r.Scan(&id, &t.Title, &t.TermNumber, &t.Theme, &start, &target, &t.Reflection); err != nil {
			return err
		}
		var err error
		if t.ID, err = parseID(id); err != nil {
			return err
		}
		if t.StartDate, err = parseTime(start); err != nil {
			return err
		}
		if t.TargetDate, err = parseTime(target); err != nil {
			return err
		}
		terms = append(terms, t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch terms: %w", err)
	}

	goals, err := s.fetchLinks(ctx, "term_goals", "term_id", "goal_id")
	if err != nil {
		return nil, err
	}
	for i := range terms {
		terms[i].GoalIDs = goals[terms[i].ID]
	}
	return terms, nil
}

func (s *Store) Measures(ctx context.Context) ([]domain.Measure, error) {
	sb := s.flavor.NewSelectBuilder()
	sb.Select("id", "unit", "measure_type").From("measures").OrderBy("unit", "measure_type")
	query, args := sb.Build()

	var measures []domain.Measure
	err := each(ctx, s.db, query, args, func(r rows) error {
		var (
			m  domain.Measure
			id string
		)
		if err := r.Scan(&id, &m.Unit, &m.MeasureType); err != nil {
			return err
		}
		var err error
		if m.ID, err = parseID(id); err != nil {
			return err
		}
		measures = append(measures, m)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch measures: %w", err)
	}
	return measures, nil
}

// fetchLinks returns every relationship row of table grouped by owner, in
// stored position order.
func (s *Store) fetchLinks(ctx context.Context, table, ownerCol, targetCol string) (map[uuid.UUID][]uuid.UUID, error) {
	sb := s.flavor.NewSelectBuilder()
	sb.Select(ownerCol, targetCol).From(table).OrderBy(ownerCol, "position")
	query, args := sb.Build()

	out := make(map[uuid.UUID][]uuid.UUID)
	err := each(ctx, s.db, query, args, func(r rows) error {
		var owner, target string
		if err := r.Scan(&owner, &target); err != nil {
			return err
		}
		ownerID, err := parseID(owner)
		if err != nil {
			return err
		}
		targetID, err := parseID(target)
		if err != nil {
			return err
		}
		out[ownerID] = append(out[ownerID], targetID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", table, err)
	}
	return out, nil
}
