package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/willbda/happy-to-have-lived-sub002/internal/domain"
	"github.com/willbda/happy-to-have-lived-sub002/internal/store"
)

func (s *Store) CreateAction(ctx context.Context, req store.NewAction) error {
	if err := store.Check(req); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx txn) error {
		if err := s.precheck(ctx, tx, domain.KindAction, req.ID, domain.KindGoal, req.Goals); err != nil {
			return err
		}

		ib := s.flavor.NewInsertBuilder()
		ib.InsertInto("actions").
			Cols("id", "title", "description", "notes", "log_time", "start_time", "duration_minutes").
			Values(req.ID.String(), req.Title, req.Description, req.Notes,
				formatTime(req.LogTime), formatOptTime(req.StartTime), req.DurationMinutes)
		if err := s.exec(ctx, tx, ib); err != nil {
			return fmt.Errorf("insert action %s: %w", req.ID, err)
		}

		for i, m := range req.Measurements {
			measureID, err := s.resolveMeasure(ctx, tx, m.Unit, m.MeasureType)
			if err != nil {
				return err
			}
			ib := s.flavor.NewInsertBuilder()
			ib.InsertInto("action_measurements").
				Cols("id", "action_id", "measure_id", "value", "position").
				Values(m.ID.String(), req.ID.String(), measureID, m.Value, i)
			if err := s.exec(ctx, tx, ib); err != nil {
				return fmt.Errorf("insert measurement %s: %w", m.ID, err)
			}
		}

		return s.insertLinks(ctx, tx, "action_goals", "action_id", "goal_id", req.ID, req.Goals)
	})
}

func (s *Store) CreateGoal(ctx context.Context, req store.NewGoal) error {
	if err := store.Check(req); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx txn) error {
		if err := s.precheck(ctx, tx, domain.KindGoal, req.ID, domain.KindValue, req.Values); err != nil {
			return err
		}

		ib := s.flavor.NewInsertBuilder()
		ib.InsertInto("goals").
			Cols("id", "title", "description", "notes", "start_date", "target_date", "action_plan", "expected_term_length").
			Values(req.ID.String(), req.Title, req.Description, req.Notes,
				formatOptTime(req.StartDate), formatOptTime(req.TargetDate), req.ActionPlan, req.ExpectedTermLength)
		if err := s.exec(ctx, tx, ib); err != nil {
			return fmt.Errorf("insert goal %s: %w", req.ID, err)
		}

		for i, t := range req.Targets {
			measureID, err := s.resolveMeasure(ctx, tx, t.Unit, t.MeasureType)
			if err != nil {
				return err
			}
			ib := s.flavor.NewInsertBuilder()
			ib.InsertInto("goal_targets").
				Cols("id", "goal_id", "measure_id", "target_value", "notes", "position").
				Values(t.ID.String(), req.ID.String(), measureID, t.TargetValue, t.Notes, i)
			if err := s.exec(ctx, tx, ib); err != nil {
				return fmt.Errorf("insert target %s: %w", t.ID, err)
			}
		}

		return s.insertLinks(ctx, tx, "goal_values", "goal_id", "value_id", req.ID, req.Values)
	})
}

func (s *Store) CreateValue(ctx context.Context, req store.NewValue) error {
	if err := store.Check(req); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx txn) error {
		if err := s.precheck(ctx, tx, domain.KindValue, req.ID, "", nil); err != nil {
			return err
		}

		ib := s.flavor.NewInsertBuilder()
		ib.InsertInto("personal_values").
			Cols("id", "title", "description", "notes", "priority", "value_level", "life_domain", "alignment_guidance").
			Values(req.ID.String(), req.Title, req.Description, req.Notes,
				req.Priority, req.ValueLevel, req.LifeDomain, req.AlignmentGuidance)
		if err := s.exec(ctx, tx, ib); err != nil {
			return fmt.Errorf("insert value %s: %w", req.ID, err)
		}
		return nil
	})
}

func (s *Store) CreateTerm(ctx context.Context, req store.NewTerm) error {
	if err := store.Check(req); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx txn) error {
		if err := s.precheck(ctx, tx, domain.KindTerm, req.ID, domain.KindGoal, req.Goals); err != nil {
			return err
		}

		ib := s.flavor.NewInsertBuilder()
		ib.InsertInto("terms").
			Cols("id", "title", "term_number", "theme", "start_date", "target_date", "reflection").
			Values(req.ID.String(), req.Title, req.TermNumber, req.Theme,
				formatTime(req.StartDate), formatTime(req.TargetDate), req.Reflection)
		if err := s.exec(ctx, tx, ib); err != nil {
			return fmt.Errorf("insert term %s: %w", req.ID, err)
		}

		return s.insertLinks(ctx, tx, "term_goals", "term_id", "goal_id", req.ID, req.Goals)
	})
}

func (s *Store) exec(ctx context.Context, q querier, b sqlbuilder.Builder) error {
	query, args := b.Build()
	return q.Exec(ctx, query, args...)
}

// precheck reports duplicate ids and missing link targets as store errors
// before any insert runs. Table constraints remain the final backstop.
func (s *Store) precheck(ctx context.Context, tx txn, kind domain.Kind, id uuid.UUID, linkKind domain.Kind, links []store.Link) error {
	exists, err := s.exists(ctx, tx, kind, id)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("create %s %s: %w", kind, id, store.ErrDuplicateKey)
	}
	for _, l := range links {
		ok, err := s.exists(ctx, tx, linkKind, l.TargetID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("create %s %s: %s %s: %w", kind, id, linkKind, l.TargetID, store.ErrMissingReference)
		}
	}
	return nil
}

func (s *Store) insertLinks(ctx context.Context, tx txn, table, ownerCol, targetCol string, owner uuid.UUID, links []store.Link) error {
	for i, l := range links {
		ib := s.flavor.NewInsertBuilder()
		ib.InsertInto(table).
			Cols("id", ownerCol, targetCol, "position").
			Values(l.ID.String(), owner.String(), l.TargetID.String(), i)
		if err := s.exec(ctx, tx, ib); err != nil {
			return fmt.Errorf("insert %s row: %w", table, err)
		}
	}
	return nil
}

// resolveMeasure is the catalog get-or-create. The lookup folds case on both
// sides in SQL so it agrees with the unique index on
// (lower(unit), lower(measure_type)).
func (s *Store) resolveMeasure(ctx context.Context, tx txn, unit, measureType string) (string, error) {
	unit = strings.TrimSpace(unit)
	measureType = strings.TrimSpace(measureType)

	sb := s.flavor.NewSelectBuilder()
	sb.Select("id").From("measures").Where(
		"lower(unit) = lower(CAST("+sb.Var(unit)+" AS TEXT))",
		"lower(measure_type) = lower(CAST("+sb.Var(measureType)+" AS TEXT))",
	)
	query, args := sb.Build()

	var found []string
	if err := each(ctx, tx, query, args, func(r rows) error {
		var id string
		if err := r.Scan(&id); err != nil {
			return err
		}
		found = append(found, id)
		return nil
	}); err != nil {
		return "", fmt.Errorf("look up measure %q/%q: %w", unit, measureType, err)
	}
	if len(found) > 0 {
		return found[0], nil
	}

	id := uuid.NewString()
	ib := s.flavor.NewInsertBuilder()
	ib.InsertInto("measures").Cols("id", "unit", "measure_type").Values(id, unit, measureType)
	if err := s.exec(ctx, tx, ib); err != nil {
		return "", fmt.Errorf("create measure %q/%q: %w", unit, measureType, err)
	}
	return id, nil
}
