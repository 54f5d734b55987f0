package kinds

import (
	"context"

	"github.com/google/uuid"

	"github.com/willbda/happy-to-have-lived-sub002/internal/core"
	"github.com/willbda/happy-to-have-lived-sub002/internal/domain"
	"github.com/willbda/happy-to-have-lived-sub002/internal/store"
	"github.com/willbda/happy-to-have-lived-sub002/internal/structured"
)

func init() {
	core.Register(core.KindDefinition{
		Info: core.KindInfo{
			Kind: domain.KindGoal,
			Columns: []string{
				"ID", "Title", "Description", "Notes", "StartDate", "TargetDate",
				"ActionPlan", "ExpectedTermLength", "Targets", "ValueIDs",
			},
			Required: []string{"Title"},
		},
		FromFields: goalFromFields,
		ToFields:   goalToFields,
		FromObject: goalFromObject,
		ToObject:   goalToObject,
		Rules:      goalRules,
		References: func(rec domain.Record) []core.Reference {
			g, _ := rec.(*domain.Goal)
			if g == nil {
				return nil
			}
			return references(domain.KindValue, g.ValueIDs)
		},
		Transform: goalTransform,
		Create: func(ctx context.Context, w store.Writer, req any) error {
			r, err := requestAs[store.NewGoal](req)
			if err != nil {
				return err
			}
			return w.CreateGoal(ctx, r)
		},
		FetchAll: func(ctx context.Context, r store.Reader) ([]domain.Record, error) {
			goals, err := r.FetchGoals(ctx)
			if err != nil {
				return nil, err
			}
			return records[domain.Goal](goals), nil
		},
	})
}

func goalFromFields(f core.Fields) (domain.Record, error) {
	id, err := f.ID("ID")
	if err != nil {
		return nil, err
	}
	title, err := f.RequiredText("Title")
	if err != nil {
		return nil, err
	}
	startDate, err := f.OptTime("StartDate")
	if err != nil {
		return nil, err
	}
	targetDate, err := f.OptTime("TargetDate")
	if err != nil {
		return nil, err
	}
	termLength, err := f.OptInt("ExpectedTermLength", 0)
	if err != nil {
		return nil, err
	}
	items, err := f.Nested("Targets")
	if err != nil {
		return nil, err
	}
	targets, err := readTargets(items)
	if err != nil {
		return nil, f.Wrap("Targets", err)
	}
	values, err := f.IDList("ValueIDs")
	if err != nil {
		return nil, err
	}

	return &domain.Goal{
		ID:                 id,
		Title:              title,
		Description:        f.Text("Description"),
		Notes:              f.Text("Notes"),
		StartDate:          startDate,
		TargetDate:         targetDate,
		ActionPlan:         f.Text("ActionPlan"),
		ExpectedTermLength: termLength,
		Targets:            targets,
		ValueIDs:           values,
	}, nil
}

func goalToFields(rec domain.Record) ([]string, error) {
	g, err := recordAs[*domain.Goal](rec)
	if err != nil {
		return nil, err
	}
	targets := ""
	if len(g.Targets) > 0 {
		if targets, err = structured.EncodeCell(targetObjects(g.Targets)); err != nil {
			return nil, err
		}
	}
	return []string{
		g.ID.String(),
		g.Title,
		g.Description,
		g.Notes,
		core.FormatOptTime(g.StartDate),
		core.FormatOptTime(g.TargetDate),
		g.ActionPlan,
		core.FormatOptInt(g.ExpectedTermLength),
		targets,
		core.FormatIDList(g.ValueIDs),
	}, nil
}

func goalFromObject(r *structured.Reader) (domain.Record, error) {
	id, err := r.OptUUID("id")
	if err != nil {
		return nil, err
	}
	title, err := r.String("title")
	if err != nil {
		return nil, err
	}
	description, err := r.OptString("detailedDescription")
	if err != nil {
		return nil, err
	}
	notes, err := r.OptString("freeformNotes")
	if err != nil {
		return nil, err
	}
	startDate, err := r.OptTime("startDate")
	if err != nil {
		return nil, err
	}
	targetDate, err := r.OptTime("targetDate")
	if err != nil {
		return nil, err
	}
	actionPlan, err := r.OptString("actionPlan")
	if err != nil {
		return nil, err
	}
	termLength, err := r.OptInt("expectedTermLength")
	if err != nil {
		return nil, err
	}
	items, err := r.Objects("targets")
	if err != nil {
		return nil, err
	}
	targets, err := readTargets(items)
	if err != nil {
		return nil, err
	}
	values, err := r.UUIDList("valueIds")
	if err != nil {
		return nil, err
	}

	return &domain.Goal{
		ID:                 idOrNew(id),
		Title:              title,
		Description:        description,
		Notes:              notes,
		StartDate:          startDate,
		TargetDate:         targetDate,
		ActionPlan:         actionPlan,
		ExpectedTermLength: termLength,
		Targets:            targets,
		ValueIDs:           values,
	}, nil
}

func goalToObject(rec domain.Record) (*structured.Object, error) {
	g, err := recordAs[*domain.Goal](rec)
	if err != nil {
		return nil, err
	}
	return structured.NewObject().
		Set("id", g.ID.String()).
		Set("title", g.Title).
		Set("detailedDescription", g.Description).
		Set("freeformNotes", g.Notes).
		Set("startDate", optTime(g.StartDate)).
		Set("targetDate", optTime(g.TargetDate)).
		Set("actionPlan", g.ActionPlan).
		Set("expectedTermLength", g.ExpectedTermLength).
		Set("targets", targetObjects(g.Targets)).
		Set("valueIds", idStrings(g.ValueIDs)), nil
}

func goalRules(rec domain.Record) []string {
	g, err := recordAs[*domain.Goal](rec)
	if err != nil {
		return []string{err.Error()}
	}
	var problems []string
	if g.StartDate != nil && g.TargetDate != nil && !g.StartDate.Before(*g.TargetDate) {
		problems = append(problems, "StartDate must be before TargetDate")
	}
	for _, t := range g.Targets {
		problems = append(problems, finite("Targets value for "+t.Unit, t.TargetValue)...)
	}
	return problems
}

func goalTransform(rec domain.Record) (any, error) {
	g, err := recordAs[*domain.Goal](rec)
	if err != nil {
		return nil, err
	}
	req := store.NewGoal{
		ID:                 g.ID,
		Title:              g.Title,
		Description:        g.Description,
		Notes:              g.Notes,
		StartDate:          g.StartDate,
		TargetDate:         g.TargetDate,
		ActionPlan:         g.ActionPlan,
		ExpectedTermLength: g.ExpectedTermLength,
		Values:             newLinks(g.ValueIDs),
	}
	for _, t := range g.Targets {
		req.Targets = append(req.Targets, store.NewTarget{
			ID:          idOrNew(t.ID),
			Unit:        t.Unit,
			MeasureType: t.MeasureType,
			TargetValue: t.TargetValue,
			Notes:       t.Notes,
		})
	}
	return req, nil
}

func readTargets(items []*structured.Reader) ([]domain.MeasureTarget, error) {
	var out []domain.MeasureTarget
	for _, item := range items {
		id, err := item.OptUUID("id")
		if err != nil {
			return nil, err
		}
		unit, err := item.String("unit")
		if err != nil {
			return nil, err
		}
		measureType, err := item.OptString("measureType")
		if err != nil {
			return nil, err
		}
		value, err := item.Float("targetValue")
		if err != nil {
			return nil, err
		}
		notes, err := item.OptString("notes")
		if err != nil {
			return nil, err
		}
		out = append(out, domain.MeasureTarget{
			ID: id, Unit: unit, MeasureType: measureType, TargetValue: value, Notes: notes,
		})
	}
	return out, nil
}

func targetObjects(items []domain.MeasureTarget) []*structured.Object {
	out := make([]*structured.Object, len(items))
	for i, t := range items {
		obj := structured.NewObject()
		if t.ID != uuid.Nil {
			obj.Set("id", t.ID.String())
		}
		out[i] = obj.
			Set("unit", t.Unit).
			Set("measureType", t.MeasureType).
			Set("targetValue", t.TargetValue).
			Set("notes", t.Notes)
	}
	return out
}
