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
			Kind: domain.KindAction,
			Columns: []string{
				"ID", "Title", "Description", "Notes", "LogTime", "StartTime",
				"DurationMinutes", "Measurements", "GoalIDs",
			},
			Required: []string{"Title", "LogTime"},
		},
		FromFields: actionFromFields,
		ToFields:   actionToFields,
		FromObject: actionFromObject,
		ToObject:   actionToObject,
		Rules:      actionRules,
		References: func(rec domain.Record) []core.Reference {
			a, _ := rec.(*domain.Action)
			if a == nil {
				return nil
			}
			return references(domain.KindGoal, a.GoalIDs)
		},
		Transform: actionTransform,
		Create: func(ctx context.Context, w store.Writer, req any) error {
			r, err := requestAs[store.NewAction](req)
			if err != nil {
				return err
			}
			return w.CreateAction(ctx, r)
		},
		FetchAll: func(ctx context.Context, r store.Reader) ([]domain.Record, error) {
			actions, err := r.FetchActions(ctx)
			if err != nil {
				return nil, err
			}
			return records[domain.Action](actions), nil
		},
	})
}

func actionFromFields(f core.Fields) (domain.Record, error) {
	id, err := f.ID("ID")
	if err != nil {
		return nil, err
	}
	title, err := f.RequiredText("Title")
	if err != nil {
		return nil, err
	}
	logTime, err := f.Time("LogTime")
	if err != nil {
		return nil, err
	}
	startTime, err := f.OptTime("StartTime")
	if err != nil {
		return nil, err
	}
	duration, err := f.OptFloat("DurationMinutes")
	if err != nil {
		return nil, err
	}
	items, err := f.Nested("Measurements")
	if err != nil {
		return nil, err
	}
	measurements, err := readMeasurements(items)
	if err != nil {
		return nil, f.Wrap("Measurements", err)
	}
	goals, err := f.IDList("GoalIDs")
	if err != nil {
		return nil, err
	}

	return &domain.Action{
		ID:              id,
		Title:           title,
		Description:     f.Text("Description"),
		Notes:           f.Text("Notes"),
		LogTime:         logTime,
		StartTime:       startTime,
		DurationMinutes: duration,
		Measurements:    measurements,
		GoalIDs:         goals,
	}, nil
}

func actionToFields(rec domain.Record) ([]string, error) {
	a, err := recordAs[*domain.Action](rec)
	if err != nil {
		return nil, err
	}
	measurements := ""
	if len(a.Measurements) > 0 {
		if measurements, err = structured.EncodeCell(measurementObjects(a.Measurements)); err != nil {
			return nil, err
		}
	}
	return []string{
		a.ID.String(),
		a.Title,
		a.Description,
		a.Notes,
		structured.FormatTime(a.LogTime),
		core.FormatOptTime(a.StartTime),
		core.FormatFloat(a.DurationMinutes),
		measurements,
		core.FormatIDList(a.GoalIDs),
	}, nil
}

func actionFromObject(r *structured.Reader) (domain.Record, error) {
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
	logTime, err := r.Time("logTime")
	if err != nil {
		return nil, err
	}
	startTime, err := r.OptTime("startTime")
	if err != nil {
		return nil, err
	}
	duration, err := r.OptFloat("durationMinutes")
	if err != nil {
		return nil, err
	}
	items, err := r.Objects("measurements")
	if err != nil {
		return nil, err
	}
	measurements, err := readMeasurements(items)
	if err != nil {
		return nil, err
	}
	goals, err := r.UUIDList("goalIds")
	if err != nil {
		return nil, err
	}

	return &domain.Action{
		ID:              idOrNew(id),
		Title:           title,
		Description:     description,
		Notes:           notes,
		LogTime:         logTime,
		StartTime:       startTime,
		DurationMinutes: duration,
		Measurements:    measurements,
		GoalIDs:         goals,
	}, nil
}

func actionToObject(rec domain.Record) (*structured.Object, error) {
	a, err := recordAs[*domain.Action](rec)
	if err != nil {
		return nil, err
	}
	return structured.NewObject().
		Set("id", a.ID.String()).
		Set("title", a.Title).
		Set("detailedDescription", a.Description).
		Set("freeformNotes", a.Notes).
		Set("logTime", structured.FormatTime(a.LogTime)).
		Set("startTime", optTime(a.StartTime)).
		Set("durationMinutes", a.DurationMinutes).
		Set("measurements", measurementObjects(a.Measurements)).
		Set("goalIds", idStrings(a.GoalIDs)), nil
}

func actionRules(rec domain.Record) []string {
	a, err := recordAs[*domain.Action](rec)
	if err != nil {
		return []string{err.Error()}
	}
	var problems []string
	if a.StartTime != nil && a.StartTime.After(a.LogTime) {
		problems = append(problems, "StartTime must not be after LogTime")
	}
	problems = append(problems, finite("DurationMinutes", a.DurationMinutes)...)
	for _, m := range a.Measurements {
		problems = append(problems, finite("Measurements value for "+m.Unit, m.Value)...)
	}
	return problems
}

func actionTransform(rec domain.Record) (any, error) {
	a, err := recordAs[*domain.Action](rec)
	if err != nil {
		return nil, err
	}
	req := store.NewAction{
		ID:              a.ID,
		Title:           a.Title,
		Description:     a.Description,
		Notes:           a.Notes,
		LogTime:         a.LogTime,
		StartTime:       a.StartTime,
		DurationMinutes: a.DurationMinutes,
		Goals:           newLinks(a.GoalIDs),
	}
	for _, m := range a.Measurements {
		req.Measurements = append(req.Measurements, store.NewMeasurement{
			ID:          idOrNew(m.ID),
			Unit:        m.Unit,
			MeasureType: m.MeasureType,
			Value:       m.Value,
		})
	}
	return req, nil
}

func readMeasurements(items []*structured.Reader) ([]domain.Measurement, error) {
	var out []domain.Measurement
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
		value, err := item.Float("value")
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Measurement{ID: id, Unit: unit, MeasureType: measureType, Value: value})
	}
	return out, nil
}

func measurementObjects(items []domain.Measurement) []*structured.Object {
	out := make([]*structured.Object, len(items))
	for i, m := range items {
		obj := structured.NewObject()
		if m.ID != uuid.Nil {
			obj.Set("id", m.ID.String())
		}
		out[i] = obj.
			Set("unit", m.Unit).
			Set("measureType", m.MeasureType).
			Set("value", m.Value)
	}
	return out
}
