package kinds

import (
	"context"
	"strconv"

	"github.com/willbda/happy-to-have-lived-sub002/internal/core"
	"github.com/willbda/happy-to-have-lived-sub002/internal/domain"
	"github.com/willbda/happy-to-have-lived-sub002/internal/store"
	"github.com/willbda/happy-to-have-lived-sub002/internal/structured"
)

func init() {
	core.Register(core.KindDefinition{
		Info: core.KindInfo{
			Kind: domain.KindTerm,
			Columns: []string{
				"ID", "Title", "TermNumber", "Theme", "StartDate", "TargetDate",
				"Reflection", "GoalIDs",
			},
			Required: []string{"TermNumber", "StartDate", "TargetDate"},
		},
		FromFields: termFromFields,
		ToFields:   termToFields,
		FromObject: termFromObject,
		ToObject:   termToObject,
		Rules:      termRules,
		References: func(rec domain.Record) []core.Reference {
			t, _ := rec.(*domain.Term)
			if t == nil {
				return nil
			}
			return references(domain.KindGoal, t.GoalIDs)
		},
		Transform: termTransform,
		Create: func(ctx context.Context, w store.Writer, req any) error {
			r, err := requestAs[store.NewTerm](req)
			if err != nil {
				return err
			}
			return w.CreateTerm(ctx, r)
		},
		FetchAll: func(ctx context.Context, r store.Reader) ([]domain.Record, error) {
			terms, err := r.FetchTerms(ctx)
			if err != nil {
				return nil, err
			}
			return records[domain.Term](terms), nil
		},
	})
}

func termFromFields(f core.Fields) (domain.Record, error) {
	id, err := f.ID("ID")
	if err != nil {
		return nil, err
	}
	number, err := f.Int("TermNumber")
	if err != nil {
		return nil, err
	}
	start, err := f.Time("StartDate")
	if err != nil {
		return nil, err
	}
	target, err := f.Time("TargetDate")
	if err != nil {
		return nil, err
	}
	goals, err := f.IDList("GoalIDs")
	if err != nil {
		return nil, err
	}
	return &domain.Term{
		ID:         id,
		Title:      f.Text("Title"),
		TermNumber: number,
		Theme:      f.Text("Theme"),
		StartDate:  start,
		TargetDate: target,
		Reflection: f.Text("Reflection"),
		GoalIDs:    goals,
	}, nil
}

func termToFields(rec domain.Record) ([]string, error) {
	t, err := recordAs[*domain.Term](rec)
	if err != nil {
		return nil, err
	}
	return []string{
		t.ID.String(),
		t.Title,
		strconv.Itoa(t.TermNumber),
		t.Theme,
		structured.FormatTime(t.StartDate),
		structured.FormatTime(t.TargetDate),
		t.Reflection,
		core.FormatIDList(t.GoalIDs),
	}, nil
}

func termFromObject(r *structured.Reader) (domain.Record, error) {
	id, err := r.OptUUID("id")
	if err != nil {
		return nil, err
	}
	title, err := r.OptString("title")
	if err != nil {
		return nil, err
	}
	number, err := r.Int("termNumber")
	if err != nil {
		return nil, err
	}
	theme, err := r.OptString("theme")
	if err != nil {
		return nil, err
	}
	start, err := r.Time("startDate")
	if err != nil {
		return nil, err
	}
	target, err := r.Time("targetDate")
	if err != nil {
		return nil, err
	}
	reflection, err := r.OptString("reflection")
	if err != nil {
		return nil, err
	}
	goals, err := r.UUIDList("goalIds")
	if err != nil {
		return nil, err
	}
	return &domain.Term{
		ID:         idOrNew(id),
		Title:      title,
		TermNumber: number,
		Theme:      theme,
		StartDate:  start,
		TargetDate: target,
		Reflection: reflection,
		GoalIDs:    goals,
	}, nil
}

func termToObject(rec domain.Record) (*structured.Object, error) {
	t, err := recordAs[*domain.Term](rec)
	if err != nil {
		return nil, err
	}
	return structured.NewObject().
		Set("id", t.ID.String()).
		Set("title", t.Title).
		Set("termNumber", t.TermNumber).
		Set("theme", t.Theme).
		Set("startDate", structured.FormatTime(t.StartDate)).
		Set("targetDate", structured.FormatTime(t.TargetDate)).
		Set("reflection", t.Reflection).
		Set("goalIds", idStrings(t.GoalIDs)), nil
}

func termRules(rec domain.Record) []string {
	t, err := recordAs[*domain.Term](rec)
	if err != nil {
		return []string{err.Error()}
	}
	if !t.StartDate.Before(t.TargetDate) {
		return []string{"StartDate must be before TargetDate"}
	}
	return nil
}

func termTransform(rec domain.Record) (any, error) {
	t, err := recordAs[*domain.Term](rec)
	if err != nil {
		return nil, err
	}
	return store.NewTerm{
		ID:         t.ID,
		Title:      t.Title,
		TermNumber: t.TermNumber,
		Theme:      t.Theme,
		StartDate:  t.StartDate,
		TargetDate: t.TargetDate,
		Reflection: t.Reflection,
		Goals:      newLinks(t.GoalIDs),
	}, nil
}
