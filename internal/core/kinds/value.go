package kinds

import (
	"context"
	"strconv"

	"github.com/willbda/happy-to-have-lived-sub002/internal/core"
	"github.com/willbda/happy-to-have-lived-sub002/internal/domain"
	"github.com/willbda/happy-to-have-lived-sub002/internal/store"
	"github.com/willbda/happy-to-have-lived-sub002/internal/structured"
)

// DefaultPriority is assigned to values imported without one.
const DefaultPriority = 50

func init() {
	core.Register(core.KindDefinition{
		Info: core.KindInfo{
			Kind: domain.KindValue,
			Columns: []string{
				"ID", "Title", "Description", "Notes", "Priority", "ValueLevel",
				"LifeDomain", "AlignmentGuidance",
			},
			Required: []string{"Title"},
		},
		FromFields: valueFromFields,
		ToFields:   valueToFields,
		FromObject: valueFromObject,
		ToObject:   valueToObject,
		Transform:  valueTransform,
		Create: func(ctx context.Context, w store.Writer, req any) error {
			r, err := requestAs[store.NewValue](req)
			if err != nil {
				return err
			}
			return w.CreateValue(ctx, r)
		},
		FetchAll: func(ctx context.Context, r store.Reader) ([]domain.Record, error) {
			values, err := r.FetchValues(ctx)
			if err != nil {
				return nil, err
			}
			return records[domain.PersonalValue](values), nil
		},
	})
}

func valueFromFields(f core.Fields) (domain.Record, error) {
	id, err := f.ID("ID")
	if err != nil {
		return nil, err
	}
	title, err := f.RequiredText("Title")
	if err != nil {
		return nil, err
	}
	priority, err := f.OptInt("Priority", DefaultPriority)
	if err != nil {
		return nil, err
	}
	return &domain.PersonalValue{
		ID:                id,
		Title:             title,
		Description:       f.Text("Description"),
		Notes:             f.Text("Notes"),
		Priority:          priority,
		ValueLevel:        NormalizeValueLevel(f.Text("ValueLevel")),
		LifeDomain:        f.Text("LifeDomain"),
		AlignmentGuidance: f.Text("AlignmentGuidance"),
	}, nil
}

func valueToFields(rec domain.Record) ([]string, error) {
	v, err := recordAs[*domain.PersonalValue](rec)
	if err != nil {
		return nil, err
	}
	return []string{
		v.ID.String(),
		v.Title,
		v.Description,
		v.Notes,
		strconv.Itoa(v.Priority),
		v.ValueLevel,
		v.LifeDomain,
		v.AlignmentGuidance,
	}, nil
}

func valueFromObject(r *structured.Reader) (domain.Record, error) {
	id, err := r.OptUUID("id")
	if err != nil {
		return nil, err
	}
	title, err := r.String("title")
	if err != nil {
		return nil, err
	}
	priority := DefaultPriority
	if r.Has("priority") {
		if priority, err = r.Int("priority"); err != nil {
			return nil, err
		}
	}

	v := &domain.PersonalValue{ID: idOrNew(id), Title: title, Priority: priority}
	for _, field := range []struct {
		key string
		dst *string
	}{
		{"detailedDescription", &v.Description},
		{"freeformNotes", &v.Notes},
		{"valueLevel", &v.ValueLevel},
		{"lifeDomain", &v.LifeDomain},
		{"alignmentGuidance", &v.AlignmentGuidance},
	} {
		if *field.dst, err = r.OptString(field.key); err != nil {
			return nil, err
		}
	}
	v.ValueLevel = NormalizeValueLevel(v.ValueLevel)
	return v, nil
}

func valueToObject(rec domain.Record) (*structured.Object, error) {
	v, err := recordAs[*domain.PersonalValue](rec)
	if err != nil {
		return nil, err
	}
	return structured.NewObject().
		Set("id", v.ID.String()).
		Set("title", v.Title).
		Set("detailedDescription", v.Description).
		Set("freeformNotes", v.Notes).
		Set("priority", v.Priority).
		Set("valueLevel", v.ValueLevel).
		Set("lifeDomain", v.LifeDomain).
		Set("alignmentGuidance", v.AlignmentGuidance), nil
}

func valueTransform(rec domain.Record) (any, error) {
	v, err := recordAs[*domain.PersonalValue](rec)
	if err != nil {
		return nil, err
	}
	return store.NewValue{
		ID:                v.ID,
		Title:             v.Title,
		Description:       v.Description,
		Notes:             v.Notes,
		Priority:          v.Priority,
		ValueLevel:        v.ValueLevel,
		LifeDomain:        v.LifeDomain,
		AlignmentGuidance: v.AlignmentGuidance,
	}, nil
}
