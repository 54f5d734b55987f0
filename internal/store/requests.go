package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"

	"github.com/willbda/happy-to-have-lived-sub002/internal/domain"
)

// Link is one row of a many-to-many relationship table.
type Link struct {
	ID       uuid.UUID `validate:"required"`
	TargetID uuid.UUID `validate:"required"`
}

// NewMeasurement names its measure by unit and type; the store resolves the
// pair against the measure catalog.
type NewMeasurement struct {
	ID          uuid.UUID `validate:"required"`
	Unit        string    `validate:"notblank"`
	MeasureType string
	Value       float64
}

// NewAction is the creation request for an action.
type NewAction struct {
	ID              uuid.UUID `validate:"required"`
	Title           string    `validate:"notblank"`
	Description     string
	Notes           string
	LogTime         time.Time `validate:"required"`
	StartTime       *time.Time
	DurationMinutes float64          `validate:"min=0"`
	Measurements    []NewMeasurement `validate:"dive"`
	Goals           []Link           `validate:"dive"`
}

// NewTarget is a goal's quantified target.
type NewTarget struct {
	ID          uuid.UUID `validate:"required"`
	Unit        string    `validate:"notblank"`
	MeasureType string
	TargetValue float64
	Notes       string
}

// NewGoal is the creation request for a goal.
type NewGoal struct {
	ID                 uuid.UUID `validate:"required"`
	Title              string    `validate:"notblank"`
	Description        string
	Notes              string
	StartDate          *time.Time
	TargetDate         *time.Time
	ActionPlan         string
	ExpectedTermLength int         `validate:"min=0"`
	Targets            []NewTarget `validate:"dive"`
	Values             []Link      `validate:"dive"`
}

// NewValue is the creation request for a personal value.
type NewValue struct {
	ID                uuid.UUID `validate:"required"`
	Title             string    `validate:"notblank"`
	Description       string
	Notes             string
	Priority          int    `validate:"min=1,max=100"`
	ValueLevel        string `validate:"oneof=general major highest_order life_area"`
	LifeDomain        string
	AlignmentGuidance string
}

// NewTerm is the creation request for a term.
type NewTerm struct {
	ID         uuid.UUID `validate:"required"`
	Title      string
	TermNumber int `validate:"min=1"`
	Theme      string
	StartDate  time.Time `validate:"required"`
	TargetDate time.Time `validate:"required,gtfield=StartDate"`
	Reflection string
	Goals      []Link `validate:"dive"`
}

var requestValidator = NewValidate()

// NewValidate returns a struct validator with the tags used on records and
// requests. "notblank" rejects strings that are empty after trimming space.
func NewValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// Check runs the store-side request checks shared by every implementation.
// Failures wrap ErrInvalidRequest.
func Check(req any) error {
	err := requestValidator.Struct(req)
	if err == nil {
		return nil
	}
	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		parts := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(parts, "; "))
	}
	return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
}

// ToAction rebuilds the stored shape of a request, with measurements
// resolved to the catalog spelling given by resolve.
func (r NewAction) ToAction(resolve func(unit, measureType string) domain.Measure) domain.Action {
	a := domain.Action{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		Notes:           r.Notes,
		LogTime:         r.LogTime.UTC(),
		StartTime:       utcPtr(r.StartTime),
		DurationMinutes: r.DurationMinutes,
	}
	for _, m := range r.Measurements {
		measure := resolve(m.Unit, m.MeasureType)
		a.Measurements = append(a.Measurements, domain.Measurement{
			ID: m.ID, Unit: measure.Unit, MeasureType: measure.MeasureType, Value: m.Value,
		})
	}
	for _, l := range r.Goals {
		a.GoalIDs = append(a.GoalIDs, l.TargetID)
	}
	return a
}

// ToGoal is the goal counterpart of ToAction.
func (r NewGoal) ToGoal(resolve func(unit, measureType string) domain.Measure) domain.Goal {
	g := domain.Goal{
		ID:                 r.ID,
		Title:              r.Title,
		Description:        r.Description,
		Notes:              r.Notes,
		StartDate:          utcPtr(r.StartDate),
		TargetDate:         utcPtr(r.TargetDate),
		ActionPlan:         r.ActionPlan,
		ExpectedTermLength: r.ExpectedTermLength,
	}
	for _, t := range r.Targets {
		measure := resolve(t.Unit, t.MeasureType)
		g.Targets = append(g.Targets, domain.MeasureTarget{
			ID: t.ID, Unit: measure.Unit, MeasureType: measure.MeasureType, TargetValue: t.TargetValue, Notes: t.Notes,
		})
	}
	for _, l := range r.Values {
		g.ValueIDs = append(g.ValueIDs, l.TargetID)
	}
	return g
}

// ToValue returns the stored shape of the request.
func (r NewValue) ToValue() domain.PersonalValue {
	return domain.PersonalValue{
		ID:                r.ID,
		Title:             r.Title,
		Description:       r.Description,
		Notes:             r.Notes,
		Priority:          r.Priority,
		ValueLevel:        r.ValueLevel,
		LifeDomain:        r.LifeDomain,
		AlignmentGuidance: r.AlignmentGuidance,
	}
}

// ToTerm returns the stored shape of the request.
func (r NewTerm) ToTerm() domain.Term {
	t := domain.Term{
		ID:         r.ID,
		Title:      r.Title,
		TermNumber: r.TermNumber,
		Theme:      r.Theme,
		StartDate:  r.StartDate.UTC(),
		TargetDate: r.TargetDate.UTC(),
		Reflection: r.Reflection,
	}
	for _, l := range r.Goals {
		t.GoalIDs = append(t.GoalIDs, l.TargetID)
	}
	return t
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
