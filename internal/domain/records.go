package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Measurement is one quantity recorded against an action.
type Measurement struct {
	ID          uuid.UUID
	Unit        string `validate:"notblank"`
	MeasureType string
	Value       float64
}

// Action is something the user did at a point in time.
type Action struct {
	ID              uuid.UUID
	Title           string `validate:"notblank"`
	Description     string
	Notes           string
	LogTime         time.Time `validate:"required"`
	StartTime       *time.Time
	DurationMinutes float64       `validate:"min=0"`
	Measurements    []Measurement `validate:"dive"`
	GoalIDs         []uuid.UUID
}

func (a *Action) RecordID() uuid.UUID  { return a.ID }
func (a *Action) RecordKind() Kind     { return KindAction }
func (a *Action) DisplayTitle() string { return a.Title }
func (a *Action) SimilarityText() string {
	return joinText(a.Title, a.Description)
}

// MeasureTarget is a quantified target a goal aims for.
type MeasureTarget struct {
	ID          uuid.UUID
	Unit        string `validate:"notblank"`
	MeasureType string
	TargetValue float64
	Notes       string
}

// Goal is an outcome the user is working towards.
type Goal struct {
	ID                 uuid.UUID
	Title              string `validate:"notblank"`
	Description        string
	Notes              string
	StartDate          *time.Time
	TargetDate         *time.Time
	ActionPlan         string
	ExpectedTermLength int             `validate:"min=0"`
	Targets            []MeasureTarget `validate:"dive"`
	ValueIDs           []uuid.UUID
}

func (g *Goal) RecordID() uuid.UUID  { return g.ID }
func (g *Goal) RecordKind() Kind     { return KindGoal }
func (g *Goal) DisplayTitle() string { return g.Title }
func (g *Goal) SimilarityText() string {
	return joinText(g.Title, g.Description)
}

// Value levels, from broadest to most concrete.
const (
	ValueLevelGeneral      = "general"
	ValueLevelMajor        = "major"
	ValueLevelHighestOrder = "highest_order"
	ValueLevelLifeArea     = "life_area"
)

// ValueLevels lists the accepted value levels.
var ValueLevels = []string{ValueLevelGeneral, ValueLevelMajor, ValueLevelHighestOrder, ValueLevelLifeArea}

// PersonalValue is something the user cares about and aligns goals with.
type PersonalValue struct {
	ID                uuid.UUID
	Title             string `validate:"notblank"`
	Description       string
	Notes             string
	Priority          int    `validate:"min=1,max=100"`
	ValueLevel        string `validate:"oneof=general major highest_order life_area"`
	LifeDomain        string
	AlignmentGuidance string
}

func (v *PersonalValue) RecordID() uuid.UUID  { return v.ID }
func (v *PersonalValue) RecordKind() Kind     { return KindValue }
func (v *PersonalValue) DisplayTitle() string { return v.Title }
func (v *PersonalValue) SimilarityText() string {
	return joinText(v.Title, v.Description)
}

// Term is a bounded planning period that groups goals.
type Term struct {
	ID         uuid.UUID
	Title      string
	TermNumber int       `validate:"min=1"`
	Theme      string
	StartDate  time.Time `validate:"required"`
	TargetDate time.Time `validate:"required"`
	Reflection string
	GoalIDs    []uuid.UUID
}

func (t *Term) RecordID() uuid.UUID { return t.ID }
func (t *Term) RecordKind() Kind    { return KindTerm }
func (t *Term) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return "Term " + strconv.Itoa(t.TermNumber)
}
func (t *Term) SimilarityText() string {
	return joinText(t.Title, t.Theme)
}

// Measure is a catalog entry shared by measurements and targets.
type Measure struct {
	ID          uuid.UUID
	Unit        string
	MeasureType string
}

func joinText(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}
