// Package store defines the persistence boundary of the import pipeline.
//
// Readers answer existence and fetch-all queries per kind. Writers perform
// one atomic creation per request and run their own request checks, so a
// caller that skipped validation still cannot persist a malformed record.
//
// Implementations live in sub-packages: memstore (process memory) and
// sqlstore (SQLite or PostgreSQL).
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/willbda/happy-to-have-lived-sub002/internal/domain"
)

var (
	// ErrDuplicateKey is returned when a record with the same id exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrMissingReference is returned when a request links to a record that
	// does not exist.
	ErrMissingReference = errors.New("violates foreign key: referenced record not found")

	// ErrInvalidRequest is returned when a request fails the store's own checks.
	ErrInvalidRequest = errors.New("invalid create request")
)

// Reader is the read side used by validation and export.
type Reader interface {
	Exists(ctx context.Context, kind domain.Kind, id uuid.UUID) (bool, error)
	FetchActions(ctx context.Context) ([]domain.Action, error)
	FetchGoals(ctx context.Context) ([]domain.Goal, error)
	FetchValues(ctx context.Context) ([]domain.PersonalValue, error)
	FetchTerms(ctx context.Context) ([]domain.Term, error)
	Measures(ctx context.Context) ([]domain.Measure, error)
}

// Writer is the creation side used by confirm. Each call is atomic: on error
// nothing from the request is persisted.
type Writer interface {
	CreateAction(ctx context.Context, req NewAction) error
	CreateGoal(ctx context.Context, req NewGoal) error
	CreateValue(ctx context.Context, req NewValue) error
	CreateTerm(ctx context.Context, req NewTerm) error
}

// Store combines both sides with a handle that must be closed.
type Store interface {
	Reader
	Writer
	Close() error
}
