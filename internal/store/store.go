// Package store persists the assistant's domain records: tasks, mood entries,
// and the persona selection.
package store

import (
	"context"
	"errors"

	"github.com/auravoice/auravoice/internal/schema"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// Repository is the persistence contract. The sqlite implementation is the
// only one in the tree; the interface exists so the gateway and orchestrator
// stay testable without a database file.
type Repository interface {
	// ListTasks returns all tasks, newest first.
	ListTasks(ctx context.Context) ([]schema.Task, error)

	// SaveTask inserts a task, replacing any existing record with the same id.
	SaveTask(ctx context.Context, task schema.Task) error

	// ToggleTask flips a task's completed flag and returns the updated record.
	ToggleTask(ctx context.Context, id string) (schema.Task, error)

	// DeleteTask removes a task. Returns ErrNotFound if the id is unknown.
	DeleteTask(ctx context.Context, id string) error

	// ListMoods returns all mood entries, newest first.
	ListMoods(ctx context.Context) ([]schema.MoodEntry, error)

	// SaveMood inserts a mood entry.
	SaveMood(ctx context.Context, entry schema.MoodEntry) error

	// Persona returns the persisted persona selection, or "" if none is stored.
	Persona(ctx context.Context) (string, error)

	// SavePersona stores the persona selection.
	SavePersona(ctx context.Context, id string) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
