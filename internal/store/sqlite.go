package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/auravoice/auravoice/internal/schema"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository at dbPath, creating the
// parent directory and schema as needed.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL keeps the gateway's reads from blocking on tool-call writes.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		priority TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_created ON tasks(created_at);

	CREATE TABLE IF NOT EXISTS moods (
		id TEXT PRIMARY KEY,
		mood TEXT NOT NULL,
		energy INTEGER NOT NULL,
		anxiety INTEGER NOT NULL,
		notes TEXT,
		triggers_json TEXT,
		recorded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_moods_recorded ON moods(recorded_at);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// ListTasks returns all tasks, newest first.
func (s *SQLiteStore) ListTasks(ctx context.Context) ([]schema.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, priority, completed, created_at FROM tasks ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []schema.Task
	for rows.Next() {
		var task schema.Task
		var completed int
		var createdAt int64
		if err := rows.Scan(&task.ID, &task.Text, &task.Priority, &completed, &createdAt); err != nil {
			return nil, fmt.Errorf("scan task row: %w", err)
		}
		task.Completed = completed != 0
		task.CreatedAt = time.Unix(createdAt, 0)
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// SaveTask inserts or replaces a task.
func (s *SQLiteStore) SaveTask(ctx context.Context, task schema.Task) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, text, priority, completed, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			priority = excluded.priority,
			completed = excluded.completed`,
		task.ID, task.Text, string(task.Priority), boolToInt(task.Completed), task.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

// ToggleTask flips a task's completed flag.
func (s *SQLiteStore) ToggleTask(ctx context.Context, id string) (schema.Task, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET completed = NOT completed WHERE id = ?`, id)
	if err != nil {
		return schema.Task{}, fmt.Errorf("toggle task: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return schema.Task{}, fmt.Errorf("toggle task rows affected: %w", err)
	}
	if rows == 0 {
		return schema.Task{}, fmt.Errorf("toggle task %q: %w", id, ErrNotFound)
	}

	var task schema.Task
	var completed int
	var createdAt int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id, text, priority, completed, created_at FROM tasks WHERE id = ?`, id).
		Scan(&task.ID, &task.Text, &task.Priority, &completed, &createdAt)
	if err != nil {
		return schema.Task{}, fmt.Errorf("read toggled task: %w", err)
	}
	task.Completed = completed != 0
	task.CreatedAt = time.Unix(createdAt, 0)
	return task, nil
}

// DeleteTask removes a task.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete task %q: %w", id, ErrNotFound)
	}
	return nil
}

// ListMoods returns all mood entries, newest first. A row with a corrupt
// trigger list is kept with its triggers reset rather than failing the query.
func (s *SQLiteStore) ListMoods(ctx context.Context) ([]schema.MoodEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mood, energy, anxiety, notes, triggers_json, recorded_at
		FROM moods ORDER BY recorded_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query moods: %w", err)
	}
	defer rows.Close()

	var entries []schema.MoodEntry
	for rows.Next() {
		var entry schema.MoodEntry
		var notes, triggersJSON sql.NullString
		var recordedAt int64
		if err := rows.Scan(&entry.ID, &entry.Mood, &entry.Energy, &entry.Anxiety,
			&notes, &triggersJSON, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan mood row: %w", err)
		}
		entry.Notes = notes.String
		entry.Timestamp = time.Unix(recordedAt, 0)
		if triggersJSON.Valid && triggersJSON.String != "" {
			if err := json.Unmarshal([]byte(triggersJSON.String), &entry.Triggers); err != nil {
				slog.Warn("corrupt trigger list, resetting", "entry", entry.ID, "err", err)
				entry.Triggers = nil
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate moods: %w", err)
	}
	return entries, nil
}

// SaveMood inserts a mood entry.
func (s *SQLiteStore) SaveMood(ctx context.Context, entry schema.MoodEntry) error {
	var triggersJSON any
	if len(entry.Triggers) > 0 {
		data, err := json.Marshal(entry.Triggers)
		if err != nil {
			return fmt.Errorf("encode triggers: %w", err)
		}
		triggersJSON = string(data)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO moods (id, mood, energy, anxiety, notes, triggers_json, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		entry.ID, string(entry.Mood), entry.Energy, entry.Anxiety,
		nullableString(entry.Notes), triggersJSON, entry.Timestamp.Unix())
	if err != nil {
		return fmt.Errorf("save mood entry: %w", err)
	}
	return nil
}

// Persona returns the persisted persona selection, or "" if none is stored.
func (s *SQLiteStore) Persona(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'persona'`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read persona selection: %w", err)
	}
	return id, nil
}

// SavePersona stores the persona selection.
func (s *SQLiteStore) SavePersona(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES ('persona', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, id)
	if err != nil {
		return fmt.Errorf("save persona selection: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
