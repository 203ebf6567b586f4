package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/claimdesk/intake/pkg/domain"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS wizard_progress (
	organization_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	variant TEXT NOT NULL,
	session_id TEXT NOT NULL,
	current_step_index INTEGER NOT NULL,
	total_steps INTEGER NOT NULL,
	progress_percent INTEGER NOT NULL,
	draft_json TEXT NOT NULL,
	step_status_json TEXT NOT NULL,
	saved_at TEXT NOT NULL,
	last_active_at TEXT NOT NULL,
	expires_at TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (organization_id, user_id, variant)
);
CREATE TABLE IF NOT EXISTS claims (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	organization_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	variant TEXT NOT NULL,
	draft_json TEXT NOT NULL,
	submitted_at TEXT NOT NULL
);`

// Store implements ports.CheckpointStore on a SQLite database.
// The wizard_progress table holds one row per (organization, user, variant).
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("open progress db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize progress schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts the progress row for checkpoint.Key.
func (s *Store) Save(ctx context.Context, checkpoint *domain.Checkpoint) error {
	if err := checkpoint.Key.Validate(); err != nil {
		return err
	}
	draftJSON, err := json.Marshal(checkpoint.Draft)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	statusJSON, err := json.Marshal(checkpoint.PerStepStatus)
	if err != nil {
		return fmt.Errorf("marshal step status: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO wizard_progress (
			organization_id, user_id, variant, session_id, current_step_index, total_steps,
			progress_percent, draft_json, step_status_json, saved_at, last_active_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(organization_id, user_id, variant) DO UPDATE SET
			session_id = excluded.session_id,
			current_step_index = excluded.current_step_index,
			total_steps = excluded.total_steps,
			progress_percent = excluded.progress_percent,
			draft_json = excluded.draft_json,
			step_status_json = excluded.step_status_json,
			saved_at = excluded.saved_at,
			last_active_at = excluded.last_active_at,
			expires_at = excluded.expires_at`,
		checkpoint.Key.OrganizationID,
		checkpoint.Key.UserID,
		checkpoint.Key.Variant,
		checkpoint.SessionID,
		checkpoint.CurrentStepIndex,
		checkpoint.TotalSteps,
		checkpoint.ProgressPercent,
		string(draftJSON),
		string(statusJSON),
		formatTime(checkpoint.SavedAt),
		formatTime(checkpoint.LastActiveAt),
		formatTime(checkpoint.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// Load reads the progress row for key.
func (s *Store) Load(ctx context.Context, key domain.ProgressKey) (*domain.Checkpoint, error) {
	var (
		cp                              domain.Checkpoint
		draftJSON, statusJSON           string
		savedAt, lastActiveAt, expireAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, current_step_index, total_steps, progress_percent,
			draft_json, step_status_json, saved_at, last_active_at, expires_at
		 FROM wizard_progress WHERE organization_id = ? AND user_id = ? AND variant = ?`,
		key.OrganizationID, key.UserID, key.Variant,
	).Scan(&cp.SessionID, &cp.CurrentStepIndex, &cp.TotalSteps, &cp.ProgressPercent,
		&draftJSON, &statusJSON, &savedAt, &lastActiveAt, &expireAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCheckpointNotFound
		}
		return nil, fmt.Errorf("query progress: %w", err)
	}

	cp.Key = key
	if err := json.Unmarshal([]byte(draftJSON), &cp.Draft); err != nil {
		return nil, fmt.Errorf("unmarshal draft: %w", err)
	}
	if err := json.Unmarshal([]byte(statusJSON), &cp.PerStepStatus); err != nil {
		return nil, fmt.Errorf("unmarshal step status: %w", err)
	}
	if cp.SavedAt, err = parseTime(savedAt); err != nil {
		return nil, err
	}
	if cp.LastActiveAt, err = parseTime(lastActiveAt); err != nil {
		return nil, err
	}
	if cp.ExpiresAt, err = parseTime(expireAt); err != nil {
		return nil, err
	}
	return &cp, nil
}

// Delete removes the progress row for key.
func (s *Store) Delete(ctx context.Context, key domain.ProgressKey) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM wizard_progress WHERE organization_id = ? AND user_id = ? AND variant = ?`,
		key.OrganizationID, key.UserID, key.Variant)
	if err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	return nil
}

// List returns the keys of all progress rows.
func (s *Store) List(ctx context.Context) ([]domain.ProgressKey, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT organization_id, user_id, variant FROM wizard_progress`)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var keys []domain.ProgressKey
	for rows.Next() {
		var k domain.ProgressKey
		if err := rows.Scan(&k.OrganizationID, &k.UserID, &k.Variant); err != nil {
			return nil, fmt.Errorf("scan progress key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// PruneExpired deletes progress rows whose expiry is at or before now.
func (s *Store) PruneExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM wizard_progress WHERE expires_at != '' AND expires_at <= ?`, formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("prune progress: %w", err)
	}
	return res.RowsAffected()
}

// openDB opens a SQLite database with standard pragmas (WAL mode, busy timeout).
func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return db, nil
}

// Times are stored as fixed-width UTC text so that string comparison orders them.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}
