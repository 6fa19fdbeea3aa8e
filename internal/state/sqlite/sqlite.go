package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mira-platform/miractl/internal/state"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// migrations is an ordered list of SQL migrations.
// Each migration runs exactly once, tracked by schema_version table.
var migrations = []string{
	// Migration 1: Initial schema
	`
CREATE TABLE IF NOT EXISTS profiles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	base_url TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_name ON profiles(name);

CREATE TABLE IF NOT EXISTS sessions (
	profile TEXT PRIMARY KEY,
	token TEXT NOT NULL,
	role TEXT NOT NULL,
	display_name TEXT NOT NULL,
	saved_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS action_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	actor TEXT NOT NULL,
	action TEXT NOT NULL,
	target TEXT NOT NULL,
	outcome TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_action_log_created_at ON action_log(created_at DESC);

CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`,
	// Future migrations go here:
	// Migration 2: `ALTER TABLE ...`,
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return err
	}

	var currentVersion int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	for i := currentVersion; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, i+1); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
	}

	return nil
}

func (s *Store) CreateProfile(ctx context.Context, p *state.Profile) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO profiles (name, base_url, created_at) VALUES (?, ?, ?)
`, p.Name, p.BaseURL, p.CreatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, state.ErrDuplicateProfile
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) GetProfile(ctx context.Context, name string) (state.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, base_url, created_at FROM profiles WHERE name = ? LIMIT 1
`, name)
	return scanProfile(row)
}

func (s *Store) ListProfiles(ctx context.Context) ([]state.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, base_url, created_at FROM profiles ORDER BY name ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []state.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) DeleteProfile(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return state.ErrNotFound
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM sessions WHERE profile = ?`, name)
	return err
}

func (s *Store) SaveSession(ctx context.Context, rec state.SessionRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO sessions (profile, token, role, display_name, saved_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(profile) DO UPDATE SET
	token = excluded.token,
	role = excluded.role,
	display_name = excluded.display_name,
	saved_at = excluded.saved_at
`, rec.Profile, rec.Token, rec.Role, rec.DisplayName, rec.SavedAt.Unix())
	return err
}

func (s *Store) GetSession(ctx context.Context, profile string) (state.SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT profile, token, role, display_name, saved_at FROM sessions WHERE profile = ? LIMIT 1
`, profile)
	var rec state.SessionRecord
	var savedAt int64
	err := row.Scan(&rec.Profile, &rec.Token, &rec.Role, &rec.DisplayName, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return state.SessionRecord{}, state.ErrNotFound
	}
	if err != nil {
		return state.SessionRecord{}, err
	}
	rec.SavedAt = time.Unix(savedAt, 0).UTC()
	return rec, nil
}

// ClearSessions drops every saved session. Logout and forced teardown both
// clear wholesale; there is no per-field expiry to honor.
func (s *Store) ClearSessions(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions`)
	return err
}

func (s *Store) AppendAction(ctx context.Context, e *state.ActionEntry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO action_log (actor, action, target, outcome, created_at)
VALUES (?, ?, ?, ?, ?)
`, e.Actor, e.Action, e.Target, e.Outcome, e.CreatedAt.Unix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) ListActions(ctx context.Context, limit int) ([]state.ActionEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, actor, action, target, outcome, created_at
FROM action_log
ORDER BY created_at DESC, id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []state.ActionEntry
	for rows.Next() {
		var e state.ActionEntry
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.Target, &e.Outcome, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) SetKV(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO kv (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value
`, key, value)
	return err
}

func (s *Store) GetKV(ctx context.Context, key string) (string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ? LIMIT 1`, key)
	var value string
	err := row.Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", state.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *Store) DeleteKV(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (state.Profile, error) {
	var p state.Profile
	var createdAt int64
	err := row.Scan(&p.ID, &p.Name, &p.BaseURL, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return state.Profile{}, state.ErrNotFound
	}
	if err != nil {
		return state.Profile{}, err
	}
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	return p, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
