package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"launchdeck/internal/models"

	_ "modernc.org/sqlite"
)

// Store persists targets and their execution logs.
type Store interface {
	CreateTarget(ctx context.Context, t *models.Target) error
	GetTarget(ctx context.Context, id int64) (*models.Target, error)
	FindTargetByPath(ctx context.Context, path string) (*models.Target, error)
	ListTargets(ctx context.Context) ([]*models.Target, error)
	UpdateTarget(ctx context.Context, t *models.Target) error
	DeleteTarget(ctx context.Context, id int64) error
	UsedPorts(ctx context.Context) ([]int, error)
	SetPort(ctx context.Context, id int64, port int) error
	AppendLog(ctx context.Context, targetID int64, action models.LogAction, details string) (*models.ExecutionLog, error)
	ListLogs(ctx context.Context, targetID int64, limit int) ([]models.ExecutionLog, error)
	Close() error
}

/**
 * SQLiteStore keeps the catalog in a single SQLite file
 * @description
 * - Pure Go driver, no cgo
 * - Non-null ports are unique across targets (partial unique index)
 * - Log timestamps are strictly increasing per target
 */
type SQLiteStore struct {
	db    *sql.DB
	path  string
	logMu sync.Mutex
}

const schema = `
CREATE TABLE IF NOT EXISTS targets (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	path TEXT NOT NULL,
	type TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'Stopped',
	port INTEGER,
	pid INTEGER NOT NULL DEFAULT 0,
	description TEXT NOT NULL DEFAULT '',
	user_guide TEXT NOT NULL DEFAULT '',
	rating INTEGER,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS execution_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	target_id INTEGER NOT NULL REFERENCES targets(id) ON DELETE CASCADE,
	action TEXT NOT NULL,
	details TEXT NOT NULL,
	timestamp INTEGER NOT NULL
);`

var indexes = []string{
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_targets_port ON targets(port) WHERE port IS NOT NULL",
	"CREATE INDEX IF NOT EXISTS idx_targets_path ON targets(path)",
	"CREATE INDEX IF NOT EXISTS idx_logs_target_ts ON execution_logs(target_id, timestamp)",
}

/**
 * Open (or create) the catalog database
 * @param {string} path - Database file path, ":memory:" for a private in-memory database
 * @returns {*SQLiteStore} Ready store with schema applied
 * @returns {error} Open, pragma or schema errors
 */
func Open(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps per-connection pragmas effective and serializes writers
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	for _, stmt := range indexes {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create index: %w", err)
		}
	}
	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const targetColumns = "id, name, path, type, status, port, pid, description, user_guide, rating, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTarget(row rowScanner) (*models.Target, error) {
	var (
		t                models.Target
		port, rating     sql.NullInt64
		created, updated int64
		typ, status      string
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Path, &typ, &status, &port, &t.Pid,
		&t.Description, &t.UserGuide, &rating, &created, &updated); err != nil {
		return nil, err
	}
	t.Type = models.AppType(typ)
	t.Status = models.AppStatus(status)
	t.Port = int(port.Int64)
	t.Rating = int(rating.Int64)
	t.CreatedAt = time.Unix(0, created)
	t.UpdatedAt = time.Unix(0, updated)
	return &t, nil
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}

func (s *SQLiteStore) CreateTarget(ctx context.Context, t *models.Target) error {
	now := time.Now()
	if t.Status == "" {
		t.Status = models.StatusStopped
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO targets (name, path, type, status, port, pid, description, user_guide, rating, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.Path, string(t.Type), string(t.Status), nullInt(t.Port), t.Pid,
		t.Description, t.UserGuide, nullInt(t.Rating), now.UnixNano(), now.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert target: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = id
	t.CreatedAt = time.Unix(0, now.UnixNano())
	t.UpdatedAt = t.CreatedAt
	return nil
}

func (s *SQLiteStore) GetTarget(ctx context.Context, id int64) (*models.Target, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+targetColumns+" FROM targets WHERE id = ?", id)
	t, err := scanTarget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("target %d: %w", id, models.ErrTargetNotFound)
	}
	return t, err
}

func (s *SQLiteStore) FindTargetByPath(ctx context.Context, path string) (*models.Target, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+targetColumns+" FROM targets WHERE path = ? ORDER BY id LIMIT 1", path)
	t, err := scanTarget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("target at %s: %w", path, models.ErrTargetNotFound)
	}
	return t, err
}

func (s *SQLiteStore) ListTargets(ctx context.Context) ([]*models.Target, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+targetColumns+" FROM targets ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []*models.Target
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// UpdateTarget writes every mutable column of t.
func (s *SQLiteStore) UpdateTarget(ctx context.Context, t *models.Target) error {
	now := time.Now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE targets SET name = ?, path = ?, type = ?, status = ?, port = ?, pid = ?,
		 description = ?, user_guide = ?, rating = ?, updated_at = ? WHERE id = ?`,
		t.Name, t.Path, string(t.Type), string(t.Status), nullInt(t.Port), t.Pid,
		t.Description, t.UserGuide, nullInt(t.Rating), now.UnixNano(), t.ID)
	if err != nil {
		return fmt.Errorf("failed to update target %d: %w", t.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("target %d: %w", t.ID, models.ErrTargetNotFound)
	}
	t.UpdatedAt = time.Unix(0, now.UnixNano())
	return nil
}

// DeleteTarget removes the target together with its logs.
func (s *SQLiteStore) DeleteTarget(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM execution_logs WHERE target_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete logs of target %d: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM targets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete target %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("target %d: %w", id, models.ErrTargetNotFound)
	}
	return tx.Commit()
}

func (s *SQLiteStore) UsedPorts(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT port FROM targets WHERE port IS NOT NULL ORDER BY port")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ports []int
	for rows.Next() {
		var p int
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		ports = append(ports, p)
	}
	return ports, rows.Err()
}

// SetPort assigns (port > 0) or clears (port == 0) the target's port.
func (s *SQLiteStore) SetPort(ctx context.Context, id int64, port int) error {
	res, err := s.db.ExecContext(ctx, "UPDATE targets SET port = ?, updated_at = ? WHERE id = ?",
		nullInt(port), time.Now().UnixNano(), id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return fmt.Errorf("port %d already assigned: %w", port, err)
		}
		return fmt.Errorf("failed to set port of target %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("target %d: %w", id, models.ErrTargetNotFound)
	}
	return nil
}

/**
 * Append an execution log entry
 * @param {int64} targetID - Owning target
 * @param {LogAction} action - launch/stop/status_update/status_check_error
 * @param {string} details - Free text
 * @returns {*ExecutionLog} The stored entry
 * @description
 * - Timestamp is assigned here and is strictly greater than the target's previous entry
 */
func (s *SQLiteStore) AppendLog(ctx context.Context, targetID int64, action models.LogAction, details string) (*models.ExecutionLog, error) {
	s.logMu.Lock()
	defer s.logMu.Unlock()

	var last sql.NullInt64
	if err := s.db.QueryRowContext(ctx,
		"SELECT MAX(timestamp) FROM execution_logs WHERE target_id = ?", targetID).Scan(&last); err != nil {
		return nil, err
	}
	ts := time.Now().UnixNano()
	if last.Valid && ts <= last.Int64 {
		ts = last.Int64 + 1
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO execution_logs (target_id, action, details, timestamp) VALUES (?, ?, ?, ?)",
		targetID, string(action), details, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to append %s log for target %d: %w", action, targetID, err)
	}
	id, _ := res.LastInsertId()
	return &models.ExecutionLog{
		ID:        id,
		TargetID:  targetID,
		Action:    action,
		Details:   details,
		Timestamp: time.Unix(0, ts),
	}, nil
}

// ListLogs returns the newest entries first; limit <= 0 returns all.
func (s *SQLiteStore) ListLogs(ctx context.Context, targetID int64, limit int) ([]models.ExecutionLog, error) {
	query := "SELECT id, target_id, action, details, timestamp FROM execution_logs WHERE target_id = ? ORDER BY timestamp DESC"
	args := []any{targetID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.ExecutionLog
	for rows.Next() {
		var (
			l      models.ExecutionLog
			action string
			ts     int64
		)
		if err := rows.Scan(&l.ID, &l.TargetID, &action, &l.Details, &ts); err != nil {
			return nil, err
		}
		l.Action = models.LogAction(action)
		l.Timestamp = time.Unix(0, ts)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
