// Package sqlite implements session.Backend on a SQLite file that lives in the
// per-login runtime directory.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store keeps session values for one namespace.
type Store struct {
	mu        sync.RWMutex
	db        *sql.DB
	namespace string
	now       func() time.Time
	closed    bool
}

// New opens (or creates) the database at dbPath and prunes namespaces idle for
// longer than ttl. A zero ttl disables pruning.
func New(dbPath, namespace string, ttl time.Duration) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	store, err := newWithDB(db, namespace)
	if err != nil {
		db.Close()
		return nil, err
	}
	if ttl > 0 {
		if _, err := store.Prune(context.Background(), ttl); err != nil {
			db.Close()
			return nil, err
		}
	}
	return store, nil
}

// NewInMemory creates an in-memory store (useful for testing).
func NewInMemory(namespace string) (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	store, err := newWithDB(db, namespace)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func newWithDB(db *sql.DB, namespace string) (*Store, error) {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return nil, fmt.Errorf("session namespace is empty")
	}
	store := &Store{db: db, namespace: namespace, now: time.Now}
	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize session database: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
		CREATE TABLE IF NOT EXISTS session_values (
			namespace  TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      TEXT NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (namespace, key)
		);

		CREATE INDEX IF NOT EXISTS idx_session_values_updated ON session_values(updated_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Namespace returns the session namespace the store reads and writes.
func (s *Store) Namespace() string { return s.namespace }

// Get returns the stored values for keys; missing keys are absent from the map.
func (s *Store) Get(ctx context.Context, keys []string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("session store is closed")
	}

	out := make(map[string]any, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, 0, len(keys)+1)
	args = append(args, s.namespace)
	for _, k := range keys {
		args = append(args, k)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM session_values WHERE namespace = ? AND key IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query session values: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("scan session value: %w", err)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			// A corrupt row is treated as missing.
			continue
		}
		out[key] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session values: %w", err)
	}
	return out, nil
}

// Set upserts values in a single transaction.
func (s *Store) Set(ctx context.Context, values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("session store is closed")
	}
	if len(values) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session write: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO session_values (namespace, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("prepare session write: %w", err)
	}
	defer stmt.Close()

	now := s.now().UnixMilli()
	for key, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		if _, err := stmt.ExecContext(ctx, s.namespace, key, string(raw), now); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// Clear removes every key in the namespace.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("session store is closed")
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_values WHERE namespace = ?`, s.namespace); err != nil {
		return fmt.Errorf("clear session values: %w", err)
	}
	return nil
}

// Prune deletes namespaces, other than the current one, whose newest value is
// older than ttl. It returns the number of rows removed.
func (s *Store) Prune(ctx context.Context, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, fmt.Errorf("session store is closed")
	}
	cutoff := s.now().Add(-ttl).UnixMilli()
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM session_values
		WHERE namespace != ?
		  AND namespace IN (
			SELECT namespace FROM session_values
			GROUP BY namespace
			HAVING MAX(updated_at) < ?
		  )
	`, s.namespace, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune stale sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
