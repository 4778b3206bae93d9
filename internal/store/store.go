// Package store persists installed script records in a local SQLite
// database under the workspace dot directory. The database is the source
// of truth for which scripts are installed, where they came from, and
// whether they are enabled.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"scriptbot/internal/logging"
)

// Record is one installed script.
type Record struct {
	ID         string
	Name       string
	Filename   string
	Version    string
	Author     string
	SourceURL  string
	SHA256     string
	Enabled    bool
	ErrorCount int
	LastError  string
	FetchedAt  time.Time
	UpdatedAt  time.Time
}

// Store manages the script database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// Open creates or opens the script database under dotDir.
func Open(dotDir string) (*Store, error) {
	dbPath := filepath.Join(dotDir, "scripts.db")

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scripts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		filename TEXT NOT NULL,
		version TEXT,
		author TEXT,
		source_url TEXT,
		sha256 TEXT NOT NULL,
		enabled INTEGER NOT NULL DEFAULT 1,
		error_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		fetched_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_scripts_enabled ON scripts(enabled);
	CREATE INDEX IF NOT EXISTS idx_scripts_source ON scripts(source_url);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Checksum returns the hex SHA-256 of script source, as stored in
// Record.SHA256.
func Checksum(src []byte) string {
	sum := sha256.Sum256(src)
	return hex.EncodeToString(sum[:])
}

// Upsert records a script install or update, keyed by name. New records
// start enabled with a fresh error count; updates preserve the enabled
// flag and reset the error state only when the content hash changed.
func (s *Store) Upsert(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.FetchedAt.IsZero() {
		rec.FetchedAt = now
	}
	rec.UpdatedAt = now

	_, err := s.db.Exec(`
		INSERT INTO scripts (id, name, filename, version, author, source_url,
			sha256, enabled, error_count, last_error, fetched_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, 0, '', ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			filename = excluded.filename,
			version = excluded.version,
			author = excluded.author,
			source_url = excluded.source_url,
			sha256 = excluded.sha256,
			error_count = CASE WHEN scripts.sha256 = excluded.sha256
				THEN scripts.error_count ELSE 0 END,
			last_error = CASE WHEN scripts.sha256 = excluded.sha256
				THEN scripts.last_error ELSE '' END,
			fetched_at = excluded.fetched_at,
			updated_at = excluded.updated_at
	`, rec.ID, rec.Name, rec.Filename, rec.Version, rec.Author, rec.SourceURL,
		rec.SHA256, rec.FetchedAt, rec.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to save script record: %w", err)
	}

	logging.StoreDebug("Saved script record: %s (sha=%s)", rec.Name, shortHash(rec.SHA256))
	return nil
}

// Get returns the record for a script name, or nil when absent.
func (s *Store) Get(name string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := scanRecord(s.db.QueryRow(`
		SELECT id, name, filename, version, author, source_url, sha256,
			enabled, error_count, last_error, fetched_at, updated_at
		FROM scripts WHERE name = ?
	`, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load script record: %w", err)
	}
	return rec, nil
}

// List returns all records ordered by name. When enabledOnly is set,
// disabled scripts are omitted.
func (s *Store) List(enabledOnly bool) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, name, filename, version, author, source_url, sha256,
			enabled, error_count, last_error, fetched_at, updated_at
		FROM scripts`
	if enabledOnly {
		query += ` WHERE enabled = 1`
	}
	query += ` ORDER BY name`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan script record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SetEnabled flips a script's enabled flag. Enabling also clears the
// error state.
func (s *Store) SetEnabled(name string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res sql.Result
	var err error
	if enabled {
		res, err = s.db.Exec(`
			UPDATE scripts SET enabled = 1, error_count = 0, last_error = '',
				updated_at = ? WHERE name = ?`, time.Now(), name)
	} else {
		res, err = s.db.Exec(`
			UPDATE scripts SET enabled = 0, updated_at = ? WHERE name = ?`,
			time.Now(), name)
	}
	if err != nil {
		return fmt.Errorf("failed to update enabled flag: %w", err)
	}
	return checkFound(res, name)
}

// RecordFailure stores a script failure, typically from the runtime's
// auto-disable hook, and marks the script disabled.
func (s *Store) RecordFailure(name string, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := ""
	if cause != nil {
		msg = cause.Error()
	}

	res, err := s.db.Exec(`
		UPDATE scripts SET enabled = 0, error_count = error_count + 1,
			last_error = ?, updated_at = ? WHERE name = ?`,
		msg, time.Now(), name)
	if err != nil {
		return fmt.Errorf("failed to record failure: %w", err)
	}
	return checkFound(res, name)
}

// Remove deletes a script record.
func (s *Store) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM scripts WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to remove script record: %w", err)
	}
	return checkFound(res, name)
}

func checkFound(res sql.Result, name string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var rec Record
	var version, author, sourceURL, lastError sql.NullString
	err := row.Scan(&rec.ID, &rec.Name, &rec.Filename, &version, &author,
		&sourceURL, &rec.SHA256, &rec.Enabled, &rec.ErrorCount, &lastError,
		&rec.FetchedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rec.Version = version.String
	rec.Author = author.String
	rec.SourceURL = sourceURL.String
	rec.LastError = lastError.String
	return &rec, nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
