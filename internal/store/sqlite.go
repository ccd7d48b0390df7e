package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/revisional/loan-engine/internal/report"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists snapshots in an embedded SQLite database. Request and
// result payloads are stored as JSON text; every decimal inside them is
// serialized as a string, so nothing loses precision in storage.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dataSourceName and
// initializes the schema.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		request TEXT NOT NULL,
		result TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveSnapshot stores a snapshot. A zero id is assigned a fresh UUID and a
// zero CreatedAt the current time.
func (s *SQLiteStore) SaveSnapshot(snapshot *Snapshot) error {
	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now().UTC()
	}

	requestJSON, err := json.Marshal(snapshot.Request)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	resultJSON, err := json.Marshal(snapshot.Result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO snapshots (id, created_at, request, result) VALUES (?, ?, ?, ?)",
		snapshot.ID.String(), snapshot.CreatedAt, string(requestJSON), string(resultJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

// GetSnapshot retrieves a snapshot by id.
func (s *SQLiteStore) GetSnapshot(id uuid.UUID) (*Snapshot, error) {
	row := s.db.QueryRow("SELECT id, created_at, request, result FROM snapshots WHERE id = ?", id.String())
	return scanSnapshot(row)
}

// ListSnapshots returns all snapshots, newest first.
func (s *SQLiteStore) ListSnapshots() ([]*Snapshot, error) {
	rows, err := s.db.Query("SELECT id, created_at, request, result FROM snapshots ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, rows.Err()
}

// DeleteSnapshot removes a snapshot by id.
func (s *SQLiteStore) DeleteSnapshot(id uuid.UUID) error {
	result, err := s.db.Exec("DELETE FROM snapshots WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row rowScanner) (*Snapshot, error) {
	var idStr, requestJSON, resultJSON string
	var createdAt time.Time

	if err := row.Scan(&idStr, &createdAt, &requestJSON, &resultJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("stored snapshot has invalid id %q: %w", idStr, err)
	}

	snapshot := &Snapshot{ID: id, CreatedAt: createdAt}
	if err := json.Unmarshal([]byte(requestJSON), &snapshot.Request); err != nil {
		return nil, fmt.Errorf("failed to decode stored request: %w", err)
	}
	var result report.Result
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to decode stored result: %w", err)
	}
	snapshot.Result = result
	return snapshot, nil
}
