package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/longform-ai/longform/internal/core"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	run_id     TEXT PRIMARY KEY,
	plan_title TEXT NOT NULL,
	payload    TEXT NOT NULL,
	checksum   TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// SQLiteStore implements core.CheckpointStore on a single SQLite database.
// Suited to long runs with many checkpoints, where one file per run would
// litter the state directory.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, core.ErrState("STATE_DIR", fmt.Sprintf("creating state directory: %v", err)).WithCause(err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, core.ErrState("STATE_OPEN", fmt.Sprintf("opening checkpoint database: %v", err)).WithCause(err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, core.ErrState("STATE_MIGRATE", fmt.Sprintf("creating checkpoint schema: %v", err)).WithCause(err)
	}
	return &SQLiteStore{db: db}, nil
}

// Save implements core.CheckpointStore.
func (s *SQLiteStore) Save(ctx context.Context, rec *core.CheckpointRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return core.ErrState("STATE_MARSHAL", fmt.Sprintf("marshaling checkpoint: %v", err)).WithCause(err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (run_id, plan_title, payload, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			plan_title = excluded.plan_title,
			payload    = excluded.payload,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at`,
		rec.RunID, rec.PlanTitle, string(payload), checksum(payload), time.Now())
	if err != nil {
		return core.ErrState("STATE_WRITE", fmt.Sprintf("saving checkpoint: %v", err)).WithCause(err)
	}
	return nil
}

// Load implements core.CheckpointStore.
func (s *SQLiteStore) Load(ctx context.Context, runID string) (*core.CheckpointRecord, error) {
	var payload, sum string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, checksum FROM checkpoints WHERE run_id = ?`, runID).
		Scan(&payload, &sum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, core.ErrState("STATE_READ", fmt.Sprintf("loading checkpoint: %v", err)).WithCause(err)
	}

	if got := checksum([]byte(payload)); got != sum {
		return nil, core.ErrState(core.CodeStateCorrupted,
			fmt.Sprintf("checkpoint checksum mismatch for run %s", runID))
	}

	var rec core.CheckpointRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, core.ErrState(core.CodeStateCorrupted, fmt.Sprintf("parsing checkpoint: %v", err)).WithCause(err)
	}
	return &rec, nil
}

// Delete implements core.CheckpointStore.
func (s *SQLiteStore) Delete(ctx context.Context, runID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE run_id = ?`, runID); err != nil {
		return core.ErrState("STATE_DELETE", fmt.Sprintf("deleting checkpoint: %v", err)).WithCause(err)
	}
	return nil
}

// List implements core.CheckpointStore.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id FROM checkpoints ORDER BY run_id`)
	if err != nil {
		return nil, core.ErrState("STATE_READ", fmt.Sprintf("listing checkpoints: %v", err)).WithCause(err)
	}
	defer rows.Close()

	var runIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, core.ErrState("STATE_READ", fmt.Sprintf("scanning checkpoint row: %v", err)).WithCause(err)
		}
		runIDs = append(runIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, core.ErrState("STATE_READ", fmt.Sprintf("iterating checkpoints: %v", err)).WithCause(err)
	}
	return runIDs, nil
}

// Close implements core.CheckpointStore.
func (s *SQLiteStore) Close() error { return s.db.Close() }
