// Package state persists orchestrator checkpoints. Two backends are
// provided: a JSON file per run with atomic writes, and a single SQLite
// database. Both verify a content checksum on load so a corrupted
// checkpoint is reported instead of silently resumed from.
package state

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/renameio/v2"

	"github.com/longform-ai/longform/internal/core"
)

// runIDPattern guards against run IDs that would escape the store
// directory when used as file names.
var runIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// checkpointEnvelope wraps a record with integrity metadata.
type checkpointEnvelope struct {
	Version   int                    `json:"version"`
	Checksum  string                 `json:"checksum"`
	UpdatedAt time.Time              `json:"updated_at"`
	Record    *core.CheckpointRecord `json:"record"`
}

// JSONStore implements core.CheckpointStore with one JSON file per run.
type JSONStore struct {
	dir string
}

// NewJSONStore creates the store rooted at dir.
func NewJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, core.ErrState("STATE_DIR", fmt.Sprintf("creating checkpoint directory: %v", err)).WithCause(err)
	}
	return &JSONStore{dir: dir}, nil
}

// Save implements core.CheckpointStore. The write is atomic: a reader never
// observes a partially written checkpoint.
func (s *JSONStore) Save(_ context.Context, rec *core.CheckpointRecord) error {
	if err := validateRunID(rec.RunID); err != nil {
		return err
	}

	recBytes, err := json.Marshal(rec)
	if err != nil {
		return core.ErrState("STATE_MARSHAL", fmt.Sprintf("marshaling checkpoint: %v", err)).WithCause(err)
	}

	envelope := checkpointEnvelope{
		Version:   1,
		Checksum:  checksum(recBytes),
		UpdatedAt: time.Now(),
		Record:    rec,
	}
	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return core.ErrState("STATE_MARSHAL", fmt.Sprintf("marshaling envelope: %v", err)).WithCause(err)
	}

	if err := renameio.WriteFile(s.path(rec.RunID), data, 0o644); err != nil {
		return core.ErrState("STATE_WRITE", fmt.Sprintf("writing checkpoint: %v", err)).WithCause(err)
	}
	return nil
}

// Load implements core.CheckpointStore.
func (s *JSONStore) Load(_ context.Context, runID string) (*core.CheckpointRecord, error) {
	if err := validateRunID(runID); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(runID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, core.ErrState("STATE_READ", fmt.Sprintf("reading checkpoint: %v", err)).WithCause(err)
	}

	var envelope checkpointEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, core.ErrState(core.CodeStateCorrupted, fmt.Sprintf("parsing checkpoint: %v", err)).WithCause(err)
	}
	if envelope.Record == nil {
		return nil, core.ErrState(core.CodeStateCorrupted, "checkpoint envelope has no record")
	}

	recBytes, err := json.Marshal(envelope.Record)
	if err != nil {
		return nil, core.ErrState("STATE_MARSHAL", fmt.Sprintf("remarshaling checkpoint: %v", err)).WithCause(err)
	}
	if got := checksum(recBytes); got != envelope.Checksum {
		return nil, core.ErrState(core.CodeStateCorrupted,
			fmt.Sprintf("checkpoint checksum mismatch for run %s", runID))
	}
	return envelope.Record, nil
}

// Delete implements core.CheckpointStore. Deleting a missing checkpoint is
// not an error.
func (s *JSONStore) Delete(_ context.Context, runID string) error {
	if err := validateRunID(runID); err != nil {
		return err
	}
	if err := os.Remove(s.path(runID)); err != nil && !os.IsNotExist(err) {
		return core.ErrState("STATE_DELETE", fmt.Sprintf("deleting checkpoint: %v", err)).WithCause(err)
	}
	return nil
}

// List implements core.CheckpointStore.
func (s *JSONStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, core.ErrState("STATE_READ", fmt.Sprintf("listing checkpoints: %v", err)).WithCause(err)
	}
	var runIDs []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		runIDs = append(runIDs, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(runIDs)
	return runIDs, nil
}

// Close implements core.CheckpointStore.
func (s *JSONStore) Close() error { return nil }

func (s *JSONStore) path(runID string) string {
	return filepath.Join(s.dir, runID+".json")
}

func validateRunID(runID string) error {
	if !runIDPattern.MatchString(runID) {
		return core.ErrState("STATE_RUN_ID", fmt.Sprintf("invalid run ID %q", runID))
	}
	return nil
}

func checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
