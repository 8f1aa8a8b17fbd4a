package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longform-ai/longform/internal/core"
)

func sampleRecord(runID string) *core.CheckpointRecord {
	return &core.CheckpointRecord{
		RunID:     runID,
		PlanTitle: "Benchmark Study",
		SharedContext: map[string]string{
			"intro_word_count":       "400",
			"general_writer_summary": "The introduction frames the study.",
		},
		ExecutionLog: []core.ExecutionLogEntry{
			{SectionID: "intro", Wave: 0, AgentKind: core.AgentWriter, Success: true, WordCount: 400},
			{SectionID: "body", Wave: 1, AgentKind: core.AgentResearch, Success: false, Error: "backend down"},
		},
		Timestamp: time.Now().UTC(),
	}
}

// storeFactories lets every contract test run against both backends.
func storeFactories(t *testing.T) map[string]func() core.CheckpointStore {
	t.Helper()
	return map[string]func() core.CheckpointStore{
		"json": func() core.CheckpointStore {
			s, err := NewJSONStore(t.TempDir())
			require.NoError(t, err)
			return s
		},
		"sqlite": func() core.CheckpointStore {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "checkpoints.db"))
			require.NoError(t, err)
			return s
		},
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	for name, factory := range storeFactories(t) {
		name, factory := name, factory
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := factory()
			defer s.Close()

			rec := sampleRecord("run-1")
			require.NoError(t, s.Save(context.Background(), rec))

			got, err := s.Load(context.Background(), "run-1")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, rec.PlanTitle, got.PlanTitle)
			assert.Equal(t, rec.SharedContext, got.SharedContext)
			require.Len(t, got.ExecutionLog, 2)
			assert.True(t, got.ExecutionLog[0].Success)
			assert.Equal(t, "backend down", got.ExecutionLog[1].Error)
		})
	}
}

func TestStore_SaveReplacesPriorRecord(t *testing.T) {
	t.Parallel()
	for name, factory := range storeFactories(t) {
		name, factory := name, factory
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := factory()
			defer s.Close()

			require.NoError(t, s.Save(context.Background(), sampleRecord("run-1")))

			updated := sampleRecord("run-1")
			updated.SharedContext["body_word_count"] = "900"
			require.NoError(t, s.Save(context.Background(), updated))

			got, err := s.Load(context.Background(), "run-1")
			require.NoError(t, err)
			assert.Equal(t, "900", got.SharedContext["body_word_count"])

			runIDs, err := s.List(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []string{"run-1"}, runIDs)
		})
	}
}

func TestStore_LoadMissingReturnsNil(t *testing.T) {
	t.Parallel()
	for name, factory := range storeFactories(t) {
		name, factory := name, factory
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := factory()
			defer s.Close()

			got, err := s.Load(context.Background(), "never-saved")
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestStore_DeleteAndList(t *testing.T) {
	t.Parallel()
	for name, factory := range storeFactories(t) {
		name, factory := name, factory
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := factory()
			defer s.Close()

			require.NoError(t, s.Save(context.Background(), sampleRecord("run-a")))
			require.NoError(t, s.Save(context.Background(), sampleRecord("run-b")))

			runIDs, err := s.List(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []string{"run-a", "run-b"}, runIDs)

			require.NoError(t, s.Delete(context.Background(), "run-a"))
			require.NoError(t, s.Delete(context.Background(), "run-a"), "double delete is fine")

			runIDs, err = s.List(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []string{"run-b"}, runIDs)
		})
	}
}

func TestJSONStore_CorruptedChecksumDetected(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s, err := NewJSONStore(dir)
	require.NoError(t, err)

	rec := sampleRecord("run-1")
	require.NoError(t, s.Save(context.Background(), rec))

	// Tamper with the stored record without updating the checksum.
	path := filepath.Join(dir, "run-1.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &envelope))
	tampered := sampleRecord("run-1")
	tampered.PlanTitle = "Tampered"
	recBytes, err := json.Marshal(tampered)
	require.NoError(t, err)
	envelope["record"] = recBytes
	data, err = json.Marshal(envelope)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = s.Load(context.Background(), "run-1")
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatState))
}

func TestJSONStore_RejectsPathTraversalRunID(t *testing.T) {
	t.Parallel()
	s, err := NewJSONStore(t.TempDir())
	require.NoError(t, err)

	err = s.Save(context.Background(), sampleRecord("../escape"))
	require.Error(t, err)
	_, err = s.Load(context.Background(), "../escape")
	require.Error(t, err)
}

func TestNewStore_Factory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	s, err := NewStore(BackendJSON, dir)
	require.NoError(t, err)
	require.IsType(t, &JSONStore{}, s)
	require.NoError(t, s.Close())

	s, err = NewStore(BackendSQLite, filepath.Join(dir, "cp.db"))
	require.NoError(t, err)
	require.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = NewStore("bolt", dir)
	require.Error(t, err)
}
