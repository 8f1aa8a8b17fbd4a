package state

import (
	"fmt"

	"github.com/longform-ai/longform/internal/core"
)

// Backend names for checkpoint storage.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// NewStore creates a checkpoint store for the configured backend. For JSON
// the path is a directory; for SQLite it is the database file.
func NewStore(backend, path string) (core.CheckpointStore, error) {
	switch backend {
	case BackendJSON, "":
		return NewJSONStore(path)
	case BackendSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, core.ErrState("STATE_BACKEND", fmt.Sprintf("unknown checkpoint backend %q", backend))
	}
}
