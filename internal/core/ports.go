package core

import (
	"context"
	"time"
)

// =============================================================================
// Agent Port
// =============================================================================

// AgentKind identifies a section-generation specialization. The set is
// closed; the orchestrator never inspects agent internals beyond this tag.
type AgentKind string

const (
	AgentResearch    AgentKind = "research_synthesis"
	AgentAnalysis    AgentKind = "data_analysis"
	AgentMethodology AgentKind = "methodology"
	AgentDiscussion  AgentKind = "discussion"
	AgentWriter      AgentKind = "general_writer"
)

// AllAgentKinds returns the closed set of agent specializations.
func AllAgentKinds() []AgentKind {
	return []AgentKind{
		AgentResearch,
		AgentAnalysis,
		AgentMethodology,
		AgentDiscussion,
		AgentWriter,
	}
}

// Agent is the capability contract for section generation. All variants are
// substitutable through this interface.
type Agent interface {
	// Kind returns the agent's specialization tag.
	Kind() AgentKind

	// GenerateSection produces one section from an immutable execution
	// context. It must respect ctx cancellation and its own timeouts.
	GenerateSection(ctx context.Context, ec *ExecutionContext) (*SectionOutput, error)
}

// AgentRegistry resolves agents by specialization.
type AgentRegistry interface {
	// Register adds an agent to the registry.
	Register(agent Agent) error

	// Get retrieves an agent by kind.
	Get(kind AgentKind) (Agent, error)

	// Kinds returns all registered agent kinds.
	Kinds() []AgentKind
}

// =============================================================================
// TextBackend Port
// =============================================================================

// Message represents a single message in a conversation history.
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// GenerateResult contains the output of a backend generation call.
type GenerateResult struct {
	Text         string
	TokensUsed   int
	FinishReason string
	Model        string
	Duration     time.Duration
}

// TextBackend is the narrow contract over any text-generation provider.
// The core never depends on provider-specific response shapes beyond this.
type TextBackend interface {
	Generate(ctx context.Context, history []Message, temperature float64, maxTokens int) (*GenerateResult, error)
}

// =============================================================================
// ScriptRunner Port
// =============================================================================

// RunResult contains the outcome of a sandboxed script execution.
type RunResult struct {
	Success  bool
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// ScriptRunner executes generated scripts in an isolated directory with a
// hard timeout. Used only by data-analysis-style agents.
type ScriptRunner interface {
	Run(ctx context.Context, scriptPath string, timeout time.Duration) (*RunResult, error)
}

// =============================================================================
// CheckpointStore Port
// =============================================================================

// CheckpointRecord is the durable snapshot of orchestrator progress.
// Restoring it reproduces scheduler state sufficient to skip sections
// already present in the execution log.
type CheckpointRecord struct {
	RunID         string              `json:"run_id"`
	PlanTitle     string              `json:"plan_title"`
	SharedContext map[string]string   `json:"shared_context"`
	ExecutionLog  []ExecutionLogEntry `json:"execution_log"`
	Timestamp     time.Time           `json:"timestamp"`
}

// ExecutionLogEntry records one section attempt for auditing and resumption.
type ExecutionLogEntry struct {
	SectionID SectionID     `json:"section_id"`
	Wave      int           `json:"wave"`
	AgentKind AgentKind     `json:"agent_kind"`
	Success   bool          `json:"success"`
	WordCount int           `json:"word_count"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
}

// CheckpointStore persists checkpoint records.
type CheckpointStore interface {
	// Save persists a checkpoint atomically, replacing any prior record
	// for the same run.
	Save(ctx context.Context, rec *CheckpointRecord) error

	// Load retrieves the checkpoint for a run.
	// Returns nil record and no error if none exists.
	Load(ctx context.Context, runID string) (*CheckpointRecord, error)

	// Delete removes the checkpoint for a run.
	Delete(ctx context.Context, runID string) error

	// List returns the run IDs with stored checkpoints.
	List(ctx context.Context) ([]string, error)

	// Close releases underlying resources.
	Close() error
}

// =============================================================================
// Exporter Port
// =============================================================================

// Exporter hands the finished document string to an external renderer.
// The core's responsibility ends at reference-resolved text.
type Exporter interface {
	// Export renders the document in the target format and returns the
	// output path.
	Export(ctx context.Context, document string, format string, outPath string) (string, error)
}
