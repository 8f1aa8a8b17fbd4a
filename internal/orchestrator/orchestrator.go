package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/longform-ai/longform/internal/core"
	"github.com/longform-ai/longform/internal/logging"
)

// DocumentAssembler consumes all section outputs plus the plan's element
// list and produces the final document string together with a report of
// every element's resolved placement.
type DocumentAssembler interface {
	Assemble(outputs []*core.SectionOutput, elements []*core.DocumentElement, style map[string]string) (string, *core.AssemblyReport, error)
}

// Options configures a document generation run.
type Options struct {
	// RunID identifies the run for checkpointing. Empty generates one.
	RunID string
	// Parallel enables concurrent execution within a wave.
	Parallel bool
	// MaxWorkers bounds the per-wave worker pool. Zero means DefaultMaxWorkers.
	MaxWorkers int
	// Resume restores a prior checkpoint and skips completed sections.
	Resume bool
	// WorkRoot is the parent directory for per-section working directories.
	WorkRoot string
}

// DefaultMaxWorkers bounds the worker pool when Options.MaxWorkers is zero.
const DefaultMaxWorkers = 4

// Metadata summarizes a completed run.
type Metadata struct {
	RunID          string           `json:"run_id"`
	Degraded       bool             `json:"degraded"`
	Aborted        bool             `json:"aborted"`
	WaveCount      int              `json:"wave_count"`
	SectionCount   int              `json:"section_count"`
	FailedSections []core.SectionID `json:"failed_sections,omitempty"`
	ResumedCount   int              `json:"resumed_count"`
	TotalWords     int              `json:"total_words"`
	StartedAt      time.Time        `json:"started_at"`
	FinishedAt     time.Time        `json:"finished_at"`
}

// Result is the outcome of a generation run. The execution log enumerates
// every section attempt so partial failures stay auditable.
type Result struct {
	Content  string
	Outputs  []*core.SectionOutput
	Log      []core.ExecutionLogEntry
	Assembly *core.AssemblyReport
	Metadata Metadata
}

// Orchestrator schedules section execution in dependency waves, fans each
// wave out to a bounded worker pool, and merges completed outputs into the
// shared context between waves.
type Orchestrator struct {
	agents      core.AgentRegistry
	assembler   DocumentAssembler
	checkpoints core.CheckpointStore
	logger      *logging.Logger
}

// New creates an orchestrator.
func New(agents core.AgentRegistry, assembler DocumentAssembler, logger *logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		agents:    agents,
		assembler: assembler,
		logger:    logger,
	}
}

// WithCheckpointStore enables checkpoint save/restore for the orchestrator.
func (o *Orchestrator) WithCheckpointStore(store core.CheckpointStore) *Orchestrator {
	o.checkpoints = store
	return o
}

// GenerateDocument runs the full pipeline for one plan: wave scheduling,
// bounded parallel section execution, shared-context merging, and assembly.
func (o *Orchestrator) GenerateDocument(ctx context.Context, plan *core.DocumentPlan, opts Options) (*Result, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := o.logger.WithRun(runID)

	waves, degraded := BuildWaves(plan)
	if degraded {
		logger.Warn("dependency cycle detected, broken deterministically",
			"sections", len(plan.Sections),
			"waves", len(waves),
		)
	}

	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = DefaultMaxWorkers
	}
	if !opts.Parallel {
		workers = 1
	}

	shared := NewSharedContext()
	completed := make(map[core.SectionID]bool)
	var execLog []core.ExecutionLogEntry
	resumed := 0

	if opts.Resume && o.checkpoints != nil {
		rec, err := o.checkpoints.Load(ctx, runID)
		if err != nil {
			logger.Warn("failed to load checkpoint, starting fresh", "error", err)
		} else if rec != nil {
			shared = RestoreSharedContext(rec.SharedContext)
			execLog = rec.ExecutionLog
			for _, entry := range execLog {
				if entry.Success {
					completed[entry.SectionID] = true
					resumed++
				}
			}
			logger.Info("checkpoint restored",
				"completed_sections", resumed,
				"log_entries", len(execLog),
			)
		}
	}

	meta := Metadata{
		RunID:        runID,
		Degraded:     degraded,
		WaveCount:    len(waves),
		SectionCount: len(plan.Sections),
		ResumedCount: resumed,
		StartedAt:    time.Now(),
	}

	logger.Info("starting document generation",
		"title", plan.Title,
		"sections", len(plan.Sections),
		"waves", len(waves),
		"max_workers", workers,
		"parallel", opts.Parallel,
	)

	var outputs []*core.SectionOutput

	for _, wave := range waves {
		pending := make([]*core.SectionPlan, 0, len(wave.Sections))
		for _, sec := range wave.Sections {
			if !completed[sec.ID] {
				pending = append(pending, sec)
			}
		}
		if len(pending) == 0 {
			continue
		}

		if ctx.Err() != nil {
			meta.Aborted = true
			break
		}

		logger.Info("executing wave",
			"wave", wave.Index,
			"sections", len(pending),
		)

		// Workers read a snapshot taken before the wave starts; merges
		// happen only after the wave fully drains.
		waveStart := time.Now()
		snapshot := shared.Snapshot()
		results := make([]*core.SectionOutput, len(pending))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i, sec := range pending {
			i, sec := i, sec
			g.Go(func() error {
				results[i] = o.runSection(gctx, plan, sec, snapshot, runID, opts.WorkRoot)
				return nil
			})
		}
		// Workers report failures through their SectionOutput, never as
		// errgroup errors, so siblings are not interrupted.
		_ = g.Wait()

		if ctx.Err() != nil {
			// Caller aborted mid-wave: in-flight workers have drained,
			// nothing from this wave is merged.
			meta.Aborted = true
			break
		}

		for i, out := range results {
			sec := pending[i]
			entry := core.ExecutionLogEntry{
				SectionID: sec.ID,
				Wave:      wave.Index,
				AgentKind: sec.AssignedAgent,
				Success:   out.Success,
				WordCount: out.WordCount,
				Duration:  out.Duration,
				Error:     out.Error,
				StartedAt: waveStart,
			}
			execLog = append(execLog, entry)

			if out.Success {
				shared.MergeSection(out)
				completed[sec.ID] = true
				outputs = append(outputs, out)
				meta.TotalWords += out.WordCount
				logger.Info("section completed",
					"section_id", sec.ID,
					"wave", wave.Index,
					"word_count", out.WordCount,
					"duration_ms", out.Duration.Milliseconds(),
				)
			} else {
				meta.FailedSections = append(meta.FailedSections, sec.ID)
				logger.Error("section failed",
					"section_id", sec.ID,
					"wave", wave.Index,
					"error", out.Error,
				)
			}
		}

		o.saveCheckpoint(ctx, logger, runID, plan, shared, execLog)
	}

	content := ""
	var report *core.AssemblyReport
	if o.assembler != nil && len(outputs) > 0 {
		var err error
		content, report, err = o.assembler.Assemble(outputs, plan.Elements, plan.StyleGuide)
		if err != nil {
			logger.Error("assembly failed", "error", err)
			return nil, err
		}
	}

	meta.FinishedAt = time.Now()
	logger.Info("document generation finished",
		"sections_completed", len(outputs),
		"sections_failed", len(meta.FailedSections),
		"total_words", meta.TotalWords,
		"aborted", meta.Aborted,
	)

	result := &Result{
		Content:  content,
		Outputs:  outputs,
		Log:      execLog,
		Assembly: report,
		Metadata: meta,
	}

	if meta.Aborted {
		return result, ctx.Err()
	}
	return result, nil
}

// runSection executes one section through its assigned agent. Failures are
// folded into the returned SectionOutput; this never returns nil.
func (o *Orchestrator) runSection(ctx context.Context, plan *core.DocumentPlan, sec *core.SectionPlan, snapshot map[string]string, runID, workRoot string) *core.SectionOutput {
	start := time.Now()

	agent, err := o.agents.Get(sec.AssignedAgent)
	if err != nil {
		return core.FailedOutput(sec.ID, sec.AssignedAgent,
			core.ErrSection(core.CodeAgentUnavailable, err.Error()), time.Since(start))
	}

	workDir := ""
	if workRoot != "" {
		workDir = filepath.Join(workRoot, runID, string(sec.ID))
		if err := os.MkdirAll(workDir, 0o755); err != nil {
			o.logger.Warn("failed to create section workdir",
				"section_id", sec.ID,
				"error", err,
			)
			workDir = ""
		}
	}

	ec := &core.ExecutionContext{
		Section:        sec,
		Plan:           plan,
		SharedSnapshot: snapshot,
		WorkDir:        workDir,
		ToolsAllowed:   sec.ToolsAllowed,
	}

	out, err := agent.GenerateSection(ctx, ec)
	if err != nil {
		return core.FailedOutput(sec.ID, sec.AssignedAgent, err, time.Since(start))
	}
	if out == nil {
		return core.FailedOutput(sec.ID, sec.AssignedAgent,
			core.ErrSection(core.CodeSectionFailed, "agent returned no output"), time.Since(start))
	}
	if out.Duration == 0 {
		out.Duration = time.Since(start)
	}
	return out
}

func (o *Orchestrator) saveCheckpoint(ctx context.Context, logger *logging.Logger, runID string, plan *core.DocumentPlan, shared *SharedContext, execLog []core.ExecutionLogEntry) {
	if o.checkpoints == nil {
		return
	}
	rec := &core.CheckpointRecord{
		RunID:         runID,
		PlanTitle:     plan.Title,
		SharedContext: shared.Snapshot(),
		ExecutionLog:  execLog,
		Timestamp:     time.Now(),
	}
	if err := o.checkpoints.Save(ctx, rec); err != nil {
		logger.Warn("failed to save checkpoint", "error", err)
	}
}
