package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/longform-ai/longform/internal/agent"
	"github.com/longform-ai/longform/internal/assembler"
	"github.com/longform-ai/longform/internal/backend"
	"github.com/longform-ai/longform/internal/core"
	"github.com/longform-ai/longform/internal/export"
	"github.com/longform-ai/longform/internal/orchestrator"
	"github.com/longform-ai/longform/internal/planner"
	"github.com/longform-ai/longform/internal/quality"
	"github.com/longform-ai/longform/internal/sandbox"
	"github.com/longform-ai/longform/internal/state"
)

var generateFlags struct {
	topic    string
	title    string
	words    int
	docType  string
	audience string
	level    string
	figures  bool
	tables   bool
	out      string
	format   string
	runID    string
	resume   bool
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a document from a topic",
	Long: `generate plans the document, executes every section through the
configured backend, assembles the fragments, and writes the result to disk.
Interrupting a run leaves a checkpoint; rerun with --run-id and --resume to
pick up where it stopped.`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&generateFlags.topic, "topic", "", "document topic (required)")
	f.StringVar(&generateFlags.title, "title", "", "document title (defaults to the topic)")
	f.IntVar(&generateFlags.words, "words", 5000, "target total word count")
	f.StringVar(&generateFlags.docType, "type", string(core.DocTypeReport),
		"document type (research_paper, thesis, report, free_form)")
	f.StringVar(&generateFlags.audience, "audience", "", "intended audience")
	f.StringVar(&generateFlags.level, "level", "", "academic level (undergraduate, graduate, doctoral, professional)")
	f.BoolVar(&generateFlags.figures, "figures", false, "allocate figure placeholders")
	f.BoolVar(&generateFlags.tables, "tables", false, "allocate table placeholders")
	f.StringVar(&generateFlags.out, "out", "", "output path (defaults under the export directory)")
	f.StringVar(&generateFlags.format, "format", "", "output format (markdown, text); defaults from config")
	f.StringVar(&generateFlags.runID, "run-id", "", "run identifier for checkpointing")
	f.BoolVar(&generateFlags.resume, "resume", false, "resume from an existing checkpoint")
	_ = generateCmd.MarkFlagRequired("topic")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := planner.New(logger)
	if err != nil {
		return err
	}
	plan, err := p.CreatePlan(planner.PlanRequest{
		Topic:          generateFlags.topic,
		Title:          generateFlags.title,
		TotalWords:     generateFlags.words,
		DocumentType:   core.DocumentType(generateFlags.docType),
		IncludeFigures: generateFlags.figures,
		IncludeTables:  generateFlags.tables,
		Audience:       generateFlags.audience,
		AcademicLevel:  planner.AcademicLevel(generateFlags.level),
	})
	if err != nil {
		return err
	}

	textBackend, err := buildBackend()
	if err != nil {
		return err
	}

	var runner core.ScriptRunner
	if cfg.Sandbox.Enabled {
		r := sandbox.NewRunner(cfg.Generation.WorkDir, logger)
		if cfg.Sandbox.Interpreter != "" {
			r = r.WithInterpreter(cfg.Sandbox.Interpreter)
		}
		runner = r
	}

	registry := agent.NewDefaultRegistry(textBackend, runner, buildAgentConfig(), logger)

	store, err := state.NewStore(cfg.State.Backend, cfg.State.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	asm := assembler.New(logger).WithOptimizer(assembler.DefaultOptimizer())
	orch := orchestrator.New(registry, asm, logger).WithCheckpointStore(store)

	result, err := orch.GenerateDocument(ctx, plan, orchestrator.Options{
		RunID:      generateFlags.runID,
		Parallel:   cfg.Generation.Parallel,
		MaxWorkers: cfg.Generation.MaxWorkers,
		Resume:     generateFlags.resume,
		WorkRoot:   cfg.Generation.WorkDir,
	})
	if err != nil {
		if result != nil && result.Metadata.Aborted {
			fmt.Fprintf(cmd.ErrOrStderr(),
				"Run %s interrupted after %d sections; rerun with --run-id %s --resume to continue.\n",
				result.Metadata.RunID, len(result.Outputs), result.Metadata.RunID)
		}
		return err
	}

	report := quality.NewChecker(logger).Evaluate(plan, result.Outputs)

	format := generateFlags.format
	if format == "" {
		format = cfg.Export.Format
	}
	outPath := generateFlags.out
	if outPath == "" {
		outPath = filepath.Join(cfg.Export.Dir, slugify(plan.Title)+extensionFor(format))
	}
	path, err := export.NewMarkdown(logger).Export(ctx, result.Content, format, outPath)
	if err != nil {
		return err
	}

	printSummary(cmd, result, report, path)
	return nil
}

func buildBackend() (core.TextBackend, error) {
	b, err := backend.NewOpenAI(backend.OpenAIConfig{
		APIKey:  cfg.Backend.APIKey,
		BaseURL: cfg.Backend.BaseURL,
		Model:   cfg.Backend.Model,
	}, logger)
	if err != nil {
		return nil, err
	}

	policy := backend.DefaultRetryPolicy()
	if cfg.Backend.MaxRetries > 0 {
		policy.MaxAttempts = cfg.Backend.MaxRetries
	}
	limiter := backend.NewRateLimiter(backend.RateLimiterConfig{
		MaxTokens:  cfg.Backend.BurstSize,
		RefillRate: cfg.Backend.RequestsPerSecond,
	})
	return backend.WithRateLimit(backend.WithRetry(b, policy, logger), limiter), nil
}

func buildAgentConfig() agent.Config {
	agentCfg := agent.DefaultConfig()
	agentCfg.Temperature = cfg.Backend.Temperature
	if d, err := time.ParseDuration(cfg.Backend.Timeout); err == nil && d > 0 {
		agentCfg.Timeout = d
	}
	if d, err := time.ParseDuration(cfg.Sandbox.Timeout); err == nil && d > 0 {
		agentCfg.ScriptTimeout = d
	}
	return agentCfg
}

func printSummary(cmd *cobra.Command, result *orchestrator.Result, report *quality.Report, path string) {
	out := cmd.OutOrStdout()
	meta := result.Metadata

	fmt.Fprintf(out, "Document written to %s\n", path)
	fmt.Fprintf(out, "  run:        %s\n", meta.RunID)
	fmt.Fprintf(out, "  sections:   %d/%d completed", len(result.Outputs), meta.SectionCount)
	if meta.ResumedCount > 0 {
		fmt.Fprintf(out, " (%d resumed)", meta.ResumedCount)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  words:      %d\n", meta.TotalWords)
	fmt.Fprintf(out, "  attainment: %.0f%%\n", report.OverallAttainment*100)
	if report.CitationTarget > 0 {
		fmt.Fprintf(out, "  citations:  %d (target %d)\n", report.CitationCount, report.CitationTarget)
	}
	if result.Assembly != nil && len(result.Assembly.Unplaced) > 0 {
		fmt.Fprintf(out, "  unplaced:   %s\n", strings.Join(result.Assembly.Unplaced, ", "))
	}
	if meta.Degraded {
		fmt.Fprintln(out, "  note: the section dependency graph contained a cycle and was broken deterministically")
	}
	for _, failure := range report.Failures {
		fmt.Fprintf(out, "  quality: %s\n", failure)
	}
}

func slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

func extensionFor(format string) string {
	if format == export.FormatText {
		return ".txt"
	}
	return ".md"
}
