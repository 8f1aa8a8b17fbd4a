package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/longform-ai/longform/internal/core"
	"github.com/longform-ai/longform/internal/logging"
)

const analysisSystemPrompt = `You are a data-analysis writer producing one section of a larger document.
Ground every quantitative statement in computation. When a calculation supports
the section, emit a self-contained python script in a fenced code block; its
printed output will be attached to the section as evidence.`

var pythonBlockPattern = regexp.MustCompile("(?s)```python\n(.*?)```")

// AnalysisAgent writes data-driven sections. When the model emits a python
// script and a sandbox runner is configured, the script is executed in the
// section's working directory with a hard timeout and its output is
// appended to the section as evidence.
type AnalysisAgent struct {
	BaseAgent
	runner core.ScriptRunner
}

// NewAnalysis creates the data-analysis agent. A nil runner disables script
// execution; scripts are then kept as inline code only.
func NewAnalysis(backend core.TextBackend, runner core.ScriptRunner, cfg Config, logger *logging.Logger) *AnalysisAgent {
	return &AnalysisAgent{
		BaseAgent: newBase(core.AgentAnalysis, backend, cfg, logger),
		runner:    runner,
	}
}

// GenerateSection implements core.Agent.
func (a *AnalysisAgent) GenerateSection(ctx context.Context, ec *core.ExecutionContext) (*core.SectionOutput, error) {
	out, err := a.generate(ctx, ec, analysisSystemPrompt, []string{
		"If a computation is needed, include exactly one python script in a ```python fenced block.",
	})
	if err != nil {
		return nil, err
	}

	script := firstPythonBlock(out.Content)
	if script == "" || a.runner == nil || ec.WorkDir == "" {
		return out, nil
	}

	scriptPath := filepath.Join(ec.WorkDir, "analysis.py")
	if err := os.WriteFile(scriptPath, []byte(script), 0o644); err != nil {
		return nil, core.ErrSection(core.CodeSandboxFailed,
			fmt.Sprintf("writing analysis script for section %s: %v", ec.Section.ID, err))
	}
	out.Files = append(out.Files, scriptPath)

	res, err := a.runner.Run(ctx, scriptPath, a.cfg.ScriptTimeout)
	if err != nil {
		return nil, core.ErrSection(core.CodeSandboxFailed,
			fmt.Sprintf("running analysis script for section %s: %v", ec.Section.ID, err))
	}

	// A script that ran but exited non-zero is evidence too; the section
	// keeps its prose and the stderr is attached for the reader.
	out.Content += "\n\n" + renderEvidence(res)
	out.WordCount = len(strings.Fields(out.Content))
	if !res.Success {
		a.logger.Warn("analysis script exited non-zero",
			"section_id", ec.Section.ID,
			"exit_code", res.ExitCode,
		)
	}
	return out, nil
}

func firstPythonBlock(content string) string {
	m := pythonBlockPattern.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func renderEvidence(res *core.RunResult) string {
	var sb strings.Builder
	sb.WriteString("Script output:\n\n```\n")
	if out := strings.TrimSpace(res.Stdout); out != "" {
		sb.WriteString(out)
		sb.WriteByte('\n')
	}
	if errOut := strings.TrimSpace(res.Stderr); errOut != "" {
		sb.WriteString(errOut)
		sb.WriteByte('\n')
	}
	if res.Stdout == "" && res.Stderr == "" {
		sb.WriteString("(no output)\n")
	}
	sb.WriteString("```")
	return sb.String()
}
