package agent

import (
	"context"

	"github.com/longform-ai/longform/internal/core"
	"github.com/longform-ai/longform/internal/logging"
)

const writerSystemPrompt = `You are a long-form technical writer producing one section of a larger document.
Write clear, well-structured prose in markdown. Stay within the requested length.
Do not repeat content that the provided context says other sections already cover.`

// WriterAgent is the general-purpose section writer and the fallback for
// sections without a stronger specialization.
type WriterAgent struct {
	BaseAgent
}

// NewWriter creates the general writer agent.
func NewWriter(backend core.TextBackend, cfg Config, logger *logging.Logger) *WriterAgent {
	return &WriterAgent{BaseAgent: newBase(core.AgentWriter, backend, cfg, logger)}
}

// GenerateSection implements core.Agent.
func (a *WriterAgent) GenerateSection(ctx context.Context, ec *core.ExecutionContext) (*core.SectionOutput, error) {
	return a.generate(ctx, ec, writerSystemPrompt, nil)
}
