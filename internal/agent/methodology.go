package agent

import (
	"context"

	"github.com/longform-ai/longform/internal/core"
	"github.com/longform-ai/longform/internal/logging"
)

const methodologySystemPrompt = `You are a methodology writer producing one section of a larger document.
Describe procedures, materials, and design choices precisely enough that a
reader could reproduce the work. Use numbered steps for procedures and state
assumptions explicitly.`

// MethodologyAgent writes methods sections with an emphasis on
// reproducibility.
type MethodologyAgent struct {
	BaseAgent
}

// NewMethodology creates the methodology agent.
func NewMethodology(backend core.TextBackend, cfg Config, logger *logging.Logger) *MethodologyAgent {
	return &MethodologyAgent{BaseAgent: newBase(core.AgentMethodology, backend, cfg, logger)}
}

// GenerateSection implements core.Agent.
func (a *MethodologyAgent) GenerateSection(ctx context.Context, ec *core.ExecutionContext) (*core.SectionOutput, error) {
	return a.generate(ctx, ec, methodologySystemPrompt, []string{
		"State the rationale for each methodological choice in one sentence.",
	})
}
