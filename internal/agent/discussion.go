package agent

import (
	"context"

	"github.com/longform-ai/longform/internal/core"
	"github.com/longform-ai/longform/internal/logging"
)

const discussionSystemPrompt = `You are a discussion writer producing one section of a larger document.
Interpret the findings summarized in the provided context, connect them back to
the document's topic, and acknowledge limitations honestly. Do not introduce
new results.`

// DiscussionAgent interprets earlier sections' findings. It leans on the
// shared-context summaries more than any other kind, so its prompt asks the
// model to tie the section back to them explicitly.
type DiscussionAgent struct {
	BaseAgent
}

// NewDiscussion creates the discussion agent.
func NewDiscussion(backend core.TextBackend, cfg Config, logger *logging.Logger) *DiscussionAgent {
	return &DiscussionAgent{BaseAgent: newBase(core.AgentDiscussion, backend, cfg, logger)}
}

// GenerateSection implements core.Agent.
func (a *DiscussionAgent) GenerateSection(ctx context.Context, ec *core.ExecutionContext) (*core.SectionOutput, error) {
	extras := []string{
		"Reference the context summaries above where they support or contradict each other.",
		"Close with a short limitations paragraph.",
	}
	return a.generate(ctx, ec, discussionSystemPrompt, extras)
}
