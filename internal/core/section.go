package core

import "time"

// Citation is a single reference returned by a section agent.
type Citation struct {
	Key     string `json:"key"`
	Text    string `json:"text"`
	Source  string `json:"source,omitempty"`
	Year    int    `json:"year,omitempty"`
	Section string `json:"section,omitempty"`
}

// ExecutionContext is the per-invocation value object handed to an agent.
// SharedSnapshot is a copy taken before the section's wave starts, never a
// live reference; the context is immutable once handed to the agent.
type ExecutionContext struct {
	Section        *SectionPlan
	Plan           *DocumentPlan
	SharedSnapshot map[string]string
	WorkDir        string
	ToolsAllowed   []string
}

// SharedValue returns a snapshot value by key.
func (ec *ExecutionContext) SharedValue(key string) (string, bool) {
	v, ok := ec.SharedSnapshot[key]
	return v, ok
}

// SectionOutput is produced exactly once per section per attempt.
// A retry produces a new SectionOutput.
type SectionOutput struct {
	SectionID SectionID          `json:"section_id"`
	Content   string             `json:"content"`
	WordCount int                `json:"word_count"`
	Elements  []*DocumentElement `json:"elements,omitempty"`
	Files     []string           `json:"files,omitempty"`
	Citations []Citation         `json:"citations,omitempty"`
	Summary   string             `json:"summary,omitempty"`
	Success   bool               `json:"success"`
	Error     string             `json:"error,omitempty"`
	Duration  time.Duration      `json:"duration"`
	AgentKind AgentKind          `json:"agent_kind"`
}

// FailedOutput creates a SectionOutput recording a failure.
func FailedOutput(id SectionID, kind AgentKind, err error, dur time.Duration) *SectionOutput {
	return &SectionOutput{
		SectionID: id,
		Success:   false,
		Error:     err.Error(),
		Duration:  dur,
		AgentKind: kind,
	}
}
