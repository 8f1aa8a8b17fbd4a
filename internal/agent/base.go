// Package agent implements the section-generation specializations. All
// variants share one prompt-building and backend-calling base and differ
// only in their system prompts and post-processing of the generated text.
package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/longform-ai/longform/internal/core"
	"github.com/longform-ai/longform/internal/logging"
)

// Config holds generation parameters shared by all agent kinds.
type Config struct {
	// Temperature is passed through to the backend.
	Temperature float64
	// MaxTokens caps one backend call. Zero derives a cap from the
	// section's target word count.
	MaxTokens int
	// Timeout bounds a single backend call.
	Timeout time.Duration
	// ScriptTimeout bounds sandboxed script execution for analysis agents.
	ScriptTimeout time.Duration
}

// DefaultConfig returns production generation parameters.
func DefaultConfig() Config {
	return Config{
		Temperature:   0.7,
		Timeout:       2 * time.Minute,
		ScriptTimeout: 30 * time.Second,
	}
}

// tokensPerWord oversizes the cap so the model is never cut off mid-section.
const tokensPerWord = 2

// BaseAgent carries the shared generation machinery. Concrete agents embed
// it and supply their specialization through the prompt.
type BaseAgent struct {
	kind    core.AgentKind
	backend core.TextBackend
	cfg     Config
	logger  *logging.Logger
}

func newBase(kind core.AgentKind, backend core.TextBackend, cfg Config, logger *logging.Logger) BaseAgent {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return BaseAgent{kind: kind, backend: backend, cfg: cfg, logger: logger.WithAgent(string(kind))}
}

// Kind returns the agent's specialization tag.
func (b *BaseAgent) Kind() core.AgentKind { return b.kind }

// generate runs one backend call for the section and wraps the text in a
// SectionOutput. Variant-specific instructions arrive through extras.
func (b *BaseAgent) generate(ctx context.Context, ec *core.ExecutionContext, system string, extras []string) (*core.SectionOutput, error) {
	start := time.Now()

	history := []core.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: buildUserPrompt(ec, extras)},
	}

	maxTokens := b.cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = ec.Section.TargetWordCount * tokensPerWord
	}

	callCtx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	res, err := b.backend.Generate(callCtx, history, b.cfg.Temperature, maxTokens)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return nil, core.ErrTimeout(
				fmt.Sprintf("backend call for section %s exceeded %s", ec.Section.ID, b.cfg.Timeout)).WithCause(err)
		}
		return nil, err
	}

	content := strings.TrimSpace(res.Text)
	if content == "" {
		return nil, core.ErrSection(core.CodeSectionFailed,
			fmt.Sprintf("backend returned empty content for section %s", ec.Section.ID))
	}

	out := &core.SectionOutput{
		SectionID: ec.Section.ID,
		Content:   content,
		WordCount: len(strings.Fields(content)),
		Summary:   summarize(content),
		Success:   true,
		Duration:  time.Since(start),
		AgentKind: b.kind,
	}

	b.logger.Debug("section generated",
		"section_id", ec.Section.ID,
		"word_count", out.WordCount,
		"tokens_used", res.TokensUsed,
		"finish_reason", res.FinishReason,
	)
	return out, nil
}

// buildUserPrompt assembles the section brief: identity, targets, topics,
// style, and the dependency context from the shared snapshot. Map-backed
// parts are emitted in sorted key order so prompts are reproducible.
func buildUserPrompt(ec *core.ExecutionContext, extras []string) string {
	sec := ec.Section
	var sb strings.Builder

	fmt.Fprintf(&sb, "Write the section %q for the document %q (topic: %s).\n",
		sec.Title, ec.Plan.Title, ec.Plan.Topic)
	fmt.Fprintf(&sb, "Target length: %d words.\n", sec.TargetWordCount)

	if len(sec.KeyTopics) > 0 {
		sb.WriteString("Cover these topics in order:\n")
		for _, topic := range sec.KeyTopics {
			fmt.Fprintf(&sb, "- %s\n", topic)
		}
	}

	if len(sec.StyleGuidelines) > 0 {
		sb.WriteString("Style guidelines:\n")
		for _, k := range sortedKeys(sec.StyleGuidelines) {
			fmt.Fprintf(&sb, "- %s: %s\n", k, sec.StyleGuidelines[k])
		}
	}

	if prior := snapshotContext(ec); prior != "" {
		sb.WriteString("Context from sections already written:\n")
		sb.WriteString(prior)
	}

	for _, extra := range extras {
		sb.WriteString(extra)
		if !strings.HasSuffix(extra, "\n") {
			sb.WriteByte('\n')
		}
	}

	sb.WriteString("Begin the section with a markdown heading.")
	return sb.String()
}

// snapshotContext renders the summary entries of the shared snapshot, in
// sorted key order.
func snapshotContext(ec *core.ExecutionContext) string {
	var sb strings.Builder
	for _, k := range sortedKeys(ec.SharedSnapshot) {
		if !strings.HasSuffix(k, "_summary") {
			continue
		}
		fmt.Fprintf(&sb, "- %s: %s\n", k, ec.SharedSnapshot[k])
	}
	return sb.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// summaryLimit bounds the shared-context summary so prompts for later
// sections stay small.
const summaryLimit = 400

// summarize takes the leading sentences of the content, skipping the
// heading line, up to the summary limit.
func summarize(content string) string {
	lines := strings.SplitN(content, "\n", 2)
	body := content
	if strings.HasPrefix(lines[0], "#") && len(lines) == 2 {
		body = lines[1]
	}
	body = strings.TrimSpace(body)
	if len(body) <= summaryLimit {
		return body
	}
	limit := summaryLimit
	// Back off to a rune boundary so the cut never splits a multi-byte rune.
	for limit > 0 && !utf8.RuneStart(body[limit]) {
		limit--
	}
	cut := body[:limit]
	if idx := strings.LastIndexByte(cut, '.'); idx > summaryLimit/2 {
		cut = cut[:idx+1]
	}
	return cut
}
