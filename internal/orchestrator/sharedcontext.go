package orchestrator

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/longform-ai/longform/internal/core"
)

// SharedContext is the append-mostly state summarizing completed sections.
// It is exclusively owned and mutated by the supervising goroutine; workers
// only ever receive snapshots taken between waves, so no locking is needed.
type SharedContext struct {
	values    map[string]string
	citations []core.Citation
	elements  []*core.DocumentElement
}

// NewSharedContext creates an empty shared context.
func NewSharedContext() *SharedContext {
	return &SharedContext{values: make(map[string]string)}
}

// RestoreSharedContext rebuilds a shared context from checkpointed values.
func RestoreSharedContext(values map[string]string) *SharedContext {
	sc := NewSharedContext()
	for k, v := range values {
		sc.values[k] = v
	}
	return sc
}

// MergeSection folds a successful section output into the context under
// well-defined keys. Called by the supervisor only after a wave has fully
// drained, never mid-wave.
func (sc *SharedContext) MergeSection(out *core.SectionOutput) {
	if out == nil || !out.Success {
		return
	}

	summary := out.Summary
	if summary == "" {
		summary = truncate(out.Content, 400)
	}
	sc.values[fmt.Sprintf("%s_summary", out.AgentKind)] = summary
	sc.values[fmt.Sprintf("%s_word_count", out.SectionID)] = fmt.Sprintf("%d", out.WordCount)

	if len(out.Citations) > 0 {
		sc.citations = append(sc.citations, out.Citations...)
		keys := make([]string, 0, len(sc.citations))
		for _, c := range sc.citations {
			keys = append(keys, c.Text)
		}
		sc.values["all_citations"] = strings.Join(keys, "; ")
	}

	if len(out.Elements) > 0 {
		sc.elements = append(sc.elements, out.Elements...)
		titles := make([]string, 0, len(sc.elements))
		for _, e := range sc.elements {
			titles = append(titles, fmt.Sprintf("%s: %s", e.Type.CaptionLabel(), e.Title))
		}
		sc.values["all_elements"] = strings.Join(titles, "; ")
	}
}

// Snapshot returns a deep copy of the context values. Workers read the
// snapshot only; mutations never flow back.
func (sc *SharedContext) Snapshot() map[string]string {
	snap := make(map[string]string, len(sc.values))
	for k, v := range sc.values {
		snap[k] = v
	}
	return snap
}

// Citations returns the accumulated citations in merge order.
func (sc *SharedContext) Citations() []core.Citation {
	return append([]core.Citation(nil), sc.citations...)
}

// Keys returns the context keys in sorted order.
func (sc *SharedContext) Keys() []string {
	keys := make([]string, 0, len(sc.values))
	for k := range sc.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns a context value.
func (sc *SharedContext) Get(key string) (string, bool) {
	v, ok := sc.values[key]
	return v, ok
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Back off to a rune boundary so the cut never splits a multi-byte rune.
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
