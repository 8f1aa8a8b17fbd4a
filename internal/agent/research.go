package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/longform-ai/longform/internal/core"
	"github.com/longform-ai/longform/internal/logging"
)

const researchSystemPrompt = `You are a research-synthesis writer producing one section of a larger document.
Synthesize prior work into coherent prose. Every claim drawn from the literature
carries an inline citation in [Author, Year] form. When you compare three or more
approaches, present the comparison as a markdown table.`

// citationPattern matches inline [Author, Year] citations.
var citationPattern = regexp.MustCompile(`\[([A-Z][^\[\]]*?,\s*(\d{4}))\]`)

// ResearchAgent synthesizes literature. Beyond prose it returns the inline
// citations it produced and promotes any markdown comparison table in its
// output to a document element so the assembler can caption and place it.
type ResearchAgent struct {
	BaseAgent
}

// NewResearch creates the research-synthesis agent.
func NewResearch(backend core.TextBackend, cfg Config, logger *logging.Logger) *ResearchAgent {
	return &ResearchAgent{BaseAgent: newBase(core.AgentResearch, backend, cfg, logger)}
}

// GenerateSection implements core.Agent.
func (a *ResearchAgent) GenerateSection(ctx context.Context, ec *core.ExecutionContext) (*core.SectionOutput, error) {
	extras := []string{
		fmt.Sprintf("Include inline citations in [Author, Year] form. Aim for roughly %d citations across the document.",
			ec.Plan.CitationPolicy.TargetCount),
	}
	if prior, ok := ec.SharedValue("all_citations"); ok && prior != "" {
		extras = append(extras, "Citations already used elsewhere, reuse where relevant: "+prior)
	}

	out, err := a.generate(ctx, ec, researchSystemPrompt, extras)
	if err != nil {
		return nil, err
	}

	out.Citations = extractCitations(out.Content, ec.Section.ID)

	if table, cleaned := extractMarkdownTable(out.Content); table != "" {
		out.Content = cleaned
		out.WordCount = len(strings.Fields(cleaned))
		out.Elements = append(out.Elements, &core.DocumentElement{
			ID:        "tbl-" + string(ec.Section.ID),
			Type:      core.ElementTable,
			Title:     "Comparison of approaches",
			Content:   table,
			SectionID: ec.Section.ID,
		})
	}
	return out, nil
}

// extractCitations pulls distinct [Author, Year] citations from the text,
// preserving first-occurrence order.
func extractCitations(content string, section core.SectionID) []core.Citation {
	var citations []core.Citation
	seen := make(map[string]bool)
	for _, m := range citationPattern.FindAllStringSubmatch(content, -1) {
		text := strings.TrimSpace(m[1])
		if seen[text] {
			continue
		}
		seen[text] = true
		citations = append(citations, core.Citation{
			Key:     citationKey(text),
			Text:    text,
			Section: string(section),
		})
	}
	return citations
}

// citationKey derives a stable key like "smith2021" from "Smith, 2021".
func citationKey(text string) string {
	parts := strings.SplitN(text, ",", 2)
	author := strings.ToLower(strings.Fields(parts[0])[0])
	year := ""
	if len(parts) == 2 {
		year = strings.TrimSpace(parts[1])
	}
	return author + year
}

// extractMarkdownTable finds the first markdown table block (two or more
// consecutive pipe-prefixed lines) and returns it with the remaining
// content. Returns an empty table when none exists.
func extractMarkdownTable(content string) (table, cleaned string) {
	lines := strings.Split(content, "\n")
	start, end := -1, -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "|") {
			if start == -1 {
				start = i
			}
			end = i
			continue
		}
		if start != -1 {
			break
		}
	}
	if start == -1 || end-start < 1 {
		return "", content
	}

	table = strings.Join(lines[start:end+1], "\n")
	rest := append(append([]string{}, lines[:start]...), lines[end+1:]...)
	cleaned = strings.TrimSpace(strings.Join(rest, "\n"))
	return table, cleaned
}
