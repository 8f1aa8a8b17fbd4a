// Package assembler turns finished section outputs into one coherent
// document: it places figures, tables, and equations next to the text that
// references them, numbers captions in reading order, builds a table of
// contents, and rewrites generic element mentions to their assigned
// numbers.
package assembler

import (
	"strings"

	"github.com/longform-ai/longform/internal/core"
	"github.com/longform-ai/longform/internal/logging"
)

// Assembler implements reference-aware element placement over a set of
// section outputs. It is stateless across calls; every Assemble run
// recomputes references and placements from scratch.
type Assembler struct {
	logger    *logging.Logger
	optimizer *Optimizer
}

// New creates an assembler.
func New(logger *logging.Logger) *Assembler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Assembler{logger: logger}
}

// WithOptimizer enables the placement optimizer pass.
func (a *Assembler) WithOptimizer(o *Optimizer) *Assembler {
	a.optimizer = o
	return a
}

// Assemble produces the final document string from section outputs, the
// plan's element list, and the style guide. Elements generated by agents at
// run time are merged with planned ones; on an ID collision the generated
// element wins because it carries real content. Identical inputs always
// produce byte-identical output.
func (a *Assembler) Assemble(outputs []*core.SectionOutput, elements []*core.DocumentElement, style map[string]string) (string, *core.AssemblyReport, error) {
	report := &core.AssemblyReport{}

	var sections []*core.SectionOutput
	for _, out := range outputs {
		if out != nil && out.Success {
			sections = append(sections, out)
		}
	}
	if len(sections) == 0 {
		return "", report, core.ErrAssembly("NO_SECTION_OUTPUTS", "no successful section outputs to assemble")
	}

	elems := mergeElements(elements, sections)

	layouts := make([]*sectionLayout, 0, len(sections))
	bySection := make(map[core.SectionID]*sectionLayout, len(sections))
	for i, out := range sections {
		l := &sectionLayout{
			pos:        i,
			sectionID:  out.SectionID,
			paragraphs: parseParagraphs(ensureHeading(out)),
		}
		layouts = append(layouts, l)
		bySection[out.SectionID] = l
	}

	for _, elem := range elems {
		l, ok := bySection[elem.SectionID]
		if !ok {
			// The owning section failed or was never generated; there is
			// no text to place into.
			report.Unplaced = append(report.Unplaced, elem.ID)
			a.logger.Warn("element has no host section, skipping",
				"element_id", elem.ID,
				"section_id", elem.SectionID,
			)
			continue
		}
		refs := findReferences(elem, l.paragraphs)
		l.placements = append(l.placements, resolvePlacement(elem, refs, l.paragraphs))
	}

	if a.optimizer != nil {
		for _, l := range layouts {
			a.optimizer.optimizeSection(l)
		}
	}

	report.Placed = assignCaptionNumbers(layouts)

	parts := make([]string, 0, len(layouts))
	for _, l := range layouts {
		// Rewrite the prose before splicing so a generic phrase inside a
		// rendered element's own content is never touched.
		for i := range l.paragraphs {
			l.paragraphs[i].Text = rewriteGenericReferences(l.paragraphs[i].Text, l.placements)
		}
		parts = append(parts, spliceSection(l, style))
	}
	body := strings.Join(parts, "\n\n")

	doc := body
	if toc := buildTOC(body); toc != "" {
		doc = toc + "\n\n" + body
	}
	if !strings.HasSuffix(doc, "\n") {
		doc += "\n"
	}

	a.logger.Info("assembly complete",
		"sections", len(sections),
		"elements_placed", len(report.Placed),
		"elements_unplaced", len(report.Unplaced),
	)
	return doc, report, nil
}

// mergeElements combines planned elements with elements the agents produced
// during generation, deduplicated by ID. Order is planned elements first,
// then generated ones in section output order, so merging is deterministic.
func mergeElements(planned []*core.DocumentElement, outputs []*core.SectionOutput) []*core.DocumentElement {
	seen := make(map[string]int, len(planned))
	var merged []*core.DocumentElement
	for _, e := range planned {
		seen[e.ID] = len(merged)
		merged = append(merged, e)
	}
	for _, out := range outputs {
		for _, e := range out.Elements {
			if e.SectionID == "" {
				e.SectionID = out.SectionID
			}
			if idx, ok := seen[e.ID]; ok {
				merged[idx] = e
				continue
			}
			seen[e.ID] = len(merged)
			merged = append(merged, e)
		}
	}
	return merged
}

// ensureHeading prepends a section heading when the agent's content does
// not start with one, so the table of contents always finds every section.
func ensureHeading(out *core.SectionOutput) string {
	content := strings.TrimSpace(out.Content)
	if strings.HasPrefix(content, "#") {
		return content
	}
	return "## " + titleize(string(out.SectionID)) + "\n\n" + content
}

// titleize converts a section ID like "lit-review" to "Lit Review".
func titleize(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
