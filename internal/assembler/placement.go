package assembler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/longform-ai/longform/internal/core"
)

// resolvePlacement chooses where an element goes within its section.
// NEAR_REFERENCE wins when any textual reference exists, END_OF_SECTION
// otherwise; an explicit placement hint on the element overrides both.
// An element whose hint asks for a reference that does not exist falls
// back to end-of-section rather than failing assembly.
func resolvePlacement(elem *core.DocumentElement, refs []core.TextReference, paras []Paragraph) *core.PlacedElement {
	placed := &core.PlacedElement{
		Element:    elem,
		SectionID:  elem.SectionID,
		References: refs,
	}

	wantNear := len(refs) > 0
	switch elem.PlacementHint {
	case core.PlacementNearReference:
		wantNear = len(refs) > 0
	case core.PlacementEndOfSection:
		wantNear = false
	}

	if wantNear {
		// Earliest reference by character offset decides the host paragraph.
		para := paras[refs[0].Paragraph]
		placed.Strategy = core.StrategyNearReference
		placed.AfterParagraph = para.Index
		placed.Offset = para.End
		return placed
	}

	placed.Strategy = core.StrategyEndOfSection
	if len(paras) > 0 {
		last := paras[len(paras)-1]
		placed.AfterParagraph = last.Index
		placed.Offset = last.End
	}
	return placed
}

// sectionLayout pairs a section's parsed paragraphs with the elements
// placed in it, in the order the sections will appear in the document.
type sectionLayout struct {
	pos        int // document-order position of the section
	sectionID  core.SectionID
	paragraphs []Paragraph
	placements []*core.PlacedElement
}

// assignCaptionNumbers numbers placed elements per type in final placement
// order: sections in document order, then insertion offset within the
// section, then ascending element ID when offsets tie. Counters for
// figures, tables, and equations are independent and start at 1.
func assignCaptionNumbers(layouts []*sectionLayout) []*core.PlacedElement {
	var all []*core.PlacedElement
	order := make(map[*core.PlacedElement]int, len(layouts))
	for _, l := range layouts {
		for _, p := range l.placements {
			order[p] = l.pos
			all = append(all, p)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if order[all[i]] != order[all[j]] {
			return order[all[i]] < order[all[j]]
		}
		if all[i].Offset != all[j].Offset {
			return all[i].Offset < all[j].Offset
		}
		return all[i].Element.ID < all[j].Element.ID
	})

	counters := make(map[core.ElementType]int)
	for _, p := range all {
		counters[p.Element.Type]++
		p.CaptionNumber = counters[p.Element.Type]
	}
	return all
}

// renderElementBlock formats one element as a captioned block. The style
// guide's caption_position chooses above or below; below is the default.
func renderElementBlock(p *core.PlacedElement, style map[string]string) string {
	caption := fmt.Sprintf("*%s %d: %s*", p.Element.Type.CaptionLabel(), p.CaptionNumber, p.Element.Title)
	body := strings.TrimSpace(p.Element.Content)
	if body == "" {
		body = fmt.Sprintf("[%s placeholder]", strings.ToLower(p.Element.Type.CaptionLabel()))
	}

	if style["caption_position"] == "above" {
		return caption + "\n\n" + body
	}
	return body + "\n\n" + caption
}

// spliceSection rebuilds a section's text with element blocks inserted
// after their host paragraphs. Paragraph order is preserved; multiple
// blocks after the same paragraph follow offset then element-ID order.
func spliceSection(layout *sectionLayout, style map[string]string) string {
	byPara := make(map[int][]*core.PlacedElement)
	for _, p := range layout.placements {
		byPara[p.AfterParagraph] = append(byPara[p.AfterParagraph], p)
	}
	for _, group := range byPara {
		sort.Slice(group, func(i, j int) bool {
			if group[i].Offset != group[j].Offset {
				return group[i].Offset < group[j].Offset
			}
			return group[i].Element.ID < group[j].Element.ID
		})
	}

	var blocks []string
	for _, para := range layout.paragraphs {
		blocks = append(blocks, para.Text)
		for _, p := range byPara[para.Index] {
			blocks = append(blocks, renderElementBlock(p, style))
		}
	}
	// Elements of a section that produced no paragraphs at all.
	if len(layout.paragraphs) == 0 {
		for _, p := range layout.placements {
			blocks = append(blocks, renderElementBlock(p, style))
		}
	}
	return strings.Join(blocks, "\n\n")
}
