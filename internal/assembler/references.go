package assembler

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/longform-ai/longform/internal/core"
)

// referencePatterns maps an element type to the phrases that count as a
// textual reference to an element of that type. Numbered forms ("Table 2")
// and generic forms ("the following table") both match; generic forms are
// rewritten to numbered ones after caption assignment.
var referencePatterns = map[core.ElementType][]*regexp.Regexp{
	core.ElementTable: {
		regexp.MustCompile(`(?i)\btable\s+\d+\b`),
		regexp.MustCompile(`(?i)\bas shown in (?:the )?table\b`),
		regexp.MustCompile(`(?i)\bthe (?:following|above|below) table\b`),
		regexp.MustCompile(`(?i)\bthe table (?:above|below)\b`),
		regexp.MustCompile(`(?i)\bsee (?:the )?table\b`),
	},
	core.ElementFigure: {
		regexp.MustCompile(`(?i)\bfigure\s+\d+\b`),
		regexp.MustCompile(`(?i)\bas shown in (?:the )?figure\b`),
		regexp.MustCompile(`(?i)\bthe (?:following|above|below) figure\b`),
		regexp.MustCompile(`(?i)\bthe figure (?:above|below)\b`),
		regexp.MustCompile(`(?i)\bsee (?:the )?figure\b`),
		regexp.MustCompile(`(?i)\billustrated (?:in|by) the figure\b`),
	},
	core.ElementEquation: {
		regexp.MustCompile(`(?i)\bequation\s+\d+\b`),
		regexp.MustCompile(`(?i)\bthe (?:following|above|below) equation\b`),
		regexp.MustCompile(`(?i)\bthe equation (?:above|below)\b`),
		regexp.MustCompile(`(?i)\bsee (?:the )?equation\b`),
	},
}

// findReferences scans a section's sentences for mentions of the element
// and returns them ordered by character offset. Matches are tagged with the
// owning paragraph and sentence so placement can target the right spot.
func findReferences(elem *core.DocumentElement, paras []Paragraph) []core.TextReference {
	patterns := referencePatterns[elem.Type]
	if len(patterns) == 0 {
		return nil
	}

	var refs []core.TextReference
	for _, para := range paras {
		for _, sent := range para.Sentences {
			for _, pat := range patterns {
				for _, loc := range pat.FindAllStringIndex(sent.Text, -1) {
					refs = append(refs, core.TextReference{
						ElementID: elem.ID,
						SectionID: elem.SectionID,
						Phrase:    sent.Text[loc[0]:loc[1]],
						Offset:    sent.Start + loc[0],
						Paragraph: para.Index,
						Sentence:  sent.Index,
					})
				}
			}
		}
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].Offset < refs[j].Offset })
	return refs
}

// genericRewritePatterns are the positional phrases that get replaced with
// the caption number assigned at placement time ("the following table"
// becomes "Table 2"). Numbered mentions are left untouched.
var genericRewritePatterns = map[core.ElementType][]*regexp.Regexp{
	core.ElementTable: {
		regexp.MustCompile(`(?i)\bthe (?:following|above|below) table\b`),
		regexp.MustCompile(`(?i)\bthe table (?:above|below)\b`),
	},
	core.ElementFigure: {
		regexp.MustCompile(`(?i)\bthe (?:following|above|below) figure\b`),
		regexp.MustCompile(`(?i)\bthe figure (?:above|below)\b`),
	},
	core.ElementEquation: {
		regexp.MustCompile(`(?i)\bthe (?:following|above|below) equation\b`),
		regexp.MustCompile(`(?i)\bthe equation (?:above|below)\b`),
	},
}

// rewriteGenericReferences replaces still-generic element mentions in a
// section's text with the caption numbers assigned during placement. When a
// section holds several elements of one type, the generic phrase resolves
// to the lowest caption number of that type, which is the first one the
// reader encounters.
func rewriteGenericReferences(text string, placements []*core.PlacedElement) string {
	firstOfType := make(map[core.ElementType]*core.PlacedElement)
	for _, p := range placements {
		cur, ok := firstOfType[p.Element.Type]
		if !ok || p.CaptionNumber < cur.CaptionNumber {
			firstOfType[p.Element.Type] = p
		}
	}

	for typ, p := range firstOfType {
		label := typ.CaptionLabel()
		numbered := label + " " + strconv.Itoa(p.CaptionNumber)
		for _, pat := range genericRewritePatterns[typ] {
			text = pat.ReplaceAllString(text, numbered)
		}
	}
	return text
}
