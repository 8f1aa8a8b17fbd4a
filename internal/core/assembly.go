package core

// PlacementStrategy is the assembler's resolved choice for one element.
type PlacementStrategy string

const (
	// StrategyNearReference inserts the element after the paragraph that
	// contains the earliest textual reference to it.
	StrategyNearReference PlacementStrategy = "near_reference"
	// StrategyEndOfSection inserts the element after the section's final
	// paragraph. This is also the fallback when no reference matches.
	StrategyEndOfSection PlacementStrategy = "end_of_section"
)

// TextReference is one textual mention of an element found in section prose.
// It is derived data, recomputed on every assembly run and never persisted.
type TextReference struct {
	ElementID string    `json:"element_id"`
	SectionID SectionID `json:"section_id"`
	Phrase    string    `json:"phrase"`
	Offset    int       `json:"offset"` // character offset within the section content
	Paragraph int       `json:"paragraph"`
	Sentence  int       `json:"sentence"`
}

// PlacedElement records where the assembler put one element and why.
// Caption numbers follow document order of final placement, not plan order.
type PlacedElement struct {
	Element        *DocumentElement  `json:"element"`
	SectionID      SectionID         `json:"section_id"`
	Strategy       PlacementStrategy `json:"strategy"`
	AfterParagraph int               `json:"after_paragraph"`
	Offset         int               `json:"offset"` // resolved insertion offset within the section
	CaptionNumber  int               `json:"caption_number"`
	References     []TextReference   `json:"references,omitempty"`
}

// AssemblyReport enumerates every element's placement outcome so partial
// failures stay auditable alongside the execution log.
type AssemblyReport struct {
	Placed   []*PlacedElement `json:"placed"`
	Unplaced []string         `json:"unplaced,omitempty"` // element IDs whose section produced no text
}
