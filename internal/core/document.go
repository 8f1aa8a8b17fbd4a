package core

import (
	"fmt"
)

// SectionID uniquely identifies a section within a document plan.
type SectionID string

// DocumentType selects the structural template used by the planner.
type DocumentType string

const (
	DocTypeResearchPaper DocumentType = "research_paper"
	DocTypeThesis        DocumentType = "thesis"
	DocTypeReport        DocumentType = "report"
	DocTypeFreeForm      DocumentType = "free_form"
)

// ElementType classifies non-text document elements.
type ElementType string

const (
	ElementFigure   ElementType = "figure"
	ElementTable    ElementType = "table"
	ElementEquation ElementType = "equation"
)

// CaptionLabel returns the caption prefix for the element type (e.g. "Table").
func (t ElementType) CaptionLabel() string {
	switch t {
	case ElementFigure:
		return "Figure"
	case ElementTable:
		return "Table"
	case ElementEquation:
		return "Equation"
	default:
		return "Element"
	}
}

// PlacementHint overrides the assembler's default placement strategy.
type PlacementHint string

const (
	PlacementAuto          PlacementHint = ""
	PlacementNearReference PlacementHint = "near_reference"
	PlacementEndOfSection  PlacementHint = "end_of_section"
)

// DocumentPlan is the planner's output: an ordered set of sections with
// word-count and media allocations. It is created once and read-only
// thereafter.
type DocumentPlan struct {
	Title          string             `json:"title"`
	Topic          string             `json:"topic"`
	DocumentType   DocumentType       `json:"document_type"`
	TotalWords     int                `json:"total_words"`
	Sections       []*SectionPlan     `json:"sections"`
	Elements       []*DocumentElement `json:"elements"`
	StyleGuide     map[string]string  `json:"style_guide,omitempty"`
	CitationPolicy CitationPolicy     `json:"citation_policy"`
	QualityPolicy  QualityPolicy      `json:"quality_policy"`
}

// CitationPolicy holds citation targets derived from document type and
// academic level.
type CitationPolicy struct {
	Style       string `json:"style"`
	TargetCount int    `json:"target_count"`
}

// QualityPolicy holds quality targets checked after generation.
type QualityPolicy struct {
	MinWordAttainment float64 `json:"min_word_attainment"` // fraction of target words, e.g. 0.8
	RequireCitations  bool    `json:"require_citations"`
}

// SectionPlan describes one section to generate.
type SectionPlan struct {
	ID              SectionID         `json:"id"`
	Title           string            `json:"title"`
	TargetWordCount int               `json:"target_word_count"`
	KeyTopics       []string          `json:"key_topics,omitempty"`
	StyleGuidelines map[string]string `json:"style_guidelines,omitempty"`
	AssignedAgent   AgentKind         `json:"assigned_agent"`
	DependsOn       []SectionID       `json:"depends_on,omitempty"`
	ToolsAllowed    []string          `json:"tools_allowed,omitempty"`
}

// DocumentElement is a non-text element (figure, table, equation) owned by
// a section. Content is an opaque payload rendered by the assembler.
type DocumentElement struct {
	ID            string        `json:"id"`
	Type          ElementType   `json:"type"`
	Title         string        `json:"title"`
	Content       string        `json:"content"`
	SectionID     SectionID     `json:"section_id"`
	PlacementHint PlacementHint `json:"placement_hint,omitempty"`
}

// Section returns the section plan with the given ID, or nil.
func (p *DocumentPlan) Section(id SectionID) *SectionPlan {
	for _, s := range p.Sections {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// ElementsForSection returns the plan elements belonging to a section,
// in plan order.
func (p *DocumentPlan) ElementsForSection(id SectionID) []*DocumentElement {
	var out []*DocumentElement
	for _, e := range p.Elements {
		if e.SectionID == id {
			out = append(out, e)
		}
	}
	return out
}

// Validate checks plan invariants. Every DependsOn entry must reference a
// section present in the plan; the orchestrator fails closed on violation.
func (p *DocumentPlan) Validate() error {
	if len(p.Sections) == 0 {
		return ErrPlanning(CodeEmptyPlan, "plan contains no sections")
	}
	if p.TotalWords <= 0 {
		return ErrPlanning(CodeInvalidWordCount, "total word count must be positive")
	}

	ids := make(map[SectionID]bool, len(p.Sections))
	for _, s := range p.Sections {
		if s.ID == "" {
			return ErrPlanning("SECTION_ID_REQUIRED", "section ID cannot be empty")
		}
		if ids[s.ID] {
			return ErrPlanning("DUPLICATE_SECTION_ID", fmt.Sprintf("duplicate section ID %s", s.ID))
		}
		ids[s.ID] = true
	}

	sum := 0
	for _, s := range p.Sections {
		if s.TargetWordCount <= 0 {
			return ErrPlanning(CodeInvalidWordCount,
				fmt.Sprintf("section %s has non-positive word target", s.ID))
		}
		sum += s.TargetWordCount
		for _, dep := range s.DependsOn {
			if dep == s.ID {
				return ErrPlanning(CodeUnknownDependency,
					fmt.Sprintf("section %s depends on itself", s.ID))
			}
			if !ids[dep] {
				return ErrPlanning(CodeUnknownDependency,
					fmt.Sprintf("section %s depends on unknown section %s", s.ID, dep))
			}
		}
	}
	// When the requested total cannot cover one word per section the planner
	// emits 1-word floors; that plan is caught by the quality report, not here.
	if p.TotalWords >= len(p.Sections) && sum != p.TotalWords {
		return ErrPlanning(CodeInvalidWordCount,
			fmt.Sprintf("section word targets sum to %d, want %d", sum, p.TotalWords))
	}

	for _, e := range p.Elements {
		if !ids[e.SectionID] {
			return ErrPlanning(CodeUnknownDependency,
				fmt.Sprintf("element %s belongs to unknown section %s", e.ID, e.SectionID))
		}
	}

	return nil
}
