package planner

import (
	"fmt"
	"strings"

	"github.com/longform-ai/longform/internal/core"
	"github.com/longform-ai/longform/internal/logging"
)

// AcademicLevel scales citation targets.
type AcademicLevel string

const (
	LevelUndergraduate AcademicLevel = "undergraduate"
	LevelGraduate      AcademicLevel = "graduate"
	LevelDoctoral      AcademicLevel = "doctoral"
	LevelProfessional  AcademicLevel = "professional"
)

// PlanRequest carries the user's requirements for a document.
type PlanRequest struct {
	Topic          string
	Title          string
	TotalWords     int
	DocumentType   core.DocumentType
	IncludeFigures bool
	IncludeTables  bool
	Audience       string
	AcademicLevel  AcademicLevel
	StyleGuide     map[string]string
}

// Planner turns a requirement set into a DocumentPlan. Pure transformation,
// no concurrency.
type Planner struct {
	templates map[core.DocumentType]*Template
	logger    *logging.Logger
}

// New creates a planner with the embedded structural templates.
func New(logger *logging.Logger) (*Planner, error) {
	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Planner{templates: templates, logger: logger}, nil
}

// CreatePlan builds a DocumentPlan from the request. The sum of section word
// targets always reconciles exactly to the requested total (remainder goes
// to the first body section), except when the total cannot cover one word
// per section, in which case every section receives a 1-word floor and the
// quality report flags the plan downstream.
func (p *Planner) CreatePlan(req PlanRequest) (*core.DocumentPlan, error) {
	if req.TotalWords <= 0 {
		return nil, core.ErrPlanning(core.CodeInvalidWordCount, "total word count must be positive")
	}
	if strings.TrimSpace(req.Topic) == "" {
		return nil, core.ErrPlanning("TOPIC_REQUIRED", "topic cannot be empty")
	}

	tpl, err := p.template(req)
	if err != nil {
		return nil, err
	}

	sections := p.buildSections(tpl, req)
	p.allocateWords(sections, tpl, req.TotalWords)
	elements := p.allocateMedia(sections, tpl, req)

	title := req.Title
	if title == "" {
		title = req.Topic
	}

	plan := &core.DocumentPlan{
		Title:        title,
		Topic:        req.Topic,
		DocumentType: req.DocumentType,
		TotalWords:   req.TotalWords,
		Sections:     sections,
		Elements:     elements,
		StyleGuide:   p.styleGuide(req),
		CitationPolicy: core.CitationPolicy{
			Style:       tpl.CitationStyle,
			TargetCount: citationTarget(req.TotalWords, tpl.CitationDensity, req.AcademicLevel),
		},
		QualityPolicy: core.QualityPolicy{
			MinWordAttainment: 0.8,
			RequireCitations:  tpl.CitationDensity >= 1.0,
		},
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}

	p.logger.Info("plan created",
		"document_type", plan.DocumentType,
		"sections", len(plan.Sections),
		"elements", len(plan.Elements),
		"total_words", plan.TotalWords,
		"citation_target", plan.CitationPolicy.TargetCount,
	)

	return plan, nil
}

func (p *Planner) template(req PlanRequest) (*Template, error) {
	if req.DocumentType == core.DocTypeFreeForm || req.DocumentType == "" {
		return generativeTemplate(req.Topic, req.TotalWords), nil
	}
	tpl, ok := p.templates[req.DocumentType]
	if !ok {
		return nil, core.ErrPlanning(core.CodeUnknownDocType,
			fmt.Sprintf("no template for document type %q", req.DocumentType))
	}
	return tpl, nil
}

func (p *Planner) buildSections(tpl *Template, req PlanRequest) []*core.SectionPlan {
	sections := make([]*core.SectionPlan, 0, len(tpl.Sections))
	for _, ts := range tpl.Sections {
		deps := make([]core.SectionID, 0, len(ts.DependsOn))
		for _, d := range ts.DependsOn {
			deps = append(deps, core.SectionID(d))
		}

		guidelines := map[string]string{}
		if req.Audience != "" {
			guidelines["audience"] = req.Audience
		}
		if req.AcademicLevel != "" {
			guidelines["academic_level"] = string(req.AcademicLevel)
		}

		sections = append(sections, &core.SectionPlan{
			ID:              core.SectionID(ts.ID),
			Title:           ts.Title,
			KeyTopics:       append([]string(nil), ts.KeyTopics...),
			StyleGuidelines: guidelines,
			AssignedAgent:   agentKind(ts.Agent),
			DependsOn:       deps,
		})
	}
	return sections
}

// allocateWords distributes the total across sections by template weight.
// Each section gets at least 1 word; the rounding remainder is added to the
// first body section so the totals reconcile exactly.
func (p *Planner) allocateWords(sections []*core.SectionPlan, tpl *Template, total int) {
	sum := 0
	for i, s := range sections {
		words := int(float64(total) * tpl.Sections[i].Weight)
		if words < 1 {
			words = 1
		}
		s.TargetWordCount = words
		sum += words
	}

	remainder := total - sum
	if remainder == 0 {
		return
	}

	target := firstBodyIndex(tpl)
	adjusted := sections[target].TargetWordCount + remainder
	if adjusted < 1 {
		// Degenerate request: total cannot cover the 1-word floors.
		return
	}
	sections[target].TargetWordCount = adjusted
}

func firstBodyIndex(tpl *Template) int {
	for i, ts := range tpl.Sections {
		if ts.Role == "body" {
			return i
		}
	}
	return 0
}

// allocateMedia assigns figure/table elements to a deterministic subset of
// body sections, skipping the first and last body section.
func (p *Planner) allocateMedia(sections []*core.SectionPlan, tpl *Template, req PlanRequest) []*core.DocumentElement {
	if !req.IncludeFigures && !req.IncludeTables {
		return nil
	}

	var eligible []*core.SectionPlan
	for i, ts := range tpl.Sections {
		if ts.Role == "body" {
			eligible = append(eligible, sections[i])
		}
	}
	if len(eligible) <= 2 {
		return nil
	}
	eligible = eligible[1 : len(eligible)-1]

	var elements []*core.DocumentElement
	for i, sec := range eligible {
		wantTable := req.IncludeTables && (!req.IncludeFigures || i%2 == 0)
		wantFigure := req.IncludeFigures && !wantTable
		switch {
		case wantTable:
			elements = append(elements, &core.DocumentElement{
				ID:        fmt.Sprintf("tbl-%s", sec.ID),
				Type:      core.ElementTable,
				Title:     fmt.Sprintf("Summary of %s", strings.ToLower(sec.Title)),
				SectionID: sec.ID,
			})
		case wantFigure:
			elements = append(elements, &core.DocumentElement{
				ID:        fmt.Sprintf("fig-%s", sec.ID),
				Type:      core.ElementFigure,
				Title:     fmt.Sprintf("Overview of %s", strings.ToLower(sec.Title)),
				SectionID: sec.ID,
			})
		}
	}
	return elements
}

func (p *Planner) styleGuide(req PlanRequest) map[string]string {
	guide := map[string]string{
		"caption_position": "below",
		"heading_style":    "atx",
	}
	for k, v := range req.StyleGuide {
		guide[k] = v
	}
	return guide
}

// citationTarget computes the citation goal from per-type density scaled by
// academic level.
func citationTarget(totalWords int, density float64, level AcademicLevel) int {
	mult := 1.0
	switch level {
	case LevelUndergraduate:
		mult = 0.8
	case LevelDoctoral:
		mult = 1.3
	}
	target := float64(totalWords) / 1000.0 * density * mult
	return int(target + 0.5)
}
