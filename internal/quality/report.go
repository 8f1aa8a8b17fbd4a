// Package quality checks a finished run against the plan's quality policy:
// word attainment per section and overall, citation targets, and degenerate
// plans whose word budget could not cover their sections.
package quality

import (
	"fmt"

	"github.com/longform-ai/longform/internal/core"
	"github.com/longform-ai/longform/internal/logging"
)

// SectionResult is the per-section quality outcome.
type SectionResult struct {
	SectionID  core.SectionID `json:"section_id"`
	TargetWord int            `json:"target_words"`
	ActualWord int            `json:"actual_words"`
	Attainment float64        `json:"attainment"`
	Generated  bool           `json:"generated"`
}

// Report is the quality evaluation of one run.
type Report struct {
	Sections          []SectionResult `json:"sections"`
	TotalTargetWords  int             `json:"total_target_words"`
	TotalActualWords  int             `json:"total_actual_words"`
	OverallAttainment float64         `json:"overall_attainment"`
	CitationCount     int             `json:"citation_count"`
	CitationTarget    int             `json:"citation_target"`
	DegeneratePlan    bool            `json:"degenerate_plan"`
	Failures          []string        `json:"failures,omitempty"`
	Passed            bool            `json:"passed"`
}

// Checker evaluates runs.
type Checker struct {
	logger *logging.Logger
}

// NewChecker creates a checker.
func NewChecker(logger *logging.Logger) *Checker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Checker{logger: logger}
}

// Evaluate compares the run's outputs with the plan's targets. A plan whose
// total word budget is below its section count was floored to 1-word
// targets by the planner; that is reported here as a degenerate plan
// instead of crashing anything upstream.
func (c *Checker) Evaluate(plan *core.DocumentPlan, outputs []*core.SectionOutput) *Report {
	rep := &Report{
		DegeneratePlan: plan.TotalWords < len(plan.Sections),
	}

	byID := make(map[core.SectionID]*core.SectionOutput, len(outputs))
	for _, out := range outputs {
		if out != nil && out.Success {
			byID[out.SectionID] = out
		}
	}

	citations := 0
	for _, sec := range plan.Sections {
		res := SectionResult{
			SectionID:  sec.ID,
			TargetWord: sec.TargetWordCount,
		}
		if out, ok := byID[sec.ID]; ok {
			res.Generated = true
			res.ActualWord = out.WordCount
			citations += len(out.Citations)
		}
		if res.TargetWord > 0 {
			res.Attainment = float64(res.ActualWord) / float64(res.TargetWord)
		}
		rep.Sections = append(rep.Sections, res)
		rep.TotalTargetWords += res.TargetWord
		rep.TotalActualWords += res.ActualWord

		if !res.Generated {
			rep.Failures = append(rep.Failures,
				fmt.Sprintf("section %s was not generated", sec.ID))
		}
	}

	if rep.TotalTargetWords > 0 {
		rep.OverallAttainment = float64(rep.TotalActualWords) / float64(rep.TotalTargetWords)
	}
	rep.CitationCount = citations
	rep.CitationTarget = plan.CitationPolicy.TargetCount

	minAttainment := plan.QualityPolicy.MinWordAttainment
	if rep.DegeneratePlan {
		rep.Failures = append(rep.Failures,
			fmt.Sprintf("plan word budget %d cannot cover %d sections", plan.TotalWords, len(plan.Sections)))
	}
	if minAttainment > 0 && rep.OverallAttainment < minAttainment {
		rep.Failures = append(rep.Failures,
			fmt.Sprintf("overall word attainment %.2f below minimum %.2f", rep.OverallAttainment, minAttainment))
	}
	if plan.QualityPolicy.RequireCitations && rep.CitationCount == 0 {
		rep.Failures = append(rep.Failures, "document has no citations but the policy requires them")
	}

	rep.Passed = len(rep.Failures) == 0
	c.logger.Info("quality evaluation finished",
		"passed", rep.Passed,
		"overall_attainment", fmt.Sprintf("%.2f", rep.OverallAttainment),
		"failures", len(rep.Failures),
	)
	return rep
}
