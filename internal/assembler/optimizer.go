package assembler

import "github.com/longform-ai/longform/internal/core"

// Optimizer re-scores resolved placements and relocates poor ones, e.g. an
// element glued to a one-line paragraph when a substantial neighbor exists.
// The result is a pure function of the references and paragraph structure,
// never of the incoming placement, so a second pass over an already
// optimized layout is a no-op.
type Optimizer struct {
	// MinParagraphWords marks paragraphs below this length as poor hosts.
	MinParagraphWords int
	// MaxShift bounds how many paragraphs a placement may move from the
	// paragraph holding its earliest reference.
	MaxShift int
}

// DefaultOptimizer returns the optimizer with production scoring weights.
func DefaultOptimizer() *Optimizer {
	return &Optimizer{MinParagraphWords: 20, MaxShift: 1}
}

const (
	distancePenalty  = 2
	shortHostPenalty = 3
)

// optimizeSection relocates NEAR_REFERENCE placements within the layout.
// END_OF_SECTION placements are left alone, whether they got that strategy
// from a placement hint or from having no reference to be near.
func (o *Optimizer) optimizeSection(l *sectionLayout) {
	for _, p := range l.placements {
		if p.Strategy != core.StrategyNearReference {
			continue
		}
		if len(p.References) == 0 || len(l.paragraphs) == 0 {
			continue
		}
		refPara := p.References[0].Paragraph

		best := -1
		bestScore := 0
		for idx := refPara - o.MaxShift; idx <= refPara+o.MaxShift; idx++ {
			if idx < 0 || idx >= len(l.paragraphs) {
				continue
			}
			score := o.score(l.paragraphs[idx], idx, refPara)
			if best == -1 || score > bestScore ||
				(score == bestScore && closerTo(idx, best, refPara)) {
				best = idx
				bestScore = score
			}
		}
		if best == -1 {
			continue
		}
		p.AfterParagraph = best
		p.Offset = l.paragraphs[best].End
	}
}

func (o *Optimizer) score(host Paragraph, idx, refPara int) int {
	score := -distancePenalty * abs(idx-refPara)
	if host.WordCount() < o.MinParagraphWords {
		score -= shortHostPenalty
	}
	return score
}

// closerTo breaks score ties toward the reference paragraph, then toward
// the earlier paragraph, keeping relocation deterministic.
func closerTo(candidate, current, refPara int) bool {
	cd, bd := abs(candidate-refPara), abs(current-refPara)
	if cd != bd {
		return cd < bd
	}
	return candidate < current
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
