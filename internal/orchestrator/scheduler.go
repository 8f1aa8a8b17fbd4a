package orchestrator

import (
	"sort"

	"github.com/longform-ai/longform/internal/core"
)

// Wave is a maximal set of sections whose dependencies are all satisfied by
// strictly earlier waves, eligible to run concurrently.
type Wave struct {
	Index    int
	Sections []*core.SectionPlan
}

// BuildWaves computes a Kahn-style topological layering of the plan's
// sections. If a dependency cycle exists, the scheduler does not deadlock:
// it breaks the cycle by force-scheduling the lowest-ID remaining section
// into its own wave and reports the plan as degraded.
func BuildWaves(plan *core.DocumentPlan) ([]Wave, bool) {
	remaining := make(map[core.SectionID]*core.SectionPlan, len(plan.Sections))
	order := make([]core.SectionID, 0, len(plan.Sections))
	for _, s := range plan.Sections {
		remaining[s.ID] = s
		order = append(order, s.ID)
	}

	scheduled := make(map[core.SectionID]bool, len(plan.Sections))
	var waves []Wave
	degraded := false

	for len(remaining) > 0 {
		var eligible []*core.SectionPlan
		for _, id := range order {
			s, ok := remaining[id]
			if !ok {
				continue
			}
			ready := true
			for _, dep := range s.DependsOn {
				if !scheduled[dep] {
					ready = false
					break
				}
			}
			if ready {
				eligible = append(eligible, s)
			}
		}

		if len(eligible) == 0 {
			// Cycle: force the deterministically-first remaining section.
			ids := make([]string, 0, len(remaining))
			for id := range remaining {
				ids = append(ids, string(id))
			}
			sort.Strings(ids)
			eligible = []*core.SectionPlan{remaining[core.SectionID(ids[0])]}
			degraded = true
		}

		waves = append(waves, Wave{Index: len(waves), Sections: eligible})
		for _, s := range eligible {
			scheduled[s.ID] = true
			delete(remaining, s.ID)
		}
	}

	return waves, degraded
}
