package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longform-ai/longform/internal/core"
)

func newPlanner(t *testing.T) *Planner {
	t.Helper()
	p, err := New(nil)
	require.NoError(t, err)
	return p
}

func TestCreatePlan_WordSumReconcilesExactly(t *testing.T) {
	t.Parallel()
	p := newPlanner(t)

	totals := []int{100, 999, 5000, 12345, 100000, 7}
	for _, total := range totals {
		for _, docType := range []core.DocumentType{
			core.DocTypeResearchPaper, core.DocTypeThesis, core.DocTypeReport, core.DocTypeFreeForm,
		} {
			plan, err := p.CreatePlan(PlanRequest{
				Topic:        "climate adaptation",
				TotalWords:   total,
				DocumentType: docType,
			})
			require.NoError(t, err, "type=%s total=%d", docType, total)

			sum := 0
			for _, s := range plan.Sections {
				assert.Positive(t, s.TargetWordCount, "section %s", s.ID)
				sum += s.TargetWordCount
			}
			if total >= len(plan.Sections) {
				assert.Equal(t, total, sum, "type=%s total=%d", docType, total)
			}
		}
	}
}

func TestCreatePlan_TinyTotalGetsOneWordFloors(t *testing.T) {
	t.Parallel()
	p := newPlanner(t)

	plan, err := p.CreatePlan(PlanRequest{
		Topic:        "x",
		TotalWords:   2,
		DocumentType: core.DocTypeResearchPaper,
	})
	require.NoError(t, err)

	for _, s := range plan.Sections {
		assert.GreaterOrEqual(t, s.TargetWordCount, 1, "section %s", s.ID)
	}
}

func TestCreatePlan_InvalidRequests(t *testing.T) {
	t.Parallel()
	p := newPlanner(t)

	_, err := p.CreatePlan(PlanRequest{Topic: "x", TotalWords: 0, DocumentType: core.DocTypeReport})
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatPlanning))

	_, err = p.CreatePlan(PlanRequest{Topic: "  ", TotalWords: 1000, DocumentType: core.DocTypeReport})
	require.Error(t, err)

	_, err = p.CreatePlan(PlanRequest{Topic: "x", TotalWords: 1000, DocumentType: core.DocumentType("novel")})
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatPlanning))
}

func TestCreatePlan_DependenciesFormDAG(t *testing.T) {
	t.Parallel()
	p := newPlanner(t)

	plan, err := p.CreatePlan(PlanRequest{
		Topic:        "microservice migration",
		TotalWords:   8000,
		DocumentType: core.DocTypeThesis,
	})
	require.NoError(t, err)
	require.NoError(t, plan.Validate())

	// Template dependencies only ever point at earlier sections, so plan
	// order is already a topological order.
	seen := map[core.SectionID]bool{}
	for _, s := range plan.Sections {
		for _, dep := range s.DependsOn {
			assert.True(t, seen[dep], "section %s depends on later section %s", s.ID, dep)
		}
		seen[s.ID] = true
	}
}

func TestCreatePlan_MediaSkipsFirstAndLastBody(t *testing.T) {
	t.Parallel()
	p := newPlanner(t)

	plan, err := p.CreatePlan(PlanRequest{
		Topic:          "throughput study",
		TotalWords:     10000,
		DocumentType:   core.DocTypeResearchPaper,
		IncludeTables:  true,
		IncludeFigures: true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, plan.Elements)

	// research_paper body order: literature_review, methodology, results,
	// discussion; first and last body are skipped.
	for _, e := range plan.Elements {
		assert.NotEqual(t, core.SectionID("literature_review"), e.SectionID)
		assert.NotEqual(t, core.SectionID("discussion"), e.SectionID)
	}
}

func TestCreatePlan_MediaDeterministic(t *testing.T) {
	t.Parallel()
	p := newPlanner(t)

	req := PlanRequest{
		Topic:         "energy grids",
		TotalWords:    9000,
		DocumentType:  core.DocTypeThesis,
		IncludeTables: true,
	}
	a, err := p.CreatePlan(req)
	require.NoError(t, err)
	b, err := p.CreatePlan(req)
	require.NoError(t, err)

	require.Equal(t, len(a.Elements), len(b.Elements))
	for i := range a.Elements {
		assert.Equal(t, a.Elements[i].ID, b.Elements[i].ID)
		assert.Equal(t, a.Elements[i].SectionID, b.Elements[i].SectionID)
	}
}

func TestCreatePlan_NoMediaWhenNotRequested(t *testing.T) {
	t.Parallel()
	p := newPlanner(t)

	plan, err := p.CreatePlan(PlanRequest{
		Topic:        "q",
		TotalWords:   5000,
		DocumentType: core.DocTypeReport,
	})
	require.NoError(t, err)
	assert.Empty(t, plan.Elements)
}

func TestCitationTarget_ScalesWithLevel(t *testing.T) {
	t.Parallel()
	base := citationTarget(10000, 3.0, LevelGraduate)
	under := citationTarget(10000, 3.0, LevelUndergraduate)
	doctoral := citationTarget(10000, 3.0, LevelDoctoral)

	assert.Equal(t, 30, base)
	assert.Less(t, under, base)
	assert.Greater(t, doctoral, base)
}

func TestGenerativeTemplate_BodyCountScales(t *testing.T) {
	t.Parallel()
	small := generativeTemplate("topic", 1000)
	large := generativeTemplate("topic", 50000)

	// intro + bodies + conclusion
	assert.Equal(t, 3, len(small.Sections))
	assert.Equal(t, 10, len(large.Sections))

	// Conclusion depends on every body section.
	last := large.Sections[len(large.Sections)-1]
	assert.Len(t, last.DependsOn, 8)
}

func TestLoadTemplates_AllValid(t *testing.T) {
	t.Parallel()
	templates, err := loadTemplates()
	require.NoError(t, err)

	for _, want := range []core.DocumentType{
		core.DocTypeResearchPaper, core.DocTypeThesis, core.DocTypeReport,
	} {
		assert.Contains(t, templates, want)
	}
}
