package assembler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longform-ai/longform/internal/core"
)

func sectionOutput(id core.SectionID, content string) *core.SectionOutput {
	return &core.SectionOutput{
		SectionID: id,
		Content:   content,
		WordCount: len(strings.Fields(content)),
		Success:   true,
		AgentKind: core.AgentWriter,
	}
}

func tableElement(id string, section core.SectionID, title string) *core.DocumentElement {
	return &core.DocumentElement{
		ID:        id,
		Type:      core.ElementTable,
		Title:     title,
		Content:   "| a | b |\n|---|---|\n| 1 | 2 |",
		SectionID: section,
	}
}

func TestAssemble_NearReferencePlacement(t *testing.T) {
	t.Parallel()
	content := "The results are summarized here. As shown in the following table, accuracy improves.\n\n" +
		"A second paragraph with more discussion of the findings in this study.\n\n" +
		"Final remarks close the section."
	outputs := []*core.SectionOutput{sectionOutput("results", content)}
	elements := []*core.DocumentElement{tableElement("tbl-results", "results", "Accuracy")}

	doc, report, err := New(nil).Assemble(outputs, elements, nil)
	require.NoError(t, err)
	require.Len(t, report.Placed, 1)

	placed := report.Placed[0]
	assert.Equal(t, core.StrategyNearReference, placed.Strategy)
	assert.Equal(t, 1, placed.CaptionNumber)
	require.NotEmpty(t, placed.References)
	assert.Equal(t, 1, placed.References[0].Paragraph, "heading is paragraph 0, reference in paragraph 1")

	// The table block lands between the referencing paragraph and the next.
	tablePos := strings.Index(doc, "| a | b |")
	nextParaPos := strings.Index(doc, "A second paragraph")
	refParaPos := strings.Index(doc, "The results are summarized")
	require.True(t, tablePos > refParaPos)
	assert.True(t, tablePos < nextParaPos, "table must precede the following paragraph")
}

func TestAssemble_UnreferencedTableGoesToEndOfSection(t *testing.T) {
	t.Parallel()
	content := "First paragraph of prose without any mention.\n\n" +
		"Second paragraph continues the argument.\n\n" +
		"Third and final paragraph concludes."
	outputs := []*core.SectionOutput{sectionOutput("body", content)}
	elements := []*core.DocumentElement{tableElement("tbl-1", "body", "Summary")}

	doc, report, err := New(nil).Assemble(outputs, elements, nil)
	require.NoError(t, err)
	require.Len(t, report.Placed, 1)

	placed := report.Placed[0]
	assert.Equal(t, core.StrategyEndOfSection, placed.Strategy)
	assert.Equal(t, 1, placed.CaptionNumber, "first table in document order is Table 1")
	assert.Empty(t, placed.References)

	lastParaPos := strings.Index(doc, "Third and final")
	captionPos := strings.Index(doc, "*Table 1: Summary*")
	require.NotEqual(t, -1, captionPos)
	assert.True(t, captionPos > lastParaPos, "table must follow the final paragraph")
}

func TestAssemble_CaptionNumbersFollowDocumentOrder(t *testing.T) {
	t.Parallel()
	// Section two appears later in output order, so its table numbers after
	// section one's even though its element is listed first.
	outputs := []*core.SectionOutput{
		sectionOutput("one", "Opening prose for the first section of text."),
		sectionOutput("two", "Closing prose for the second section of text."),
	}
	elements := []*core.DocumentElement{
		tableElement("tbl-two", "two", "Later"),
		tableElement("tbl-one", "one", "Earlier"),
	}

	doc, report, err := New(nil).Assemble(outputs, elements, nil)
	require.NoError(t, err)
	require.Len(t, report.Placed, 2)

	byID := map[string]int{}
	for _, p := range report.Placed {
		byID[p.Element.ID] = p.CaptionNumber
	}
	assert.Equal(t, 1, byID["tbl-one"])
	assert.Equal(t, 2, byID["tbl-two"])
	assert.Contains(t, doc, "*Table 1: Earlier*")
	assert.Contains(t, doc, "*Table 2: Later*")
}

func TestAssemble_TieBreakByElementID(t *testing.T) {
	t.Parallel()
	// Two unreferenced tables in one section resolve to the same offset;
	// ascending element ID decides the numbering.
	outputs := []*core.SectionOutput{
		sectionOutput("s", "Only paragraph in this section of the document."),
	}
	elements := []*core.DocumentElement{
		tableElement("z-tbl", "s", "Zed"),
		tableElement("a-tbl", "s", "Ay"),
	}

	doc, report, err := New(nil).Assemble(outputs, elements, nil)
	require.NoError(t, err)
	require.Len(t, report.Placed, 2)
	assert.Equal(t, "a-tbl", report.Placed[0].Element.ID)
	assert.Equal(t, 1, report.Placed[0].CaptionNumber)
	assert.Equal(t, "z-tbl", report.Placed[1].Element.ID)
	assert.Equal(t, 2, report.Placed[1].CaptionNumber)
	assert.True(t, strings.Index(doc, "*Table 1: Ay*") < strings.Index(doc, "*Table 2: Zed*"))
}

func TestAssemble_IndependentCountersPerType(t *testing.T) {
	t.Parallel()
	outputs := []*core.SectionOutput{
		sectionOutput("s", "A single paragraph hosting both kinds of elements."),
	}
	elements := []*core.DocumentElement{
		tableElement("tbl", "s", "Data"),
		{ID: "fig", Type: core.ElementFigure, Title: "Chart", Content: "(chart)", SectionID: "s"},
	}

	doc, _, err := New(nil).Assemble(outputs, elements, nil)
	require.NoError(t, err)
	assert.Contains(t, doc, "*Table 1: Data*")
	assert.Contains(t, doc, "*Figure 1: Chart*")
}

func TestAssemble_PlacementHintOverridesReference(t *testing.T) {
	t.Parallel()
	content := "See the table below for details.\n\nMore prose follows in a second paragraph.\n\nThe end."
	elem := tableElement("tbl", "s", "Pinned")
	elem.PlacementHint = core.PlacementEndOfSection

	_, report, err := New(nil).Assemble(
		[]*core.SectionOutput{sectionOutput("s", content)},
		[]*core.DocumentElement{elem}, nil)
	require.NoError(t, err)
	require.Len(t, report.Placed, 1)
	assert.Equal(t, core.StrategyEndOfSection, report.Placed[0].Strategy)
	assert.NotEmpty(t, report.Placed[0].References, "references are still recorded for the report")
}

func TestAssemble_NearReferenceHintWithoutReferenceFallsBack(t *testing.T) {
	t.Parallel()
	elem := tableElement("tbl", "s", "Orphan")
	elem.PlacementHint = core.PlacementNearReference

	_, report, err := New(nil).Assemble(
		[]*core.SectionOutput{sectionOutput("s", "Prose that never mentions it.")},
		[]*core.DocumentElement{elem}, nil)
	require.NoError(t, err)
	require.Len(t, report.Placed, 1)
	assert.Equal(t, core.StrategyEndOfSection, report.Placed[0].Strategy)
}

func TestAssemble_RewritesGenericReferences(t *testing.T) {
	t.Parallel()
	content := "Results appear in the following table, broken out by cohort."
	doc, _, err := New(nil).Assemble(
		[]*core.SectionOutput{sectionOutput("results", content)},
		[]*core.DocumentElement{tableElement("tbl", "results", "Cohorts")}, nil)
	require.NoError(t, err)
	assert.Contains(t, doc, "Results appear in Table 1, broken out by cohort.")
	assert.NotContains(t, doc, "the following table")
}

func TestAssemble_RewriteLeavesElementContentAlone(t *testing.T) {
	t.Parallel()
	content := "Results appear in the following table, broken out by cohort."
	elem := tableElement("tbl", "results", "Cohorts")
	elem.Content = "Note: the following table rows are synthetic."

	doc, _, err := New(nil).Assemble(
		[]*core.SectionOutput{sectionOutput("results", content)},
		[]*core.DocumentElement{elem}, nil)
	require.NoError(t, err)
	assert.Contains(t, doc, "Results appear in Table 1, broken out by cohort.")
	assert.Contains(t, doc, "Note: the following table rows are synthetic.",
		"prose inside the element block keeps its wording")
}

func TestAssemble_CaptionAbovePerStyleGuide(t *testing.T) {
	t.Parallel()
	doc, _, err := New(nil).Assemble(
		[]*core.SectionOutput{sectionOutput("s", "Hosting paragraph.")},
		[]*core.DocumentElement{tableElement("tbl", "s", "Above")},
		map[string]string{"caption_position": "above"})
	require.NoError(t, err)
	captionPos := strings.Index(doc, "*Table 1: Above*")
	bodyPos := strings.Index(doc, "| a | b |")
	require.NotEqual(t, -1, captionPos)
	assert.True(t, captionPos < bodyPos, "caption must precede the element body")
}

func TestAssemble_UnplacedElementReported(t *testing.T) {
	t.Parallel()
	_, report, err := New(nil).Assemble(
		[]*core.SectionOutput{sectionOutput("alive", "Some text.")},
		[]*core.DocumentElement{tableElement("tbl-dead", "dead", "Lost")}, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Placed)
	assert.Equal(t, []string{"tbl-dead"}, report.Unplaced)
}

func TestAssemble_GeneratedElementsMergedFromOutputs(t *testing.T) {
	t.Parallel()
	out := sectionOutput("s", "The agent produced a comparison during generation.")
	out.Elements = []*core.DocumentElement{
		{ID: "gen-tbl", Type: core.ElementTable, Title: "Generated", Content: "| x |\n|---|"},
	}

	doc, report, err := New(nil).Assemble([]*core.SectionOutput{out}, nil, nil)
	require.NoError(t, err)
	require.Len(t, report.Placed, 1)
	assert.Equal(t, core.SectionID("s"), report.Placed[0].SectionID)
	assert.Contains(t, doc, "*Table 1: Generated*")
}

func TestAssemble_TableOfContents(t *testing.T) {
	t.Parallel()
	outputs := []*core.SectionOutput{
		sectionOutput("intro", "## Introduction\n\nOpening words."),
		sectionOutput("lit-review", "Unheaded content gets a derived heading."),
	}

	doc, _, err := New(nil).Assemble(outputs, nil, nil)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(doc, "## Table of Contents\n"))
	assert.Contains(t, doc, "- [Introduction](#introduction)")
	assert.Contains(t, doc, "- [Lit Review](#lit-review)")
}

func TestAssemble_SkipsFailedOutputs(t *testing.T) {
	t.Parallel()
	failed := sectionOutput("bad", "Should never appear.")
	failed.Success = false

	doc, _, err := New(nil).Assemble(
		[]*core.SectionOutput{sectionOutput("good", "Kept text."), failed}, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, doc, "Kept text.")
	assert.NotContains(t, doc, "Should never appear.")
}

func TestAssemble_NoSuccessfulOutputsIsAssemblyError(t *testing.T) {
	t.Parallel()
	failed := sectionOutput("bad", "x")
	failed.Success = false

	_, _, err := New(nil).Assemble([]*core.SectionOutput{failed}, nil, nil)
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatAssembly))
}

func TestAssemble_Deterministic(t *testing.T) {
	t.Parallel()
	outputs := []*core.SectionOutput{
		sectionOutput("a", "First section text mentions the following figure in passing.\n\nSecond paragraph."),
		sectionOutput("b", "Second section plain prose without references."),
	}
	elements := []*core.DocumentElement{
		{ID: "fig-a", Type: core.ElementFigure, Title: "Trend", Content: "(plot)", SectionID: "a"},
		tableElement("tbl-b", "b", "Stats"),
	}

	first, _, err := New(nil).Assemble(outputs, elements, nil)
	require.NoError(t, err)
	second, _, err := New(nil).Assemble(outputs, elements, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second, "identical input must produce byte-identical output")
}
