package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/longform-ai/longform/internal/core"
	"github.com/longform-ai/longform/internal/planner"
)

var planFlags struct {
	topic    string
	title    string
	words    int
	docType  string
	audience string
	level    string
	figures  bool
	tables   bool
	out      string
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a document without generating it",
	Long: `plan builds the section graph, word allocations, and media placeholders
for a request and prints the result as JSON. Useful for inspecting what a
generate run would execute before spending backend calls on it.`,
	RunE: runPlan,
}

func init() {
	f := planCmd.Flags()
	f.StringVar(&planFlags.topic, "topic", "", "document topic (required)")
	f.StringVar(&planFlags.title, "title", "", "document title (defaults to the topic)")
	f.IntVar(&planFlags.words, "words", 5000, "target total word count")
	f.StringVar(&planFlags.docType, "type", string(core.DocTypeReport),
		"document type (research_paper, thesis, report, free_form)")
	f.StringVar(&planFlags.audience, "audience", "", "intended audience")
	f.StringVar(&planFlags.level, "level", "", "academic level (undergraduate, graduate, doctoral, professional)")
	f.BoolVar(&planFlags.figures, "figures", false, "allocate figure placeholders")
	f.BoolVar(&planFlags.tables, "tables", false, "allocate table placeholders")
	f.StringVar(&planFlags.out, "out", "", "write the plan to a file instead of stdout")
	_ = planCmd.MarkFlagRequired("topic")

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	p, err := planner.New(logger)
	if err != nil {
		return err
	}
	plan, err := p.CreatePlan(planner.PlanRequest{
		Topic:          planFlags.topic,
		Title:          planFlags.title,
		TotalWords:     planFlags.words,
		DocumentType:   core.DocumentType(planFlags.docType),
		IncludeFigures: planFlags.figures,
		IncludeTables:  planFlags.tables,
		Audience:       planFlags.audience,
		AcademicLevel:  planner.AcademicLevel(planFlags.level),
	})
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if planFlags.out != "" {
		if err := os.WriteFile(planFlags.out, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Plan written to %s\n", planFlags.out)
		return nil
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}
