package planner

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/longform-ai/longform/internal/core"
)

//go:embed templates/*.yaml
var templateFS embed.FS

// Template is a structural skeleton for one document type.
type Template struct {
	Type            string            `yaml:"type"`
	CitationStyle   string            `yaml:"citation_style"`
	CitationDensity float64           `yaml:"citation_density"` // citations per 1000 words
	Sections        []TemplateSection `yaml:"sections"`
}

// TemplateSection describes one section in a template.
type TemplateSection struct {
	ID        string   `yaml:"id"`
	Title     string   `yaml:"title"`
	Agent     string   `yaml:"agent"`
	Role      string   `yaml:"role"` // intro, body, conclusion
	Weight    float64  `yaml:"weight"`
	DependsOn []string `yaml:"depends_on"`
	KeyTopics []string `yaml:"key_topics"`
}

// loadTemplates parses all embedded templates keyed by document type.
func loadTemplates() (map[core.DocumentType]*Template, error) {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("reading embedded templates: %w", err)
	}

	out := make(map[core.DocumentType]*Template, len(entries))
	for _, entry := range entries {
		data, err := templateFS.ReadFile("templates/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", entry.Name(), err)
		}
		var tpl Template
		if err := yaml.Unmarshal(data, &tpl); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", entry.Name(), err)
		}
		if err := tpl.validate(); err != nil {
			return nil, fmt.Errorf("template %s: %w", entry.Name(), err)
		}
		out[core.DocumentType(tpl.Type)] = &tpl
	}
	return out, nil
}

func (t *Template) validate() error {
	if len(t.Sections) == 0 {
		return fmt.Errorf("template has no sections")
	}
	var sum float64
	ids := make(map[string]bool, len(t.Sections))
	for _, s := range t.Sections {
		if s.ID == "" {
			return fmt.Errorf("section without ID")
		}
		if ids[s.ID] {
			return fmt.Errorf("duplicate section %s", s.ID)
		}
		ids[s.ID] = true
		sum += s.Weight
		for _, dep := range s.DependsOn {
			if !ids[dep] {
				return fmt.Errorf("section %s depends on %s which is not declared earlier", s.ID, dep)
			}
		}
	}
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("section weights sum to %.3f, want 1.0", sum)
	}
	return nil
}

// generativeTemplate builds a free-form skeleton: intro + N body + conclusion,
// with body count derived from the requested length.
func generativeTemplate(topic string, totalWords int) *Template {
	bodies := totalWords / 1500
	if bodies < 1 {
		bodies = 1
	}
	if bodies > 8 {
		bodies = 8
	}

	const introWeight, conclusionWeight = 0.12, 0.12
	bodyWeight := (1.0 - introWeight - conclusionWeight) / float64(bodies)

	sections := []TemplateSection{{
		ID:        "introduction",
		Title:     "Introduction",
		Agent:     string(core.AgentWriter),
		Role:      "intro",
		Weight:    introWeight,
		KeyTopics: []string{topic, "scope", "overview"},
	}}

	bodyIDs := make([]string, 0, bodies)
	for i := 1; i <= bodies; i++ {
		id := fmt.Sprintf("part_%d", i)
		bodyIDs = append(bodyIDs, id)
		sections = append(sections, TemplateSection{
			ID:        id,
			Title:     fmt.Sprintf("Part %d", i),
			Agent:     string(core.AgentWriter),
			Role:      "body",
			Weight:    bodyWeight,
			DependsOn: []string{"introduction"},
			KeyTopics: []string{topic},
		})
	}

	sections = append(sections, TemplateSection{
		ID:        "conclusion",
		Title:     "Conclusion",
		Agent:     string(core.AgentWriter),
		Role:      "conclusion",
		Weight:    conclusionWeight,
		DependsOn: bodyIDs,
		KeyTopics: []string{"summary", "takeaways"},
	})

	return &Template{
		Type:            string(core.DocTypeFreeForm),
		CitationStyle:   "informal",
		CitationDensity: 0.5,
		Sections:        sections,
	}
}

// agentKind maps a template agent string onto the closed AgentKind set,
// falling back to the general writer for unknown values.
func agentKind(s string) core.AgentKind {
	kind := core.AgentKind(strings.TrimSpace(s))
	for _, k := range core.AllAgentKinds() {
		if kind == k {
			return k
		}
	}
	return core.AgentWriter
}
