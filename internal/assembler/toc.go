package assembler

import (
	"fmt"
	"strings"
)

// tocEntry is one heading discovered in the assembled text.
type tocEntry struct {
	level  int
	title  string
	anchor string
}

// buildTOC scans ATX heading markers in the assembled document and renders
// an ordered, indented list with anchors. Indentation is relative to the
// shallowest heading level present so a document of all H2s is flush left.
func buildTOC(document string) string {
	var entries []tocEntry
	minLevel := 7
	for _, line := range strings.Split(document, "\n") {
		trimmed := strings.TrimSpace(line)
		level := 0
		for level < len(trimmed) && trimmed[level] == '#' {
			level++
		}
		if level == 0 || level > 6 || level >= len(trimmed) || trimmed[level] != ' ' {
			continue
		}
		title := strings.TrimSpace(trimmed[level:])
		if title == "" || strings.EqualFold(title, "Table of Contents") {
			continue
		}
		entries = append(entries, tocEntry{level: level, title: title, anchor: anchorFor(title)})
		if level < minLevel {
			minLevel = level
		}
	}
	if len(entries) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("## Table of Contents\n\n")
	for _, e := range entries {
		indent := strings.Repeat("  ", e.level-minLevel)
		fmt.Fprintf(&sb, "%s- [%s](#%s)\n", indent, e.title, e.anchor)
	}
	return sb.String()
}

// anchorFor derives a GitHub-style anchor from a heading title: lowercase,
// spaces to dashes, punctuation dropped.
func anchorFor(title string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ' || r == '-':
			sb.WriteByte('-')
		}
	}
	return sb.String()
}
