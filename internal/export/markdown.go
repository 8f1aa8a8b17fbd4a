// Package export renders finished documents to their output formats. The
// pipeline's responsibility ends at reference-resolved text; exporters only
// handle serialization to disk.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/longform-ai/longform/internal/core"
	"github.com/longform-ai/longform/internal/logging"
)

// Format identifiers accepted by the exporter.
const (
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

// MarkdownExporter implements core.Exporter for markdown and plain text.
type MarkdownExporter struct {
	logger *logging.Logger
}

// NewMarkdown creates the exporter.
func NewMarkdown(logger *logging.Logger) *MarkdownExporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &MarkdownExporter{logger: logger}
}

// Export implements core.Exporter. The document is written atomically; the
// returned path is the final output location.
func (e *MarkdownExporter) Export(_ context.Context, document, format, outPath string) (string, error) {
	var content string
	switch format {
	case FormatMarkdown, "":
		content = document
	case FormatText:
		content = stripMarkdown(document)
	default:
		return "", core.ErrAssembly("EXPORT_FORMAT", fmt.Sprintf("unsupported export format %q", format))
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", core.ErrState("EXPORT_DIR", fmt.Sprintf("creating output directory: %v", err)).WithCause(err)
	}
	if err := renameio.WriteFile(outPath, []byte(content), 0o644); err != nil {
		return "", core.ErrState("EXPORT_WRITE", fmt.Sprintf("writing document: %v", err)).WithCause(err)
	}

	e.logger.Info("document exported",
		"format", format,
		"path", outPath,
		"bytes", len(content),
	)
	return outPath, nil
}

// stripMarkdown removes the markup this pipeline emits: heading markers,
// emphasis around captions, and link syntax in the table of contents.
func stripMarkdown(document string) string {
	var out []string
	for _, line := range strings.Split(document, "\n") {
		trimmed := strings.TrimLeft(line, "#")
		if trimmed != line {
			trimmed = strings.TrimSpace(trimmed)
		}
		trimmed = strings.ReplaceAll(trimmed, "**", "")
		trimmed = strings.ReplaceAll(trimmed, "*", "")
		trimmed = stripLinks(trimmed)
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}

// stripLinks rewrites [text](target) to text.
func stripLinks(line string) string {
	for {
		open := strings.Index(line, "[")
		if open == -1 {
			return line
		}
		close := strings.Index(line[open:], "](")
		if close == -1 {
			return line
		}
		end := strings.Index(line[open+close:], ")")
		if end == -1 {
			return line
		}
		text := line[open+1 : open+close]
		line = line[:open] + text + line[open+close+end+1:]
	}
}
