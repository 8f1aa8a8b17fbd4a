package assembler

import (
	"strings"
	"unicode"
)

// Sentence is one sentence within a paragraph. Offsets are character
// positions relative to the start of the section content.
type Sentence struct {
	Index int
	Text  string
	Start int
	End   int
}

// Paragraph is one blank-line-delimited block of section content, with its
// sentences and character offsets relative to the section start.
type Paragraph struct {
	Index     int
	Text      string
	Start     int
	End       int
	Sentences []Sentence
}

// WordCount counts whitespace-separated tokens in the paragraph.
func (p Paragraph) WordCount() int {
	return len(strings.Fields(p.Text))
}

// parseParagraphs splits section content into paragraphs on blank lines,
// recording character offsets so later insertion points stay addressable.
func parseParagraphs(content string) []Paragraph {
	var paras []Paragraph
	pos := 0
	for pos < len(content) {
		// Skip leading blank lines.
		for pos < len(content) {
			lineEnd := strings.IndexByte(content[pos:], '\n')
			if lineEnd == -1 {
				break
			}
			if strings.TrimSpace(content[pos:pos+lineEnd]) != "" {
				break
			}
			pos += lineEnd + 1
		}
		if pos >= len(content) {
			break
		}

		end := strings.Index(content[pos:], "\n\n")
		var raw string
		if end == -1 {
			raw = content[pos:]
			end = len(content)
		} else {
			raw = content[pos : pos+end]
			end = pos + end
		}
		text := strings.TrimRight(raw, " \t\n")
		if strings.TrimSpace(text) == "" {
			pos = end + 1
			continue
		}

		paras = append(paras, Paragraph{
			Index:     len(paras),
			Text:      text,
			Start:     pos,
			End:       pos + len(text),
			Sentences: splitSentences(text, pos),
		})
		pos = end + 1
	}
	return paras
}

// splitSentences breaks paragraph text on terminal punctuation followed by
// whitespace. It is intentionally simple: reference scanning only needs
// sentence granularity, not linguistic accuracy.
func splitSentences(text string, base int) []Sentence {
	var sentences []Sentence
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		// A terminator only ends the sentence at end of text or before
		// whitespace; "3.14" and "e.g." style tokens stay intact.
		if i+1 < len(text) && !unicode.IsSpace(rune(text[i+1])) {
			continue
		}
		seg := strings.TrimSpace(text[start : i+1])
		if seg != "" {
			segStart := start + indexOfTrimmed(text[start:i+1])
			sentences = append(sentences, Sentence{
				Index: len(sentences),
				Text:  seg,
				Start: base + segStart,
				End:   base + segStart + len(seg),
			})
		}
		start = i + 1
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		segStart := start + indexOfTrimmed(text[start:])
		sentences = append(sentences, Sentence{
			Index: len(sentences),
			Text:  tail,
			Start: base + segStart,
			End:   base + segStart + len(tail),
		})
	}
	return sentences
}

// indexOfTrimmed returns the offset of the first non-space character.
func indexOfTrimmed(s string) int {
	for i, r := range s {
		if !unicode.IsSpace(r) {
			return i
		}
	}
	return 0
}
