package assembler

import "testing"

func TestParseParagraphs_OffsetsAndSentences(t *testing.T) {
	t.Parallel()
	content := "One. Two two.\n\nSecond para."

	paras := parseParagraphs(content)
	if len(paras) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(paras))
	}

	p0 := paras[0]
	if p0.Start != 0 || p0.Text != "One. Two two." {
		t.Errorf("paragraph 0 = %+v", p0)
	}
	if len(p0.Sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(p0.Sentences))
	}
	if s := p0.Sentences[0]; s.Text != "One." || s.Start != 0 || s.End != 4 {
		t.Errorf("sentence 0 = %+v", s)
	}
	if s := p0.Sentences[1]; s.Text != "Two two." || s.Start != 5 {
		t.Errorf("sentence 1 = %+v", s)
	}

	p1 := paras[1]
	if p1.Start != 15 || p1.Text != "Second para." {
		t.Errorf("paragraph 1 = %+v", p1)
	}
	if content[p1.Start:p1.End] != p1.Text {
		t.Errorf("offsets do not address original content: %q", content[p1.Start:p1.End])
	}
}

func TestParseParagraphs_SkipsBlankRuns(t *testing.T) {
	t.Parallel()
	paras := parseParagraphs("\n\n\nfirst\n\n\n\nsecond\n\n")
	if len(paras) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(paras))
	}
	if paras[0].Text != "first" || paras[1].Text != "second" {
		t.Errorf("paragraphs = %q, %q", paras[0].Text, paras[1].Text)
	}
}

func TestParseParagraphs_Empty(t *testing.T) {
	t.Parallel()
	if paras := parseParagraphs(""); len(paras) != 0 {
		t.Errorf("expected no paragraphs, got %d", len(paras))
	}
	if paras := parseParagraphs("   \n \n"); len(paras) != 0 {
		t.Errorf("expected no paragraphs for whitespace, got %d", len(paras))
	}
}

func TestSplitSentences_DecimalNotATerminator(t *testing.T) {
	t.Parallel()
	sents := splitSentences("Accuracy rose to 3.14 overall. Then it fell.", 0)
	if len(sents) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %+v", len(sents), sents)
	}
	if sents[0].Text != "Accuracy rose to 3.14 overall." {
		t.Errorf("sentence 0 = %q", sents[0].Text)
	}
}

func TestSplitSentences_NoTerminator(t *testing.T) {
	t.Parallel()
	sents := splitSentences("## A Heading", 10)
	if len(sents) != 1 || sents[0].Text != "## A Heading" || sents[0].Start != 10 {
		t.Errorf("sentences = %+v", sents)
	}
}

func TestParagraphWordCount(t *testing.T) {
	t.Parallel()
	p := Paragraph{Text: "three short words"}
	if got := p.WordCount(); got != 3 {
		t.Errorf("WordCount = %d", got)
	}
}
