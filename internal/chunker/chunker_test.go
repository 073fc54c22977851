package chunker

import (
	"strings"
	"testing"
)

func TestSplitEmptyInput(t *testing.T) {
	c := NewSentenceChunker(1000, 200)
	for _, input := range []string{"", "   ", "\n\t\n"} {
		if pieces := c.Split(input); len(pieces) != 0 {
			t.Errorf("input %q: expected zero pieces, got %d", input, len(pieces))
		}
	}
}

func TestSplitShortTextIsOneChunk(t *testing.T) {
	c := NewSentenceChunker(1000, 200)
	text := "The lease starts on the first of March. Rent is due monthly. The deposit equals two months of rent."
	pieces := c.Split(text)
	if len(pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d", len(pieces))
	}
	if pieces[0].SentenceCount != 3 {
		t.Errorf("expected 3 sentences, got %d", pieces[0].SentenceCount)
	}
	if pieces[0].CharLength != len(pieces[0].Content) {
		t.Errorf("CharLength %d does not match content length %d", pieces[0].CharLength, len(pieces[0].Content))
	}
}

func TestSplitRespectsTargetSize(t *testing.T) {
	c := NewSentenceChunker(100, 0)
	sentence := "This clause covers the obligations of the tenant in detail."
	text := strings.Repeat(sentence+" ", 10)

	pieces := c.Split(text)
	if len(pieces) < 2 {
		t.Fatalf("expected multiple pieces, got %d", len(pieces))
	}
	for i, p := range pieces {
		// soft target: one sentence may overflow, two may not
		if p.SentenceCount > 1 && p.CharLength > 100+len(sentence) {
			t.Errorf("piece %d far exceeds target: %d chars", i, p.CharLength)
		}
	}
}

func TestSplitCarriesOverlap(t *testing.T) {
	c := NewSentenceChunker(100, 50)
	text := "First clause describes the parties involved and the subject of the contract in full. " +
		"Second clause sets the payment schedule for every month of the term. " +
		"Third clause regulates early termination by either party."

	pieces := c.Split(text)
	if len(pieces) < 2 {
		t.Fatalf("expected multiple pieces, got %d", len(pieces))
	}

	// each piece after the first starts with the word tail of its predecessor
	for i := 1; i < len(pieces); i++ {
		prevWords := strings.Fields(pieces[i-1].Content)
		tail := strings.Join(prevWords[len(prevWords)-10:], " ")
		if !strings.HasPrefix(pieces[i].Content, tail) {
			t.Errorf("piece %d does not start with predecessor tail:\n tail: %q\n got:  %q",
				i, tail, pieces[i].Content)
		}
	}
}

func TestSplitNoOverlapWhenDisabled(t *testing.T) {
	c := NewSentenceChunker(60, 0)
	text := "Alpha clause ends here with several words of body text. Beta clause ends here with several words of body text."
	pieces := c.Split(text)
	if len(pieces) != 2 {
		t.Fatalf("expected 2 pieces, got %d", len(pieces))
	}
	if strings.Contains(pieces[1].Content, "Alpha") {
		t.Error("second piece leaked content from the first with overlap disabled")
	}
}

func TestSplitOverlongSentenceEmittedWhole(t *testing.T) {
	c := NewSentenceChunker(50, 10)
	long := "This single sentence is deliberately much longer than the configured target size and must not be cut in the middle."
	pieces := c.Split(long)
	if len(pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d", len(pieces))
	}
	if pieces[0].Content != long {
		t.Errorf("over-long sentence was modified: %q", pieces[0].Content)
	}
}

func TestSplitTextWithoutTerminators(t *testing.T) {
	c := NewSentenceChunker(1000, 200)
	text := "heading without punctuation"
	pieces := c.Split(text)
	if len(pieces) != 1 || pieces[0].Content != text {
		t.Fatalf("expected whole text as one piece, got %+v", pieces)
	}
}

func TestSplitFinalBufferAlwaysEmitted(t *testing.T) {
	c := NewSentenceChunker(80, 0)
	text := "The first clause fills the whole first chunk with enough characters to overflow. Tail."
	pieces := c.Split(text)
	if len(pieces) != 2 {
		t.Fatalf("expected 2 pieces, got %d", len(pieces))
	}
	if pieces[1].Content != "Tail." {
		t.Errorf("expected trailing sentence as final piece, got %q", pieces[1].Content)
	}
}

func TestSplitKeepsUnterminatedTrailingClause(t *testing.T) {
	c := NewSentenceChunker(1000, 200)
	text := "The parties agree to the terms above. Signed by both parties in Berlin on 1 March 2026"
	pieces := c.Split(text)
	if len(pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d", len(pieces))
	}
	if !strings.Contains(pieces[0].Content, "1 March 2026") {
		t.Errorf("trailing clause without terminal punctuation was dropped: %q", pieces[0].Content)
	}
	if pieces[0].SentenceCount != 2 {
		t.Errorf("expected the trailing clause counted as a sentence, got %d", pieces[0].SentenceCount)
	}
}

func TestSplitSentenceCountExcludesOverlapTail(t *testing.T) {
	c := NewSentenceChunker(60, 30)
	text := "Alpha clause ends here with several body words. Beta clause ends here with several body words. Gamma clause ends here with several body words."
	pieces := c.Split(text)
	if len(pieces) < 2 {
		t.Fatalf("expected multiple pieces, got %d", len(pieces))
	}
	for i, p := range pieces {
		if p.SentenceCount < 1 || p.SentenceCount > 2 {
			t.Errorf("piece %d: implausible sentence count %d for %q", i, p.SentenceCount, p.Content)
		}
	}
}
