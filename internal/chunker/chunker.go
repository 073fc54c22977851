package chunker

import (
	"regexp"
	"strings"

	"github.com/erarta/advocata-sub000/internal/config"
)

// Piece is one chunk of text before embedding, with the stats the pipeline
// records as chunk metadata.
type Piece struct {
	Content       string
	CharLength    int
	SentenceCount int
}

// SentenceChunker accumulates whole sentences up to a soft size target and
// carries a short word tail from each emitted chunk into the next one for
// context continuity.
type SentenceChunker struct {
	targetSize  int
	overlapSize int
	splitter    *regexp.Regexp
}

func NewSentenceChunker(targetSize, overlapSize int) *SentenceChunker {
	if targetSize <= 0 {
		targetSize = config.ChunkTargetSize
	}
	if overlapSize < 0 {
		overlapSize = 0
	}
	return &SentenceChunker{
		targetSize:  targetSize,
		overlapSize: overlapSize,
		splitter:    regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?]+)`),
	}
}

// Split chunks the text. Empty or whitespace-only input yields zero pieces.
// A single sentence longer than the target is emitted whole rather than cut
// mid-sentence.
func (c *SentenceChunker) Split(text string) []Piece {
	sentences := c.splitter.FindAllString(text, -1)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		sentences = []string{trimmed}
	} else if locs := c.splitter.FindAllStringIndex(text, -1); len(locs) > 0 {
		// an unterminated trailing clause still belongs to the document
		if rest := strings.TrimSpace(text[locs[len(locs)-1][1]:]); rest != "" {
			sentences = append(sentences, rest)
		}
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}

	var pieces []Piece
	var buffer []string
	bufferLen := 0
	tailCarried := false

	makePiece := func() Piece {
		content := strings.Join(buffer, " ")
		count := len(buffer)
		if tailCarried {
			count--
		}
		return Piece{
			Content:       content,
			CharLength:    len(content),
			SentenceCount: count,
		}
	}

	flush := func() {
		piece := makePiece()
		pieces = append(pieces, piece)

		tail := overlapTail(piece.Content, c.overlapSize)
		buffer = buffer[:0]
		bufferLen = 0
		tailCarried = false
		if tail != "" {
			buffer = append(buffer, tail)
			bufferLen = len(tail)
			tailCarried = true
		}
	}

	for _, sentence := range sentences {
		if sentence == "" {
			continue
		}
		onlyTail := tailCarried && len(buffer) == 1
		if bufferLen > 0 && !onlyTail && bufferLen+1+len(sentence) > c.targetSize {
			flush()
		}
		if bufferLen > 0 {
			bufferLen++
		}
		buffer = append(buffer, sentence)
		bufferLen += len(sentence)
	}

	// the trailing buffer always becomes a chunk, unless it holds nothing
	// beyond the carried overlap tail
	hasRealContent := len(buffer) > 0 && !(tailCarried && len(buffer) == 1)
	if hasRealContent {
		pieces = append(pieces, makePiece())
	}

	return pieces
}

// overlapTail takes roughly overlapSize characters of whole words from the
// end of content.
func overlapTail(content string, overlapSize int) string {
	if overlapSize <= 0 || len(content) <= overlapSize {
		return ""
	}
	words := strings.Fields(content)
	wordCount := overlapSize / 5
	if wordCount == 0 || wordCount >= len(words) {
		return ""
	}
	return strings.Join(words[len(words)-wordCount:], " ")
}
