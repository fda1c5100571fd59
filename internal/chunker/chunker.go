// Package chunker splits document text into ordered, overlapping chunks
// along natural boundaries for the document type.
package chunker

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// DefaultChunkSize is the default maximum number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// DefaultMinChunkChars is the trimmed length below which a chunk is dropped.
const DefaultMinChunkChars = 50

var (
	// Two or more newlines, possibly with blank-looking lines, or a form feed.
	pageBreak = regexp.MustCompile(`(?:[ \t]*\r?\n){2,}|\f+`)

	// Any run of line breaks.
	paragraphBreak = regexp.MustCompile(`(?:[ \t]*\r?\n)+`)
)

// Chunker splits text into chunks of at most chunkSize characters.
// Characters are counted as runes.
type Chunker struct {
	chunkSize int
	overlap   int
	minChars  int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithMinChars sets the minimum trimmed length of a kept chunk.
func WithMinChars(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.minChars = n
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		minChars:  DefaultMinChunkChars,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// ChunkSize returns the configured maximum chunk length.
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// Overlap returns the configured overlap length.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Split breaks text into chunks using boundaries chosen by hint:
// page-like breaks for pdf, paragraph breaks for doc and sentence
// breaks for txt. Units are packed greedily; when the next unit would
// overflow, the chunk is closed and the next one is seeded with the
// trailing overlap worth of whole words. A unit longer than the chunk
// size becomes its own chunk, unsplit. Chunks whose trimmed length is
// below the minimum are dropped.
func (c *Chunker) Split(text string, hint domain.DocumentType) []string {
	units, sep := boundaryUnits(text, hint)
	if len(units) == 0 {
		return nil
	}

	var (
		chunks []string
		buf    strings.Builder
		bufLen int
		fresh  bool // buf holds at least one unit not yet emitted
	)

	reset := func(seed string) {
		buf.Reset()
		buf.WriteString(seed)
		bufLen = utf8.RuneCountInString(seed)
		fresh = false
	}

	sepLen := utf8.RuneCountInString(sep)

	for _, unit := range units {
		unitLen := utf8.RuneCountInString(unit)

		if fresh && bufLen+sepLen+unitLen > c.chunkSize {
			closed := buf.String()
			chunks = append(chunks, closed)
			reset(overlapTail(closed, c.overlap))
		}

		// The seed was already emitted with the previous chunk, so it can
		// be dropped when it leaves no room for the unit.
		if !fresh && bufLen > 0 && bufLen+sepLen+unitLen > c.chunkSize {
			reset("")
		}

		if bufLen > 0 {
			buf.WriteString(sep)
			bufLen += sepLen
		}
		buf.WriteString(unit)
		bufLen += unitLen
		fresh = true
	}

	if fresh {
		chunks = append(chunks, buf.String())
	}

	return c.dropShort(chunks)
}

func (c *Chunker) dropShort(chunks []string) []string {
	kept := chunks[:0]
	for _, chunk := range chunks {
		if utf8.RuneCountInString(strings.TrimSpace(chunk)) < c.minChars {
			continue
		}
		kept = append(kept, chunk)
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

// boundaryUnits splits text into trimmed, non-empty units and returns
// the separator used to rejoin them.
func boundaryUnits(text string, hint domain.DocumentType) ([]string, string) {
	var raw []string
	var sep string

	switch hint {
	case domain.DocumentTypePDF:
		raw = pageBreak.Split(text, -1)
		sep = "\n\n"
	case domain.DocumentTypeDoc:
		raw = paragraphBreak.Split(text, -1)
		sep = "\n"
	default:
		raw = splitSentences(text)
		sep = " "
	}

	units := make([]string, 0, len(raw))
	for _, u := range raw {
		u = strings.TrimSpace(u)
		if u != "" {
			units = append(units, u)
		}
	}
	return units, sep
}

// splitSentences cuts after '.', '!' or '?' when followed by whitespace.
// The terminator stays with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	prevTerminal := false

	for i, r := range text {
		if prevTerminal && unicode.IsSpace(r) {
			sentences = append(sentences, text[start:i])
			start = i
		}
		prevTerminal = r == '.' || r == '!' || r == '?'
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

// overlapTail returns the longest run of trailing whole words from chunk
// whose space-joined length fits in overlap characters.
func overlapTail(chunk string, overlap int) string {
	if overlap <= 0 {
		return ""
	}
	words := strings.Fields(chunk)

	n := 0
	first := len(words)
	for i := len(words) - 1; i >= 0; i-- {
		wl := utf8.RuneCountInString(words[i])
		if first < len(words) {
			wl++ // joining space
		}
		if n+wl > overlap {
			break
		}
		n += wl
		first = i
	}
	return strings.Join(words[first:], " ")
}
