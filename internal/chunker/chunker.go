// Package chunker splits extracted text into overlapping windows and
// tags each window with its page and paragraph provenance.
//
// The actual splitting is delegated to langchaingo's recursive character
// splitter; this package owns the bookkeeping that maps every chunk back
// to the pages it came from so that query results can cite them.
package chunker

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/documind/internal/extract"
	"github.com/tmc/langchaingo/textsplitter"
)

// Chunk is a bounded span of extracted text with provenance.
type Chunk struct {
	// ID is "{documentID}:{index}".
	ID string

	// DocumentID identifies the source document.
	DocumentID string

	// Index is the 0-based position of the chunk within the document.
	Index int

	// Text is the chunk content.
	Text string

	// Pages lists the 1-based page numbers the chunk spans, in order.
	Pages []int

	// Paragraph is the 1-based paragraph ordinal of the chunk start
	// within its first page.
	Paragraph int
}

// Chunker splits page text into overlapping chunks.
type Chunker struct {
	splitter textsplitter.RecursiveCharacter
}

// New creates a chunker with the given window size and overlap, both in
// characters.
func New(size, overlap int) *Chunker {
	return &Chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
			textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
		),
	}
}

// pageSpan records the byte range a page occupies in the joined text.
type pageSpan struct {
	number int
	text   string
	start  int
	end    int
}

// Chunk splits the document's pages into chunks. Pages are joined with a
// blank line so paragraph boundaries survive; each resulting chunk is
// located in the joined text to recover the pages it intersects.
//
// Empty input yields no chunks and no error.
func (c *Chunker) Chunk(documentID string, pages []extract.Page) ([]Chunk, error) {
	spans, joined := joinPages(pages)
	if strings.TrimSpace(joined) == "" {
		return nil, nil
	}

	pieces, err := c.splitter.SplitText(joined)
	if err != nil {
		return nil, fmt.Errorf("splitting text: %w", err)
	}

	chunks := make([]Chunk, 0, len(pieces))
	cursor := 0
	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}

		start := locate(joined, piece, cursor)
		end := start + len(piece)

		chunk := Chunk{
			DocumentID: documentID,
			Index:      len(chunks),
			Text:       piece,
			Pages:      intersectingPages(spans, start, end),
			Paragraph:  paragraphOrdinal(spans, start),
		}
		chunk.ID = fmt.Sprintf("%s:%d", documentID, chunk.Index)
		chunks = append(chunks, chunk)

		// Overlapping chunks may start before the previous one ended, so
		// only move the cursor one byte past the current start.
		cursor = start + 1
	}

	return chunks, nil
}

// locate finds the byte offset of piece in joined, searching forward from
// cursor first so repeated text resolves to the next occurrence.
func locate(joined, piece string, cursor int) int {
	if cursor < len(joined) {
		if idx := strings.Index(joined[cursor:], piece); idx >= 0 {
			return cursor + idx
		}
	}
	if idx := strings.Index(joined, piece); idx >= 0 {
		return idx
	}
	// The splitter normalized whitespace in a way that broke exact
	// matching; fall back to the cursor so provenance degrades to the
	// nearest page instead of failing the ingest.
	if cursor > len(joined) {
		return len(joined)
	}
	return cursor
}

// joinPages concatenates page texts with blank-line separators and
// records the span each page occupies.
func joinPages(pages []extract.Page) ([]pageSpan, string) {
	var b strings.Builder
	spans := make([]pageSpan, 0, len(pages))

	for _, p := range pages {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		start := b.Len()
		b.WriteString(text)
		spans = append(spans, pageSpan{
			number: p.Number,
			text:   text,
			start:  start,
			end:    b.Len(),
		})
	}

	return spans, b.String()
}

// intersectingPages returns the page numbers whose spans overlap
// [start, end).
func intersectingPages(spans []pageSpan, start, end int) []int {
	var pages []int
	for _, s := range spans {
		if s.start < end && start < s.end {
			pages = append(pages, s.number)
		}
	}
	if len(pages) == 0 && len(spans) > 0 {
		// Chunk start fell on a separator; attribute it to the last page
		// beginning at or before start.
		last := spans[0].number
		for _, s := range spans {
			if s.start <= start {
				last = s.number
			}
		}
		pages = []int{last}
	}
	return pages
}

// paragraphOrdinal returns the 1-based paragraph index of the offset
// within the page it falls on.
func paragraphOrdinal(spans []pageSpan, offset int) int {
	for _, s := range spans {
		if offset >= s.start && offset < s.end {
			return strings.Count(s.text[:offset-s.start], "\n\n") + 1
		}
	}
	return 1
}
