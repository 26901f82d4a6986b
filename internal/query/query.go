// Package query answers questions over the indexed corpus: similarity
// search, citation-carrying passages, theme identification and a short
// cross-document summary.
package query

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/documind/internal/vectorstore"
)

const (
	// DefaultK is the number of passages returned when the caller does
	// not specify one.
	DefaultK = 3

	// MaxK caps the number of passages per query.
	MaxK = 100
)

// ErrBlankQuery is returned for empty or whitespace-only queries.
var ErrBlankQuery = errors.New("query cannot be blank")

// Passage is one retrieved chunk with its citation data.
type Passage struct {
	// Text is the chunk content.
	Text string `json:"text"`

	// DocumentID identifies the source document.
	DocumentID string `json:"document_id"`

	// Filename is the source document's upload filename.
	Filename string `json:"filename"`

	// Pages lists the 1-based page numbers the passage spans.
	Pages []int `json:"pages"`

	// Paragraph is the 1-based paragraph ordinal on the first page.
	Paragraph int `json:"paragraph"`

	// Score is the similarity score, higher is better, rounded to three
	// decimals.
	Score float64 `json:"score"`
}

// Result is the complete answer to a query.
type Result struct {
	// Query echoes the question asked.
	Query string `json:"query"`

	// Passages are the retrieved chunks, most similar first.
	Passages []Passage `json:"passages"`

	// Themes are keyword-driven topic groupings with citations.
	Themes []Theme `json:"themes"`

	// Summary is a short extractive summary of the matched passages.
	Summary string `json:"summary,omitempty"`
}

// Service answers queries against the vector store.
type Service struct {
	store      vectorstore.Store
	themes     []ThemeRule
	summarizer *Summarizer
	logger     *zap.Logger
}

// NewService creates a query service. Passing nil rules selects the
// default theme table.
func NewService(store vectorstore.Store, rules []ThemeRule, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rules == nil {
		rules = DefaultThemeRules()
	}
	return &Service{
		store:      store,
		themes:     rules,
		summarizer: NewSummarizer(),
		logger:     logger,
	}
}

// Query retrieves the k most similar passages for q and assembles themes
// and a summary over them. k <= 0 selects DefaultK; k > MaxK is capped.
func (s *Service) Query(ctx context.Context, q string, k int) (*Result, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ErrBlankQuery
	}
	if k <= 0 {
		k = DefaultK
	}
	if k > MaxK {
		k = MaxK
	}

	start := time.Now()
	hits, err := s.store.Search(ctx, q, k)
	if err != nil {
		return nil, fmt.Errorf("searching for %q: %w", q, err)
	}

	passages := make([]Passage, 0, len(hits))
	for _, hit := range hits {
		passages = append(passages, passageFromHit(hit))
	}

	result := &Result{
		Query:    q,
		Passages: passages,
		Themes:   identifyThemes(s.themes, passages),
	}
	if len(passages) > 0 {
		result.Summary = s.summarizer.Summarize(passageTexts(passages), 3)
	}

	s.logger.Info("query answered",
		zap.String("query", q),
		zap.Int("k", k),
		zap.Int("passages", len(passages)),
		zap.Int("themes", len(result.Themes)),
		zap.Duration("duration", time.Since(start)),
	)

	return result, nil
}

// passageFromHit maps a search result and its chunk metadata to a Passage.
func passageFromHit(hit vectorstore.SearchResult) Passage {
	return Passage{
		Text:       hit.Content,
		DocumentID: metadataString(hit.Metadata, "document_id"),
		Filename:   metadataString(hit.Metadata, "filename"),
		Pages:      parsePages(metadataString(hit.Metadata, "pages")),
		Paragraph:  metadataInt(hit.Metadata, "paragraph"),
		Score:      math.Round(float64(hit.Score)*1000) / 1000,
	}
}

func passageTexts(passages []Passage) []string {
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	return texts
}

func metadataString(metadata map[string]interface{}, key string) string {
	if metadata == nil {
		return ""
	}
	if v, ok := metadata[key].(string); ok {
		return v
	}
	return ""
}

// metadataInt reads an integer metadata value. chromem round-trips
// metadata as strings while qdrant preserves integers, so both forms are
// accepted.
func metadataInt(metadata map[string]interface{}, key string) int {
	if metadata == nil {
		return 0
	}
	switch v := metadata[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return 0
}

// parsePages parses the "1,2,3" metadata form back into page numbers.
func parsePages(raw string) []int {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	pages := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		pages = append(pages, n)
	}
	return pages
}
