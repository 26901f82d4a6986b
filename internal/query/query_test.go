package query_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fyrsmithlabs/documind/internal/query"
	"github.com/fyrsmithlabs/documind/internal/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	vectorstore.Store

	gotQuery string
	gotK     int
	hits     []vectorstore.SearchResult
	err      error
}

func (f *fakeSearcher) Search(_ context.Context, q string, k int) ([]vectorstore.SearchResult, error) {
	f.gotQuery = q
	f.gotK = k
	return f.hits, f.err
}

func hit(id, content, docID, filename, pages, paragraph string, score float32) vectorstore.SearchResult {
	return vectorstore.SearchResult{
		ID:      id,
		Content: content,
		Score:   score,
		Metadata: map[string]interface{}{
			"document_id": docID,
			"filename":    filename,
			"pages":       pages,
			"paragraph":   paragraph,
		},
	}
}

func TestService_Query(t *testing.T) {
	store := &fakeSearcher{hits: []vectorstore.SearchResult{
		hit("d1:0", "The penalty of 500 euros is imposed for the violation.", "d1", "order.pdf", "2,3", "4", 0.91234),
		hit("d2:0", "Background information about the company.", "d2", "annex.pdf", "1", "1", 0.55),
	}}
	svc := query.NewService(store, nil, nil)

	result, err := svc.Query(context.Background(), "  what penalty applies?  ", 0)
	require.NoError(t, err)

	assert.Equal(t, "what penalty applies?", result.Query)
	assert.Equal(t, "what penalty applies?", store.gotQuery)
	assert.Equal(t, query.DefaultK, store.gotK)

	require.Len(t, result.Passages, 2)
	top := result.Passages[0]
	assert.Equal(t, "d1", top.DocumentID)
	assert.Equal(t, "order.pdf", top.Filename)
	assert.Equal(t, []int{2, 3}, top.Pages)
	assert.Equal(t, 4, top.Paragraph)
	assert.Equal(t, 0.912, top.Score)

	assert.NotEmpty(t, result.Summary)
}

func TestService_Query_BlankQuery(t *testing.T) {
	svc := query.NewService(&fakeSearcher{}, nil, nil)

	_, err := svc.Query(context.Background(), "   ", 3)
	assert.ErrorIs(t, err, query.ErrBlankQuery)
}

func TestService_Query_CapsK(t *testing.T) {
	store := &fakeSearcher{}
	svc := query.NewService(store, nil, nil)

	_, err := svc.Query(context.Background(), "q", 5000)
	require.NoError(t, err)
	assert.Equal(t, query.MaxK, store.gotK)
}

func TestService_Query_NoHits(t *testing.T) {
	svc := query.NewService(&fakeSearcher{}, nil, nil)

	result, err := svc.Query(context.Background(), "nothing indexed yet", 3)
	require.NoError(t, err)
	assert.Empty(t, result.Passages)
	assert.Empty(t, result.Themes)
	assert.Empty(t, result.Summary)
}

func TestService_Query_SearchError(t *testing.T) {
	svc := query.NewService(&fakeSearcher{err: errors.New("store down")}, nil, nil)

	_, err := svc.Query(context.Background(), "q", 3)
	assert.ErrorContains(t, err, "store down")
}

func TestService_Query_Themes(t *testing.T) {
	store := &fakeSearcher{hits: []vectorstore.SearchResult{
		hit("d1:0", "A penalty is imposed under section 15 of the Act.", "d1", "order.pdf", "2", "1", 0.9),
		hit("d1:1", "The violation of the regulation was repeated.", "d1", "order.pdf", "3", "2", 0.8),
		hit("d2:0", "Weather was pleasant throughout the quarter.", "d2", "report.pdf", "1", "1", 0.4),
	}}
	svc := query.NewService(store, nil, nil)

	result, err := svc.Query(context.Background(), "penalty", 3)
	require.NoError(t, err)

	names := make(map[string][]string)
	for _, th := range result.Themes {
		names[th.Name] = th.Citations
	}

	require.Contains(t, names, "Penalty Justification")
	assert.Equal(t, []string{"order.pdf (page 2)"}, names["Penalty Justification"])

	require.Contains(t, names, "Regulatory Non-Compliance")
	assert.Equal(t, []string{"order.pdf (page 3)"}, names["Regulatory Non-Compliance"])

	// "section" and "act" both fire Legal Framework from the first hit
	require.Contains(t, names, "Legal Framework")
	assert.Equal(t, []string{"order.pdf (page 2)"}, names["Legal Framework"])
}

func TestService_Query_ThemeCitationCap(t *testing.T) {
	hits := make([]vectorstore.SearchResult, 5)
	for i := range hits {
		hits[i] = hit("d:0", "another fine was imposed.", "d", "orders.pdf", "1", "1", 0.5)
	}
	svc := query.NewService(&fakeSearcher{hits: hits}, nil, nil)

	result, err := svc.Query(context.Background(), "fines", 5)
	require.NoError(t, err)

	require.Len(t, result.Themes, 1)
	assert.Len(t, result.Themes[0].Citations, 3)
}

func TestSummarizer_PicksFrequentSentences(t *testing.T) {
	s := query.NewSummarizer()

	text := []string{
		"The penalty provisions apply to listed entities. " +
			"Penalty amounts are set by the adjudicating officer. " +
			"Lunch was served at noon. " +
			"The officer considered the penalty framework in detail.",
	}
	summary := s.Summarize(text, 2)

	assert.Contains(t, summary, "penalty")
	assert.NotContains(t, summary, "Lunch")
}

func TestSummarizer_Empty(t *testing.T) {
	s := query.NewSummarizer()
	assert.Equal(t, "", s.Summarize(nil, 3))
	assert.Equal(t, "", s.Summarize([]string{"   "}, 3))
}

func TestSummarizer_NoSentenceBoundary(t *testing.T) {
	s := query.NewSummarizer()
	assert.Equal(t, "just a fragment", s.Summarize([]string{"just a fragment"}, 3))
}
