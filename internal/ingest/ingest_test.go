package ingest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fyrsmithlabs/documind/internal/chunker"
	"github.com/fyrsmithlabs/documind/internal/config"
	"github.com/fyrsmithlabs/documind/internal/extract"
	"github.com/fyrsmithlabs/documind/internal/ingest"
	"github.com/fyrsmithlabs/documind/internal/registry"
	"github.com/fyrsmithlabs/documind/internal/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	result extract.Result
	err    error
}

func (f *fakeExtractor) Extract(_ context.Context, _ string, _ []byte) (extract.Result, error) {
	return f.result, f.err
}

type fakeStore struct {
	added      []vectorstore.Document
	deletedDoc []string
	addErr     error
}

func (f *fakeStore) AddDocuments(_ context.Context, docs []vectorstore.Document) ([]string, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.added = append(f.added, docs...)
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

func (f *fakeStore) Search(context.Context, string, int) ([]vectorstore.SearchResult, error) {
	return nil, nil
}

func (f *fakeStore) SearchWithFilters(context.Context, string, int, map[string]interface{}) ([]vectorstore.SearchResult, error) {
	return nil, nil
}

func (f *fakeStore) DeleteDocuments(context.Context, []string) error { return nil }

func (f *fakeStore) DeleteByDocumentID(_ context.Context, documentID string) error {
	f.deletedDoc = append(f.deletedDoc, documentID)
	return nil
}

func (f *fakeStore) CollectionInfo(context.Context) (*vectorstore.CollectionInfo, error) {
	return &vectorstore.CollectionInfo{Name: "test", PointCount: len(f.added)}, nil
}

func (f *fakeStore) Close() error { return nil }

type fakeCatalog struct {
	docs   map[string]registry.Document
	putErr error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{docs: map[string]registry.Document{}}
}

func (f *fakeCatalog) Put(_ context.Context, doc registry.Document) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeCatalog) Get(_ context.Context, id string) (registry.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return registry.Document{}, registry.ErrNotFound
	}
	return doc, nil
}

func (f *fakeCatalog) Delete(_ context.Context, id string) error {
	if _, ok := f.docs[id]; !ok {
		return registry.ErrNotFound
	}
	delete(f.docs, id)
	return nil
}

func testIngestConfig() config.IngestConfig {
	return config.IngestConfig{
		ChunkSize:         1000,
		ChunkOverlap:      200,
		MaxUploadBytes:    1024,
		AllowedExtensions: []string{".pdf", ".png"},
		MinCharsPerPage:   50,
	}
}

func newTestService(extractor ingest.Extractor, store *fakeStore, catalog *fakeCatalog) *ingest.Service {
	return ingest.NewService(extractor, chunker.New(1000, 200), store, catalog, testIngestConfig(), nil)
}

func TestService_Ingest(t *testing.T) {
	extractor := &fakeExtractor{result: extract.Result{
		Method: extract.MethodPDFText,
		Pages: []extract.Page{
			{Number: 1, Text: "The administrative fine is due within sixty days."},
			{Number: 2, Text: "Appeals are governed by section nine."},
		},
	}}
	store := &fakeStore{}
	catalog := newFakeCatalog()
	svc := newTestService(extractor, store, catalog)

	receipt, err := svc.Ingest(context.Background(), "notice.pdf", "application/pdf", []byte("%PDF-1.7"))
	require.NoError(t, err)

	assert.NotEmpty(t, receipt.DocumentID)
	assert.Equal(t, "notice.pdf", receipt.Filename)
	assert.Equal(t, extract.MethodPDFText, receipt.Method)
	assert.Equal(t, 2, receipt.Pages)
	assert.Equal(t, 1, receipt.ChunksStored)

	require.Len(t, store.added, 1)
	stored := store.added[0]
	assert.Equal(t, receipt.DocumentID+":0", stored.ID)
	assert.Equal(t, receipt.DocumentID, stored.Metadata["document_id"])
	assert.Equal(t, "notice.pdf", stored.Metadata["filename"])
	assert.Equal(t, "1,2", stored.Metadata["pages"])
	assert.Equal(t, 0, stored.Metadata["chunk_index"])
	assert.NotEmpty(t, stored.Metadata["upload_date"])

	doc, err := catalog.Get(context.Background(), receipt.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, 1, doc.ChunkCount)
	assert.Equal(t, int64(8), doc.SizeBytes)
}

func TestService_Ingest_UnsupportedExtension(t *testing.T) {
	svc := newTestService(&fakeExtractor{}, &fakeStore{}, newFakeCatalog())

	_, err := svc.Ingest(context.Background(), "notes.docx", "application/msword", []byte("data"))
	assert.ErrorIs(t, err, ingest.ErrUnsupportedFile)
}

func TestService_Ingest_TooLarge(t *testing.T) {
	svc := newTestService(&fakeExtractor{}, &fakeStore{}, newFakeCatalog())

	big := make([]byte, 2048)
	_, err := svc.Ingest(context.Background(), "big.pdf", "application/pdf", big)
	assert.ErrorIs(t, err, ingest.ErrFileTooLarge)
}

func TestService_Ingest_EmptyFile(t *testing.T) {
	svc := newTestService(&fakeExtractor{}, &fakeStore{}, newFakeCatalog())

	_, err := svc.Ingest(context.Background(), "empty.pdf", "application/pdf", nil)
	assert.ErrorIs(t, err, ingest.ErrEmptyFile)
}

func TestService_Ingest_ExtractionError(t *testing.T) {
	extractor := &fakeExtractor{err: extract.ErrNoText}
	store := &fakeStore{}
	svc := newTestService(extractor, store, newFakeCatalog())

	_, err := svc.Ingest(context.Background(), "blank.pdf", "application/pdf", []byte("%PDF-"))
	assert.ErrorIs(t, err, extract.ErrNoText)
	assert.Empty(t, store.added)
}

func TestService_Ingest_NoChunks(t *testing.T) {
	extractor := &fakeExtractor{result: extract.Result{
		Method: extract.MethodPDFText,
		Pages:  []extract.Page{{Number: 1, Text: "   "}},
	}}
	svc := newTestService(extractor, &fakeStore{}, newFakeCatalog())

	_, err := svc.Ingest(context.Background(), "blank.pdf", "application/pdf", []byte("%PDF-"))
	assert.ErrorIs(t, err, ingest.ErrNoChunks)
}

func TestService_Ingest_CatalogFailureRollsBack(t *testing.T) {
	extractor := &fakeExtractor{result: extract.Result{
		Method: extract.MethodPDFText,
		Pages:  []extract.Page{{Number: 1, Text: "Some extracted text worth indexing."}},
	}}
	store := &fakeStore{}
	catalog := newFakeCatalog()
	catalog.putErr = errors.New("disk full")
	svc := newTestService(extractor, store, catalog)

	_, err := svc.Ingest(context.Background(), "notice.pdf", "application/pdf", []byte("%PDF-"))
	require.Error(t, err)

	// Chunks written before the catalog failure are removed again.
	require.Len(t, store.deletedDoc, 1)
}

func TestService_Delete(t *testing.T) {
	store := &fakeStore{}
	catalog := newFakeCatalog()
	catalog.docs["doc-1"] = registry.Document{ID: "doc-1", Filename: "a.pdf"}
	svc := newTestService(&fakeExtractor{}, store, catalog)

	require.NoError(t, svc.Delete(context.Background(), "doc-1"))
	assert.Equal(t, []string{"doc-1"}, store.deletedDoc)
	_, err := catalog.Get(context.Background(), "doc-1")
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestService_Delete_Missing(t *testing.T) {
	svc := newTestService(&fakeExtractor{}, &fakeStore{}, newFakeCatalog())

	err := svc.Delete(context.Background(), "ghost")
	assert.ErrorIs(t, err, registry.ErrNotFound)
}
