package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/documind/internal/config"
	"github.com/fyrsmithlabs/documind/internal/ingest"
	"github.com/fyrsmithlabs/documind/internal/query"
	"github.com/fyrsmithlabs/documind/internal/registry"
	"github.com/fyrsmithlabs/documind/internal/server"
	"github.com/fyrsmithlabs/documind/internal/vectorstore"
)

type fakeIngestor struct {
	receipt   *ingest.Receipt
	ingestErr error
	deleteErr error
	deleted   []string
}

func (f *fakeIngestor) Ingest(_ context.Context, filename, _ string, _ []byte) (*ingest.Receipt, error) {
	if f.ingestErr != nil {
		return nil, f.ingestErr
	}
	if f.receipt != nil {
		return f.receipt, nil
	}
	return &ingest.Receipt{DocumentID: "doc-1", Filename: filename, ChunksStored: 2, Pages: 1, Method: "pdf-text"}, nil
}

func (f *fakeIngestor) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeQuerier struct {
	result *query.Result
	err    error
}

func (f *fakeQuerier) Query(_ context.Context, q string, _ int) (*query.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &query.Result{Query: q, Passages: []query.Passage{}}, nil
}

type fakeCatalog struct {
	docs   []registry.Document
	getErr error
}

func (f *fakeCatalog) List(_ context.Context, limit int) ([]registry.Document, error) {
	if limit > 0 && limit < len(f.docs) {
		return f.docs[:limit], nil
	}
	return f.docs, nil
}

func (f *fakeCatalog) Get(_ context.Context, id string) (registry.Document, error) {
	if f.getErr != nil {
		return registry.Document{}, f.getErr
	}
	for _, d := range f.docs {
		if d.ID == id {
			return d, nil
		}
	}
	return registry.Document{}, registry.ErrNotFound
}

type stubStore struct {
	vectorstore.Store

	info *vectorstore.CollectionInfo
	err  error
}

func (s *stubStore) CollectionInfo(context.Context) (*vectorstore.CollectionInfo, error) {
	return s.info, s.err
}

func newTestServer(t *testing.T, ingestor server.Ingestor, querier server.Querier, catalog server.Catalog, store vectorstore.Store) *server.Server {
	t.Helper()
	srv, err := server.NewServer(ingestor, querier, catalog, store, config.ServerConfig{Host: "localhost", Port: 0}, 1024, zap.NewNop())
	require.NoError(t, err)
	return srv
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, &fakeIngestor{}, &fakeQuerier{}, &fakeCatalog{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_Upload(t *testing.T) {
	srv := newTestServer(t, &fakeIngestor{}, &fakeQuerier{}, &fakeCatalog{}, nil)

	body, contentType := multipartBody(t, "notice.pdf", []byte("%PDF-1.7"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var receipt ingest.Receipt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))
	assert.Equal(t, "doc-1", receipt.DocumentID)
	assert.Equal(t, "notice.pdf", receipt.Filename)
	assert.Equal(t, 2, receipt.ChunksStored)
}

func TestServer_Upload_MissingFile(t *testing.T) {
	srv := newTestServer(t, &fakeIngestor{}, &fakeQuerier{}, &fakeCatalog{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", nil)
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Upload_ClientErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"unsupported type", ingest.ErrUnsupportedFile},
		{"too large", ingest.ErrFileTooLarge},
		{"empty", ingest.ErrEmptyFile},
		{"no chunks", ingest.ErrNoChunks},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeIngestor{ingestErr: tt.err}, &fakeQuerier{}, &fakeCatalog{}, nil)

			body, contentType := multipartBody(t, "bad.pdf", []byte("x"))
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
			req.Header.Set("Content-Type", contentType)
			srv.Handler().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestServer_Search(t *testing.T) {
	querier := &fakeQuerier{result: &query.Result{
		Query: "penalty",
		Passages: []query.Passage{
			{Text: "the penalty is 500", DocumentID: "d1", Filename: "order.pdf", Pages: []int{2}, Paragraph: 1, Score: 0.9},
		},
		Themes: []query.Theme{
			{Name: "Penalty Justification", Description: "Documents discussing penalty justification.", Citations: []string{"order.pdf (page 2)"}},
		},
		Summary: "the penalty is 500",
	}}
	srv := newTestServer(t, &fakeIngestor{}, querier, &fakeCatalog{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=penalty&k=3", nil)
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result query.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Passages, 1)
	assert.Equal(t, []int{2}, result.Passages[0].Pages)
	require.Len(t, result.Themes, 1)
	assert.Equal(t, "Penalty Justification", result.Themes[0].Name)
}

func TestServer_Search_BlankQuery(t *testing.T) {
	srv := newTestServer(t, &fakeIngestor{}, &fakeQuerier{err: query.ErrBlankQuery}, &fakeCatalog{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Search_BadK(t *testing.T) {
	srv := newTestServer(t, &fakeIngestor{}, &fakeQuerier{}, &fakeCatalog{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=x&k=banana", nil)
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ListDocuments(t *testing.T) {
	catalog := &fakeCatalog{docs: []registry.Document{
		{ID: "d1", Filename: "a.pdf"},
		{ID: "d2", Filename: "b.pdf"},
	}}
	srv := newTestServer(t, &fakeIngestor{}, &fakeQuerier{}, catalog, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp server.ListDocumentsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}

func TestServer_GetDocument(t *testing.T) {
	catalog := &fakeCatalog{docs: []registry.Document{{ID: "d1", Filename: "a.pdf"}}}
	srv := newTestServer(t, &fakeIngestor{}, &fakeQuerier{}, catalog, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/d1", nil)
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var doc registry.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "a.pdf", doc.Filename)
}

func TestServer_GetDocument_NotFound(t *testing.T) {
	srv := newTestServer(t, &fakeIngestor{}, &fakeQuerier{}, &fakeCatalog{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/ghost", nil)
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_DeleteDocument(t *testing.T) {
	ingestor := &fakeIngestor{}
	srv := newTestServer(t, ingestor, &fakeQuerier{}, &fakeCatalog{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/documents/d1", nil)
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"d1"}, ingestor.deleted)
}

func TestServer_DeleteDocument_NotFound(t *testing.T) {
	srv := newTestServer(t, &fakeIngestor{deleteErr: registry.ErrNotFound}, &fakeQuerier{}, &fakeCatalog{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/documents/ghost", nil)
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_DebugCollections(t *testing.T) {
	store := &stubStore{info: &vectorstore.CollectionInfo{Name: "documind_chunks", PointCount: 42, VectorSize: 384}}
	catalog := &fakeCatalog{docs: []registry.Document{{ID: "d1", Filename: "a.pdf", ChunkCount: 42}}}
	srv := newTestServer(t, &fakeIngestor{}, &fakeQuerier{}, catalog, store)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/debug/collections", nil)
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp server.DebugCollectionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Collection)
	assert.Equal(t, 42, resp.Collection.PointCount)
	require.Len(t, resp.Documents, 1)
}

func TestServer_DebugCollections_EmptyStore(t *testing.T) {
	store := &stubStore{err: vectorstore.ErrCollectionNotFound}
	srv := newTestServer(t, &fakeIngestor{}, &fakeQuerier{}, &fakeCatalog{}, store)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/debug/collections", nil)
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp server.DebugCollectionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Collection)
}

func TestServer_Metrics(t *testing.T) {
	srv := newTestServer(t, &fakeIngestor{}, &fakeQuerier{}, &fakeCatalog{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
