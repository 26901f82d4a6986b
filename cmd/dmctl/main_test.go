package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckStatus(t *testing.T) {
	t.Run("matching status passes", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		resp, err := http.Get(srv.URL)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.NoError(t, checkStatus(resp, http.StatusOK))
	})

	t.Run("error includes body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "file exceeds maximum upload size", http.StatusBadRequest)
		}))
		defer srv.Close()

		resp, err := http.Get(srv.URL)
		require.NoError(t, err)
		defer resp.Body.Close()

		err = checkStatus(resp, http.StatusCreated)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "400")
		assert.Contains(t, err.Error(), "file exceeds maximum upload size")
	})
}

func TestJoinPages(t *testing.T) {
	assert.Equal(t, "1, 2", joinPages([]int{1, 2}))
	assert.Equal(t, "7", joinPages([]int{7}))
	assert.Equal(t, "?", joinPages(nil))
}

func TestUploadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/documents", r.URL.Path)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "notice.pdf", header.Filename)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"document_id":"doc-1","filename":"notice.pdf","chunks_stored":4,"pages":2,"method":"pdf-text"}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "notice.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7"), 0644))

	old := serverURL
	serverURL = srv.URL
	defer func() { serverURL = old }()

	receipt, err := uploadFile(srv.Client(), path)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", receipt.DocumentID)
	assert.Equal(t, 4, receipt.ChunksStored)
	assert.Equal(t, "pdf-text", receipt.Method)
}
