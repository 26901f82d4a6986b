package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/documind/internal/extract"
	"github.com/fyrsmithlabs/documind/internal/ingest"
	"github.com/fyrsmithlabs/documind/internal/query"
	"github.com/fyrsmithlabs/documind/internal/registry"
	"github.com/fyrsmithlabs/documind/internal/vectorstore"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ListDocumentsResponse is the response body for GET /api/v1/documents.
type ListDocumentsResponse struct {
	Documents []registry.Document `json:"documents"`
	Count     int                 `json:"count"`
}

// DebugCollectionsResponse is the response body for GET /debug/collections.
type DebugCollectionsResponse struct {
	Collection *vectorstore.CollectionInfo `json:"collection"`
	Documents  []registry.Document         `json:"documents"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleUpload ingests a multipart file upload.
func (s *Server) handleUpload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field 'file' is required")
	}

	if fileHeader.Size > s.maxUpload {
		return echo.NewHTTPError(http.StatusBadRequest, "file exceeds maximum upload size")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot open uploaded file")
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, s.maxUpload+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}

	contentType := fileHeader.Header.Get("Content-Type")

	receipt, err := s.ingestor.Ingest(c.Request().Context(), fileHeader.Filename, contentType, content)
	if err != nil {
		if isClientIngestError(err) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		s.logger.Error("ingestion failed",
			zap.String("filename", fileHeader.Filename),
			zap.Error(err),
		)
		return echo.NewHTTPError(http.StatusInternalServerError, "ingestion failed")
	}

	return c.JSON(http.StatusCreated, receipt)
}

// isClientIngestError reports whether an ingestion error was caused by
// the upload itself rather than the service.
func isClientIngestError(err error) bool {
	return errors.Is(err, ingest.ErrUnsupportedFile) ||
		errors.Is(err, ingest.ErrFileTooLarge) ||
		errors.Is(err, ingest.ErrEmptyFile) ||
		errors.Is(err, ingest.ErrNoChunks) ||
		errors.Is(err, extract.ErrNoText) ||
		errors.Is(err, extract.ErrUnsupportedType) ||
		errors.Is(err, extract.ErrOCRUnavailable)
}

// handleSearch answers a query with passages, themes and a summary.
func (s *Server) handleSearch(c echo.Context) error {
	q := c.QueryParam("q")

	k := 0
	if raw := c.QueryParam("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "k must be a non-negative integer")
		}
		k = parsed
	}

	result, err := s.querier.Query(c.Request().Context(), q, k)
	if err != nil {
		if errors.Is(err, query.ErrBlankQuery) {
			return echo.NewHTTPError(http.StatusBadRequest, "query parameter 'q' is required")
		}
		s.logger.Error("search failed", zap.String("query", q), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	return c.JSON(http.StatusOK, result)
}

// handleListDocuments lists catalog entries, newest first.
func (s *Server) handleListDocuments(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = parsed
	}

	docs, err := s.catalog.List(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error("listing documents failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "listing documents failed")
	}
	if docs == nil {
		docs = []registry.Document{}
	}

	return c.JSON(http.StatusOK, ListDocumentsResponse{Documents: docs, Count: len(docs)})
}

// handleGetDocument returns a single catalog entry.
func (s *Server) handleGetDocument(c echo.Context) error {
	id := c.Param("id")

	doc, err := s.catalog.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "document not found")
		}
		s.logger.Error("getting document failed", zap.String("id", id), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "getting document failed")
	}

	return c.JSON(http.StatusOK, doc)
}

// handleDeleteDocument removes a document and its chunks.
func (s *Server) handleDeleteDocument(c echo.Context) error {
	id := c.Param("id")

	if err := s.ingestor.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "document not found")
		}
		s.logger.Error("deleting document failed", zap.String("id", id), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "deleting document failed")
	}

	return c.NoContent(http.StatusNoContent)
}

// handleDebugCollections exposes a peek into the index: collection point
// count plus the most recent catalog entries.
func (s *Server) handleDebugCollections(c echo.Context) error {
	resp := DebugCollectionsResponse{}

	if s.store != nil {
		info, err := s.store.CollectionInfo(c.Request().Context())
		if err != nil && !errors.Is(err, vectorstore.ErrCollectionNotFound) {
			s.logger.Error("collection info failed", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "collection info failed")
		}
		resp.Collection = info
	}

	docs, err := s.catalog.List(c.Request().Context(), 5)
	if err != nil {
		s.logger.Error("listing documents failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "listing documents failed")
	}
	if docs == nil {
		docs = []registry.Document{}
	}
	resp.Documents = docs

	return c.JSON(http.StatusOK, resp)
}
