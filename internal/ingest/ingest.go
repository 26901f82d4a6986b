// Package ingest runs the upload pipeline: validate, extract, chunk,
// embed, index, catalog.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/documind/internal/chunker"
	"github.com/fyrsmithlabs/documind/internal/config"
	"github.com/fyrsmithlabs/documind/internal/extract"
	"github.com/fyrsmithlabs/documind/internal/registry"
	"github.com/fyrsmithlabs/documind/internal/vectorstore"
)

var (
	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")

	// ErrUnsupportedFile is returned for disallowed file extensions.
	ErrUnsupportedFile = errors.New("unsupported file type")

	// ErrEmptyFile is returned for zero-byte uploads.
	ErrEmptyFile = errors.New("file is empty")

	// ErrNoChunks is returned when extraction produced text but chunking
	// yielded nothing to index.
	ErrNoChunks = errors.New("no chunks produced from document")
)

// Extractor converts file content into text pages.
type Extractor interface {
	Extract(ctx context.Context, filename string, content []byte) (extract.Result, error)
}

// Splitter splits extracted pages into provenance-tagged chunks.
type Splitter interface {
	Chunk(documentID string, pages []extract.Page) ([]chunker.Chunk, error)
}

// Catalog records uploaded documents.
type Catalog interface {
	Put(ctx context.Context, doc registry.Document) error
	Get(ctx context.Context, id string) (registry.Document, error)
	Delete(ctx context.Context, id string) error
}

// Receipt summarizes a completed ingestion.
type Receipt struct {
	// DocumentID is the UUID assigned to the document.
	DocumentID string `json:"document_id"`

	// Filename is the original upload filename.
	Filename string `json:"filename"`

	// ChunksStored is the number of chunks indexed.
	ChunksStored int `json:"chunks_stored"`

	// Pages is the number of pages with extracted text.
	Pages int `json:"pages"`

	// Method records how text was extracted.
	Method string `json:"method"`
}

// Service orchestrates the ingestion pipeline.
type Service struct {
	extractor Extractor
	splitter  Splitter
	store     vectorstore.Store
	catalog   Catalog
	cfg       config.IngestConfig
	logger    *zap.Logger
	metrics   *Metrics
}

// NewService creates an ingestion service.
func NewService(extractor Extractor, splitter Splitter, store vectorstore.Store, catalog Catalog, cfg config.IngestConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		extractor: extractor,
		splitter:  splitter,
		store:     store,
		catalog:   catalog,
		cfg:       cfg,
		logger:    logger,
		metrics:   NewMetrics(logger),
	}
}

// Ingest runs the full pipeline for one uploaded file and returns a
// receipt describing what was stored.
func (s *Service) Ingest(ctx context.Context, filename, contentType string, content []byte) (*Receipt, error) {
	start := time.Now()
	method := "unknown"
	var ingestErr error
	defer func() {
		s.metrics.RecordIngest(ctx, method, time.Since(start), ingestErr)
	}()

	if err := s.validate(filename, content); err != nil {
		ingestErr = err
		return nil, err
	}

	docID := uuid.NewString()

	extractStart := time.Now()
	result, err := s.extractor.Extract(ctx, filename, content)
	if err != nil {
		ingestErr = err
		return nil, fmt.Errorf("extracting %s: %w", filename, err)
	}
	method = result.Method

	chunkStart := time.Now()
	chunks, err := s.splitter.Chunk(docID, result.Pages)
	if err != nil {
		ingestErr = err
		return nil, fmt.Errorf("chunking %s: %w", filename, err)
	}
	if len(chunks) == 0 {
		ingestErr = ErrNoChunks
		return nil, fmt.Errorf("%w: %s", ErrNoChunks, filename)
	}

	uploadDate := time.Now().UTC().Format(time.RFC3339)
	docs := make([]vectorstore.Document, len(chunks))
	for i, ch := range chunks {
		docs[i] = vectorstore.Document{
			ID:      ch.ID,
			Content: ch.Text,
			Metadata: map[string]interface{}{
				"document_id": ch.DocumentID,
				"filename":    filename,
				"pages":       joinPages(ch.Pages),
				"paragraph":   ch.Paragraph,
				"chunk_index": ch.Index,
				"upload_date": uploadDate,
			},
		}
	}

	indexStart := time.Now()
	if _, err := s.store.AddDocuments(ctx, docs); err != nil {
		ingestErr = err
		return nil, fmt.Errorf("indexing %s: %w", filename, err)
	}

	doc := registry.Document{
		ID:          docID,
		Filename:    filename,
		ContentType: contentType,
		Method:      result.Method,
		Pages:       len(result.Pages),
		ChunkCount:  len(chunks),
		SizeBytes:   int64(len(content)),
		UploadedAt:  time.Now(),
	}
	if err := s.catalog.Put(ctx, doc); err != nil {
		// The vectors are stored; roll them back so a catalog failure
		// doesn't leave orphaned chunks.
		if delErr := s.store.DeleteByDocumentID(ctx, docID); delErr != nil {
			s.logger.Error("failed to roll back chunks after catalog failure",
				zap.String("document_id", docID),
				zap.Error(delErr),
			)
		}
		ingestErr = err
		return nil, fmt.Errorf("cataloging %s: %w", filename, err)
	}

	s.metrics.RecordChunks(ctx, method, len(chunks))

	s.logger.Info("document ingested",
		zap.String("document_id", docID),
		zap.String("filename", filename),
		zap.String("method", result.Method),
		zap.Int("pages", len(result.Pages)),
		zap.Int("chunks", len(chunks)),
		zap.Duration("extract_duration", chunkStart.Sub(extractStart)),
		zap.Duration("chunk_duration", indexStart.Sub(chunkStart)),
		zap.Duration("index_duration", time.Since(indexStart)),
		zap.Duration("total_duration", time.Since(start)),
	)

	return &Receipt{
		DocumentID:   docID,
		Filename:     filename,
		ChunksStored: len(chunks),
		Pages:        len(result.Pages),
		Method:       result.Method,
	}, nil
}

// Delete removes a document's chunks from the vector store and its
// catalog entry. Returns registry.ErrNotFound for unknown documents.
func (s *Service) Delete(ctx context.Context, documentID string) error {
	if _, err := s.catalog.Get(ctx, documentID); err != nil {
		return err
	}

	if err := s.store.DeleteByDocumentID(ctx, documentID); err != nil {
		return fmt.Errorf("deleting chunks for %s: %w", documentID, err)
	}

	if err := s.catalog.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("deleting catalog entry for %s: %w", documentID, err)
	}

	s.logger.Info("document deleted", zap.String("document_id", documentID))
	return nil
}

func (s *Service) validate(filename string, content []byte) error {
	if len(content) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyFile, filename)
	}
	if int64(len(content)) > s.cfg.MaxUploadBytes {
		return fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrFileTooLarge, filename, len(content), s.cfg.MaxUploadBytes)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range s.cfg.AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %s (allowed: %s)", ErrUnsupportedFile, ext, strings.Join(s.cfg.AllowedExtensions, ", "))
}

// joinPages renders a page list as "1,2,3" for chunk metadata.
func joinPages(pages []int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}
