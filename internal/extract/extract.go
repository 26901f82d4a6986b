// Package extract converts uploaded documents into text with page
// provenance.
//
// Native PDFs are read through their text layer. Scanned PDFs and image
// files are routed through an external OCR service. The package never
// implements recognition itself; it decides which backend to call and
// preserves page numbers for citation assembly downstream.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Extraction methods, recorded per document for observability and the
// document catalog.
const (
	MethodPDFText  = "pdf-text"
	MethodPDFOCR   = "pdf-ocr"
	MethodImageOCR = "image-ocr"
)

var (
	// ErrNoText is returned when no text could be extracted from a document.
	ErrNoText = errors.New("no text extracted from document")

	// ErrUnsupportedType is returned for file types the extractor cannot handle.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrOCRUnavailable is returned when a document needs OCR but no OCR
	// service is configured.
	ErrOCRUnavailable = errors.New("document requires OCR but no OCR service is configured")
)

// Page is a single page of extracted text.
type Page struct {
	// Number is the 1-based page number in the source document.
	Number int `json:"number"`

	// Text is the extracted text of the page.
	Text string `json:"text"`
}

// Result is the outcome of extracting one document.
type Result struct {
	Pages  []Page
	Method string
}

// Chars returns the total number of extracted characters across pages.
func (r Result) Chars() int {
	n := 0
	for _, p := range r.Pages {
		n += len(p.Text)
	}
	return n
}

// Service extracts text from uploaded documents.
type Service struct {
	ocr             OCRClient
	minCharsPerPage int
	logger          *zap.Logger
}

// NewService creates an extraction service. ocr may be nil, in which case
// scanned PDFs and images are rejected with ErrOCRUnavailable.
func NewService(ocr OCRClient, minCharsPerPage int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if minCharsPerPage <= 0 {
		minCharsPerPage = 50
	}
	return &Service{
		ocr:             ocr,
		minCharsPerPage: minCharsPerPage,
		logger:          logger,
	}
}

// Extract extracts text from the given file content. The file type is
// determined by the filename extension.
func (s *Service) Extract(ctx context.Context, filename string, content []byte) (Result, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".pdf":
		return s.extractPDF(ctx, filename, content)
	case ".png", ".jpg", ".jpeg":
		return s.extractImage(ctx, filename, content, ext)
	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
}

func (s *Service) extractPDF(ctx context.Context, filename string, content []byte) (Result, error) {
	pages, err := readPDFText(content)
	if err != nil {
		return Result{}, fmt.Errorf("reading pdf %s: %w", filename, err)
	}

	if !s.looksScanned(pages) {
		return Result{Pages: pages, Method: MethodPDFText}, nil
	}

	// Thin or missing text layer: treat as scanned and OCR the whole file.
	if s.ocr == nil {
		if countChars(pages) > 0 {
			s.logger.Warn("pdf looks scanned but OCR is disabled, keeping native text layer",
				zap.String("filename", filename),
				zap.Int("chars", countChars(pages)),
			)
			return Result{Pages: pages, Method: MethodPDFText}, nil
		}
		return Result{}, ErrOCRUnavailable
	}

	s.logger.Info("processing as scanned pdf",
		zap.String("filename", filename),
		zap.Int("native_chars", countChars(pages)),
	)

	ocrPages, err := s.ocr.Recognize(ctx, "application/pdf", content)
	if err != nil {
		return Result{}, fmt.Errorf("ocr for %s: %w", filename, err)
	}
	if countChars(ocrPages) == 0 {
		return Result{}, ErrNoText
	}
	return Result{Pages: ocrPages, Method: MethodPDFOCR}, nil
}

func (s *Service) extractImage(ctx context.Context, filename string, content []byte, ext string) (Result, error) {
	if s.ocr == nil {
		return Result{}, ErrOCRUnavailable
	}

	contentType := "image/png"
	if ext == ".jpg" || ext == ".jpeg" {
		contentType = "image/jpeg"
	}

	pages, err := s.ocr.Recognize(ctx, contentType, content)
	if err != nil {
		return Result{}, fmt.Errorf("ocr for %s: %w", filename, err)
	}
	if countChars(pages) == 0 {
		return Result{}, ErrNoText
	}
	return Result{Pages: pages, Method: MethodImageOCR}, nil
}

// looksScanned reports whether the native text layer is too thin to trust.
// A scanned PDF typically yields little or no text per page; the average
// over all pages avoids misclassifying documents with a sparse first page.
func (s *Service) looksScanned(pages []Page) bool {
	if len(pages) == 0 {
		return true
	}
	return countChars(pages)/len(pages) < s.minCharsPerPage
}

func countChars(pages []Page) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p.Text))
	}
	return n
}
