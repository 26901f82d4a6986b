package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrOCRFailed indicates the OCR service returned an error.
var ErrOCRFailed = errors.New("ocr recognition failed")

// OCRClient recognizes text in scanned documents and images.
//
// Implementations call out to an external engine; recognition itself is
// never done in-process.
type OCRClient interface {
	// Recognize runs OCR over the given content and returns per-page text.
	Recognize(ctx context.Context, contentType string, content []byte) ([]Page, error)
}

// OCRConfig holds configuration for the HTTP OCR client.
type OCRConfig struct {
	// BaseURL is the OCR service base URL, e.g. "http://localhost:8884".
	BaseURL string

	// Languages is the recognition language hint, e.g. "eng" or "eng+deu".
	Languages string

	// Timeout bounds a single recognition request.
	Timeout time.Duration
}

// HTTPOCRClient calls a Tesseract-compatible OCR sidecar over HTTP.
//
// The sidecar accepts raw document bytes on POST {base}/ocr and responds
// with per-page recognized text. Rasterization of PDF pages happens on
// the sidecar, keeping this binary free of CGO and imaging dependencies.
type HTTPOCRClient struct {
	config OCRConfig
	client *http.Client
}

// NewHTTPOCRClient creates an OCR client for the configured sidecar.
func NewHTTPOCRClient(cfg OCRConfig) (*HTTPOCRClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("ocr base URL required")
	}
	if cfg.Languages == "" {
		cfg.Languages = "eng"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTPOCRClient{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// ocrResponse is the sidecar response body.
type ocrResponse struct {
	Pages []Page `json:"pages"`
}

// Recognize posts the document to the OCR sidecar and returns its pages.
func (c *HTTPOCRClient) Recognize(ctx context.Context, contentType string, content []byte) ([]Page, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty content", ErrOCRFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/ocr", bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-OCR-Languages", c.config.Languages)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOCRFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", ErrOCRFailed, resp.StatusCode, string(body))
	}

	var out ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return out.Pages, nil
}
