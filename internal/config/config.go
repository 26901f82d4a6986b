// Package config provides configuration loading for documind.
//
// Configuration is loaded from a YAML file and overridden by environment
// variables, with hardcoded defaults as the lowest-precedence layer.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds the complete documind configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	OCR         OCRConfig         `koanf:"ocr"`
	Ingest      IngestConfig      `koanf:"ingest"`
	Registry    RegistryConfig    `koanf:"registry"`
	Watch       WatchConfig       `koanf:"watch"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// VectorStoreConfig selects and configures the vector store backend.
type VectorStoreConfig struct {
	// Provider is "chromem" (embedded, default) or "qdrant" (external gRPC).
	Provider string        `koanf:"provider"`
	Chromem  ChromemConfig `koanf:"chromem"`
	Qdrant   QdrantConfig  `koanf:"qdrant"`
}

// ChromemConfig holds configuration for the embedded chromem-go store.
type ChromemConfig struct {
	Path       string `koanf:"path"`
	Compress   bool   `koanf:"compress"`
	Collection string `koanf:"collection"`
	VectorSize int    `koanf:"vector_size"`
}

// QdrantConfig holds configuration for the Qdrant gRPC store.
type QdrantConfig struct {
	Host       string `koanf:"host"`
	Port       int    `koanf:"port"`
	Collection string `koanf:"collection"`
	VectorSize int    `koanf:"vector_size"`
	UseTLS     bool   `koanf:"use_tls"`
}

// EmbeddingsConfig holds embedding provider configuration.
type EmbeddingsConfig struct {
	// Provider is "fastembed" (local ONNX, default), "tei" (HTTP server),
	// or "openai".
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
	BaseURL  string `koanf:"base_url"`
	APIKey   string `koanf:"api_key"`
	CacheDir string `koanf:"cache_dir"`
}

// OCRConfig holds configuration for the OCR sidecar client.
type OCRConfig struct {
	// BaseURL is the OCR service endpoint. Empty disables OCR; scanned
	// documents and images are then rejected at ingest time.
	BaseURL   string        `koanf:"base_url"`
	Languages string        `koanf:"languages"`
	Timeout   time.Duration `koanf:"timeout"`
}

// IngestConfig holds document ingestion configuration.
type IngestConfig struct {
	ChunkSize         int      `koanf:"chunk_size"`
	ChunkOverlap      int      `koanf:"chunk_overlap"`
	MaxUploadBytes    int64    `koanf:"max_upload_bytes"`
	AllowedExtensions []string `koanf:"allowed_extensions"`
	// MinCharsPerPage is the average native-text threshold below which a
	// PDF is treated as scanned and routed through OCR.
	MinCharsPerPage int `koanf:"min_chars_per_page"`
}

// RegistryConfig holds document catalog configuration.
type RegistryConfig struct {
	Path string `koanf:"path"`
}

// WatchConfig holds drop-folder ingestion configuration.
type WatchConfig struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`
	// SettleDelay is how long a file must be quiet before it is ingested.
	SettleDelay time.Duration `koanf:"settle_delay"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	if c.VectorStore.Provider == "" {
		c.VectorStore.Provider = "chromem"
	}
	if c.VectorStore.Chromem.Path == "" {
		c.VectorStore.Chromem.Path = "~/.config/documind/vectorstore"
	}
	if c.VectorStore.Chromem.Collection == "" {
		c.VectorStore.Chromem.Collection = "documind_chunks"
	}
	if c.VectorStore.Chromem.VectorSize == 0 {
		c.VectorStore.Chromem.VectorSize = 384
	}
	if c.VectorStore.Qdrant.Host == "" {
		c.VectorStore.Qdrant.Host = "localhost"
	}
	if c.VectorStore.Qdrant.Port == 0 {
		c.VectorStore.Qdrant.Port = 6334
	}
	if c.VectorStore.Qdrant.Collection == "" {
		c.VectorStore.Qdrant.Collection = "documind_chunks"
	}
	if c.VectorStore.Qdrant.VectorSize == 0 {
		c.VectorStore.Qdrant.VectorSize = 384
	}

	if c.Embeddings.Provider == "" {
		c.Embeddings.Provider = "fastembed"
	}
	if c.Embeddings.Model == "" {
		c.Embeddings.Model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if c.Embeddings.BaseURL == "" {
		c.Embeddings.BaseURL = "http://localhost:8081"
	}

	if c.OCR.Languages == "" {
		c.OCR.Languages = "eng"
	}
	if c.OCR.Timeout == 0 {
		c.OCR.Timeout = 30 * time.Second
	}

	if c.Ingest.ChunkSize == 0 {
		c.Ingest.ChunkSize = 1000
	}
	if c.Ingest.ChunkOverlap == 0 {
		c.Ingest.ChunkOverlap = 200
	}
	if c.Ingest.MaxUploadBytes == 0 {
		c.Ingest.MaxUploadBytes = 10 * 1024 * 1024
	}
	if len(c.Ingest.AllowedExtensions) == 0 {
		c.Ingest.AllowedExtensions = []string{".pdf", ".png", ".jpg", ".jpeg"}
	}
	if c.Ingest.MinCharsPerPage == 0 {
		c.Ingest.MinCharsPerPage = 50
	}

	if c.Registry.Path == "" {
		c.Registry.Path = "~/.config/documind/registry.db"
	}

	if c.Watch.SettleDelay == 0 {
		c.Watch.SettleDelay = 2 * time.Second
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.VectorStore.Provider {
	case "chromem", "qdrant":
	default:
		return fmt.Errorf("unsupported vectorstore provider: %q (supported: chromem, qdrant)", c.VectorStore.Provider)
	}

	switch c.Embeddings.Provider {
	case "fastembed", "tei", "openai":
	default:
		return fmt.Errorf("unsupported embeddings provider: %q (supported: fastembed, tei, openai)", c.Embeddings.Provider)
	}

	if c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", c.Ingest.ChunkOverlap, c.Ingest.ChunkSize)
	}
	if c.Ingest.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive, got %d", c.Ingest.MaxUploadBytes)
	}
	for _, ext := range c.Ingest.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("allowed extension %q must start with a dot", ext)
		}
	}

	if c.Watch.Enabled && c.Watch.Dir == "" {
		return fmt.Errorf("watch.dir is required when watch is enabled")
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unsupported logging format: %q (supported: json, console)", c.Logging.Format)
	}

	return nil
}
