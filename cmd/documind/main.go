// Documind is a document question-answering daemon.
//
// This binary starts the documind HTTP server with full service
// initialization: text extraction, chunking, embeddings, the vector
// store, and the document catalog. An optional drop-folder watcher
// ingests files copied into a watched directory.
//
// Configuration is loaded from ~/.config/documind/config.yaml and
// overridden by environment variables. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults (embedded chromem store, fastembed)
//	documind
//
//	# Configure via environment
//	SERVER_HTTP_PORT=9090 VECTORSTORE_PROVIDER=qdrant documind
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/documind/internal/chunker"
	"github.com/fyrsmithlabs/documind/internal/config"
	"github.com/fyrsmithlabs/documind/internal/embeddings"
	"github.com/fyrsmithlabs/documind/internal/extract"
	"github.com/fyrsmithlabs/documind/internal/ingest"
	"github.com/fyrsmithlabs/documind/internal/logging"
	"github.com/fyrsmithlabs/documind/internal/query"
	"github.com/fyrsmithlabs/documind/internal/registry"
	"github.com/fyrsmithlabs/documind/internal/server"
	"github.com/fyrsmithlabs/documind/internal/vectorstore"
	"github.com/fyrsmithlabs/documind/internal/watcher"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.config/documind/config.yaml)")
	flag.Parse()
	args := flag.Args()

	// Handle subcommands
	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  documind           Start the documind daemon\n")
			fmt.Fprintf(os.Stderr, "  documind version   Show version information\n")
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("documind\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the documind server and blocks until context is cancelled.
//
// This function initializes all dependencies and services:
//  1. Loads and validates configuration
//  2. Initializes the logger
//  3. Creates the embedding provider, vector store, and catalog
//  4. Wires the extraction, ingestion, and query services
//  5. Starts the optional drop-folder watcher
//  6. Starts the HTTP server
//  7. Performs graceful shutdown on context cancellation
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info("starting documind",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("vectorstore", cfg.VectorStore.Provider),
		zap.String("embeddings", cfg.Embeddings.Provider),
	)

	deps, err := initDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing dependencies: %w", err)
	}
	defer deps.Close()

	logger.Info("dependencies initialized",
		zap.Int("embedding_dimension", deps.provider.Dimension()),
		zap.Bool("ocr_enabled", deps.ocr != nil),
	)

	svcs := initServices(deps, cfg, logger)

	srv, err := server.NewServer(
		svcs.ingestSvc,
		svcs.querySvc,
		deps.catalog,
		deps.store,
		cfg.Server,
		cfg.Ingest.MaxUploadBytes,
		logger,
	)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	if cfg.Watch.Enabled {
		w, err := watcher.New(watcher.Config{
			Dir:               cfg.Watch.Dir,
			SettleDelay:       cfg.Watch.SettleDelay,
			AllowedExtensions: cfg.Ingest.AllowedExtensions,
		}, svcs.ingestSvc, logger)
		if err != nil {
			return fmt.Errorf("creating watcher: %w", err)
		}
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("watcher stopped", zap.Error(err))
			}
		}()
	}

	// Start server (blocks until context cancellation)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// dependencies holds all infrastructure dependencies.
type dependencies struct {
	provider embeddings.Provider
	store    vectorstore.Store
	catalog  *registry.Registry
	ocr      extract.OCRClient
}

// Close releases all infrastructure resources.
func (d *dependencies) Close() {
	if d.store != nil {
		_ = d.store.Close()
	}
	if d.catalog != nil {
		_ = d.catalog.Close()
	}
	if d.provider != nil {
		_ = d.provider.Close()
	}
}

// services holds all business services.
type services struct {
	ingestSvc *ingest.Service
	querySvc  *query.Service
}

// initDependencies initializes the embedding provider, the optional OCR
// client, the vector store, and the document catalog.
func initDependencies(cfg *config.Config, logger *zap.Logger) (*dependencies, error) {
	provider, err := embeddings.NewProvider(embeddings.ProviderConfig{
		Provider: cfg.Embeddings.Provider,
		Model:    cfg.Embeddings.Model,
		BaseURL:  cfg.Embeddings.BaseURL,
		APIKey:   cfg.Embeddings.APIKey,
		CacheDir: cfg.Embeddings.CacheDir,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedding provider: %w", err)
	}

	logger.Info("embedding provider initialized",
		zap.String("provider", cfg.Embeddings.Provider),
		zap.String("model", cfg.Embeddings.Model),
	)

	var ocr extract.OCRClient
	if cfg.OCR.BaseURL != "" {
		client, err := extract.NewHTTPOCRClient(extract.OCRConfig{
			BaseURL:   cfg.OCR.BaseURL,
			Languages: cfg.OCR.Languages,
			Timeout:   cfg.OCR.Timeout,
		})
		if err != nil {
			_ = provider.Close()
			return nil, fmt.Errorf("creating OCR client: %w", err)
		}
		ocr = client
		logger.Info("ocr client initialized", zap.String("base_url", cfg.OCR.BaseURL))
	} else {
		logger.Info("ocr disabled, scanned documents will be rejected")
	}

	store, err := vectorstore.NewStore(cfg.VectorStore, provider, logger)
	if err != nil {
		_ = provider.Close()
		return nil, fmt.Errorf("creating vector store: %w", err)
	}

	registryPath, err := config.ExpandPath(cfg.Registry.Path)
	if err != nil {
		_ = store.Close()
		_ = provider.Close()
		return nil, fmt.Errorf("resolving registry path: %w", err)
	}

	catalog, err := registry.Open(registryPath)
	if err != nil {
		_ = store.Close()
		_ = provider.Close()
		return nil, fmt.Errorf("opening document registry: %w", err)
	}

	logger.Info("document registry opened", zap.String("path", registryPath))

	return &dependencies{
		provider: provider,
		store:    store,
		catalog:  catalog,
		ocr:      ocr,
	}, nil
}

// initServices wires the extraction, ingestion, and query services.
func initServices(deps *dependencies, cfg *config.Config, logger *zap.Logger) *services {
	extractor := extract.NewService(deps.ocr, cfg.Ingest.MinCharsPerPage, logger)
	splitter := chunker.New(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)

	ingestSvc := ingest.NewService(extractor, splitter, deps.store, deps.catalog, cfg.Ingest, logger)
	querySvc := query.NewService(deps.store, nil, logger)

	return &services{
		ingestSvc: ingestSvc,
		querySvc:  querySvc,
	}
}
