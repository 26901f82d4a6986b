// Package vectorstore defines the interface for vector storage operations.
package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for vector store operations.
var (
	// ErrCollectionNotFound is returned when the chunk collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyDocuments indicates empty or nil documents.
	ErrEmptyDocuments = errors.New("empty or nil documents")

	// ErrConnectionFailed indicates gRPC connection issues.
	ErrConnectionFailed = errors.New("failed to connect to Qdrant")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")
)

// Embedder generates vector embeddings from text.
//
// Embeddings are dense numerical representations that capture semantic
// meaning, enabling similarity search. Implementations can use local ONNX
// models (FastEmbed) or inference services (TEI, OpenAI).
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	// Returns a slice of embeddings (one per input text) or an error.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	// Some models optimize differently for queries vs documents.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Store is the interface for vector storage operations over document chunks.
//
// The interface is transport-agnostic; implementations can be embedded
// (chromem-go) or remote (Qdrant gRPC). Each store manages a single chunk
// collection configured at construction time.
//
// Implementations:
//   - ChromemStore: embedded chromem-go (default)
//   - QdrantStore: external Qdrant gRPC client
type Store interface {
	// AddDocuments embeds and stores document chunks.
	//
	// The chunk ID is used as the unique identifier in the store, so
	// re-adding a chunk with the same ID overwrites the previous vector.
	//
	// Returns the IDs of stored chunks and an error if the operation fails.
	AddDocuments(ctx context.Context, docs []Document) ([]string, error)

	// Search performs similarity search over stored chunks.
	//
	// Returns up to k results ordered by similarity score (highest first).
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)

	// SearchWithFilters performs similarity search with metadata filters.
	//
	// Filters are applied to chunk metadata (e.g. {"document_id": "..."}).
	// Only chunks matching ALL filter conditions are returned.
	SearchWithFilters(ctx context.Context, query string, k int, filters map[string]interface{}) ([]SearchResult, error)

	// DeleteDocuments deletes chunks by their IDs.
	DeleteDocuments(ctx context.Context, ids []string) error

	// DeleteByDocumentID deletes all chunks belonging to a document.
	DeleteByDocumentID(ctx context.Context, documentID string) error

	// CollectionInfo returns metadata about the chunk collection.
	//
	// Returns ErrCollectionNotFound if the collection has not been created
	// yet (no chunks stored).
	CollectionInfo(ctx context.Context) (*CollectionInfo, error)

	// Close closes the vector store connection and releases resources.
	Close() error
}
