package vectorstore

// Document represents a document chunk to be stored in the vector store.
type Document struct {
	// ID is the unique identifier for the chunk, "{document_id}:{index}".
	ID string

	// Content is the chunk text.
	Content string

	// Metadata contains additional key-value pairs for filtering and
	// citation assembly. Common fields: document_id, filename, pages,
	// paragraph, chunk_index, upload_date.
	Metadata map[string]interface{}
}

// SearchResult represents a search result from the vector store.
type SearchResult struct {
	// ID is the chunk identifier.
	ID string

	// Content is the chunk text.
	Content string

	// Score is the similarity score (higher = more similar).
	Score float32

	// Metadata contains the chunk metadata.
	Metadata map[string]interface{}
}

// CollectionInfo contains metadata about the chunk collection.
type CollectionInfo struct {
	// Name is the collection name.
	Name string `json:"name"`

	// PointCount is the number of vectors in the collection.
	PointCount int `json:"point_count"`

	// VectorSize is the dimensionality of vectors in this collection.
	VectorSize int `json:"vector_size"`
}
