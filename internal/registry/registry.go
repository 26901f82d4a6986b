// Package registry provides the SQLite-backed document catalog.
//
// The vector store holds chunks; the registry holds one row per uploaded
// document so listings and deletions don't need to enumerate vectors.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a document is not in the registry.
var ErrNotFound = errors.New("document not found")

// Document is a catalog entry for an uploaded document.
type Document struct {
	// ID is the document UUID assigned at ingest time.
	ID string `json:"id"`

	// Filename is the original upload filename.
	Filename string `json:"filename"`

	// ContentType is the detected MIME type of the upload.
	ContentType string `json:"content_type"`

	// Method records how text was extracted (pdf-text, pdf-ocr, image-ocr).
	Method string `json:"method"`

	// Pages is the number of pages with extracted text.
	Pages int `json:"pages"`

	// ChunkCount is the number of chunks stored in the vector store.
	ChunkCount int `json:"chunk_count"`

	// SizeBytes is the upload size in bytes.
	SizeBytes int64 `json:"size_bytes"`

	// UploadedAt is when the document was ingested.
	UploadedAt time.Time `json:"uploaded_at"`
}

// Registry is a SQLite-backed document catalog.
type Registry struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id            TEXT PRIMARY KEY,
	filename      TEXT NOT NULL,
	content_type  TEXT NOT NULL DEFAULT '',
	method        TEXT NOT NULL DEFAULT '',
	pages         INTEGER NOT NULL DEFAULT 0,
	chunk_count   INTEGER NOT NULL DEFAULT 0,
	size_bytes    INTEGER NOT NULL DEFAULT 0,
	uploaded_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_uploaded_at ON documents(uploaded_at DESC);
`

// Open opens the registry at the provided path, creating the database and
// schema as needed.
func Open(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("registry path is required")
	}

	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
		return nil, fmt.Errorf("creating registry directory: %w", err)
	}

	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Registry{db: db}, nil
}

// Close closes the underlying database.
func (r *Registry) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Put inserts or replaces a document record.
func (r *Registry) Put(ctx context.Context, doc Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID is required")
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO documents
			(id, filename, content_type, method, pages, chunk_count, size_bytes, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Filename, doc.ContentType, doc.Method,
		doc.Pages, doc.ChunkCount, doc.SizeBytes, toMillis(doc.UploadedAt),
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// Get returns a document record by ID.
func (r *Registry) Get(ctx context.Context, id string) (Document, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, filename, content_type, method, pages, chunk_count, size_bytes, uploaded_at
		FROM documents WHERE id = ?`, id)

	doc, err := scanDocument(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("query document: %w", err)
	}
	return doc, nil
}

// List returns document records ordered newest first. A limit of 0 means
// no limit.
func (r *Registry) List(ctx context.Context, limit int) ([]Document, error) {
	query := `
		SELECT id, filename, content_type, method, pages, chunk_count, size_bytes, uploaded_at
		FROM documents ORDER BY uploaded_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// Delete removes a document record. Returns ErrNotFound if the document
// does not exist.
func (r *Registry) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of documents in the registry.
func (r *Registry) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

func scanDocument(scan func(dest ...interface{}) error) (Document, error) {
	var (
		doc        Document
		uploadedAt int64
	)
	if err := scan(
		&doc.ID, &doc.Filename, &doc.ContentType, &doc.Method,
		&doc.Pages, &doc.ChunkCount, &doc.SizeBytes, &uploadedAt,
	); err != nil {
		return Document{}, err
	}
	doc.UploadedAt = fromMillis(uploadedAt)
	return doc, nil
}
