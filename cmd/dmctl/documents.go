package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var docsLimit int

func init() {
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(docsCmd)
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsGetCmd)
	docsCmd.AddCommand(docsRmCmd)

	docsListCmd.Flags().IntVar(&docsLimit, "limit", 0, "Maximum number of documents to return (0 = all)")
}

// uploadCmd uploads a document for ingestion
var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload documents for ingestion",
	Long: `Upload one or more documents to the documind server.

Each file is extracted, chunked, embedded, and indexed. The server
responds with a receipt naming the document ID and the number of
chunks stored.

Examples:
  # Upload a PDF
  dmctl upload notice.pdf

  # Upload several files
  dmctl upload *.pdf

  # Output receipts as JSON
  dmctl upload notice.pdf --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

// docsCmd groups document catalog commands
var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage indexed documents",
	Long: `Manage the documents indexed on the documind server.

Examples:
  # List indexed documents
  dmctl docs list

  # Show one document
  dmctl docs get 9f3a1c2e-...

  # Remove a document and its chunks
  dmctl docs rm 9f3a1c2e-...`,
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	RunE:  runDocsList,
}

var docsGetCmd = &cobra.Command{
	Use:   "get <document-id>",
	Short: "Show a single document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsGet,
}

var docsRmCmd = &cobra.Command{
	Use:   "rm <document-id>",
	Short: "Remove a document and its index entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsRm,
}

// Receipt matches internal/ingest/ingest.go Receipt
type Receipt struct {
	DocumentID   string `json:"document_id"`
	Filename     string `json:"filename"`
	ChunksStored int    `json:"chunks_stored"`
	Pages        int    `json:"pages"`
	Method       string `json:"method"`
}

// Document matches internal/registry/registry.go Document
type Document struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Method      string    `json:"method"`
	Pages       int       `json:"pages"`
	ChunkCount  int       `json:"chunk_count"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// ListDocumentsResponse matches internal/server/handlers.go ListDocumentsResponse
type ListDocumentsResponse struct {
	Documents []Document `json:"documents"`
	Count     int        `json:"count"`
}

// runUpload handles the upload command
func runUpload(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 5 * time.Minute}

	for _, path := range args {
		receipt, err := uploadFile(client, path)
		if err != nil {
			return fmt.Errorf("uploading %s: %w", path, err)
		}

		if outputJSON {
			if err := printJSON(receipt); err != nil {
				return err
			}
			continue
		}

		fmt.Printf("%s: document %s, %d chunks from %d pages (%s)\n",
			receipt.Filename, receipt.DocumentID, receipt.ChunksStored, receipt.Pages, receipt.Method)
	}

	return nil
}

// uploadFile posts one file as a multipart upload and returns the receipt.
func uploadFile(client *http.Client, path string) (*Receipt, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart form: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("failed to write multipart form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart form: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, serverURL+"/api/v1/documents", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusCreated); err != nil {
		return nil, err
	}

	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &receipt, nil
}

// runDocsList handles the docs list command
func runDocsList(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 30 * time.Second}

	url := serverURL + "/api/v1/documents"
	if docsLimit > 0 {
		url = fmt.Sprintf("%s?limit=%d", url, docsLimit)
	}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", serverURL, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusOK); err != nil {
		return err
	}

	var list ListDocumentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if outputJSON {
		return printJSON(list)
	}

	if list.Count == 0 {
		fmt.Println("No documents indexed.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFILENAME\tPAGES\tCHUNKS\tMETHOD\tUPLOADED")
	for _, doc := range list.Documents {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
			doc.ID, doc.Filename, doc.Pages, doc.ChunkCount, doc.Method,
			doc.UploadedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

// runDocsGet handles the docs get command
func runDocsGet(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 30 * time.Second}

	resp, err := client.Get(serverURL + "/api/v1/documents/" + args[0])
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", serverURL, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusOK); err != nil {
		return err
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if outputJSON {
		return printJSON(doc)
	}

	fmt.Printf("ID:           %s\n", doc.ID)
	fmt.Printf("Filename:     %s\n", doc.Filename)
	fmt.Printf("Content-Type: %s\n", doc.ContentType)
	fmt.Printf("Method:       %s\n", doc.Method)
	fmt.Printf("Pages:        %d\n", doc.Pages)
	fmt.Printf("Chunks:       %d\n", doc.ChunkCount)
	fmt.Printf("Size:         %d bytes\n", doc.SizeBytes)
	fmt.Printf("Uploaded:     %s\n", doc.UploadedAt.Local().Format(time.RFC3339))

	return nil
}

// runDocsRm handles the docs rm command
func runDocsRm(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 30 * time.Second}

	req, err := http.NewRequest(http.MethodDelete, serverURL+"/api/v1/documents/"+args[0], nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", serverURL, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusNoContent); err != nil {
		return err
	}

	fmt.Printf("Deleted document %s\n", args[0])
	return nil
}
