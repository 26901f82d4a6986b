package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var searchK int

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVar(&searchK, "k", 0, "Number of passages to retrieve (server default: 3)")
}

// searchCmd queries the indexed corpus
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the indexed documents",
	Long: `Search the indexed documents and print the matching passages
with their citations, the identified themes, and a short summary.

Examples:
  # Ask a question
  dmctl search "What penalties were imposed?"

  # Retrieve more passages
  dmctl search "regulatory violations" --k 10

  # Output as JSON
  dmctl search "penalty justification" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

// Passage matches internal/query/query.go Passage
type Passage struct {
	Text       string  `json:"text"`
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	Pages      []int   `json:"pages"`
	Paragraph  int     `json:"paragraph"`
	Score      float64 `json:"score"`
}

// Theme matches internal/query/themes.go Theme
type Theme struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Citations   []string `json:"citations"`
}

// SearchResult matches internal/query/query.go Result
type SearchResult struct {
	Query    string    `json:"query"`
	Passages []Passage `json:"passages"`
	Themes   []Theme   `json:"themes"`
	Summary  string    `json:"summary,omitempty"`
}

// runSearch handles the search command
func runSearch(cmd *cobra.Command, args []string) error {
	q := strings.Join(args, " ")

	params := url.Values{}
	params.Set("q", q)
	if searchK > 0 {
		params.Set("k", strconv.Itoa(searchK))
	}

	client := &http.Client{Timeout: 60 * time.Second}

	resp, err := client.Get(serverURL + "/api/v1/search?" + params.Encode())
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", serverURL, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusOK); err != nil {
		return err
	}

	var result SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if outputJSON {
		return printJSON(result)
	}

	printSearchResult(result)
	return nil
}

// printSearchResult renders a search result for terminal reading.
func printSearchResult(result SearchResult) {
	if len(result.Passages) == 0 {
		fmt.Println("No matching passages.")
		return
	}

	for i, p := range result.Passages {
		fmt.Printf("[%d] %s (page %s, paragraph %d)  score=%.3f\n",
			i+1, p.Filename, joinPages(p.Pages), p.Paragraph, p.Score)
		fmt.Printf("    %s\n\n", strings.ReplaceAll(p.Text, "\n", "\n    "))
	}

	if len(result.Themes) > 0 {
		fmt.Println("Themes:")
		for _, theme := range result.Themes {
			fmt.Printf("  %s: %s\n", theme.Name, theme.Description)
			for _, citation := range theme.Citations {
				fmt.Printf("    - %s\n", citation)
			}
		}
		fmt.Println()
	}

	if result.Summary != "" {
		fmt.Println("Summary:")
		fmt.Printf("  %s\n", result.Summary)
	}
}

// joinPages formats page numbers as a comma-separated list.
func joinPages(pages []int) string {
	if len(pages) == 0 {
		return "?"
	}
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}
