package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	askFiles         []string
	askMinSimilarity float64
	askMaxResults    int
	askTypes         []string
	askContext       bool
	askJSON          bool
)

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Search documents for passages relevant to a query",
	Long: `Indexes the files given with --file and ranks their chunks against
the query by embedding similarity. When the query cannot be embedded and
keyword fallback is enabled, chunks are ranked by term overlap instead.

Examples:
  sercha-rag ask "how is billing calculated" -f ./docs
  sercha-rag ask "refund policy" -f terms.md -f faq.txt --context`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringSliceVarP(&askFiles, "file", "f", nil, "file or directory to index before searching (repeatable)")
	askCmd.Flags().Float64Var(&askMinSimilarity, "min-similarity", domain.DefaultMinSimilarity, "minimum similarity score (0-1)")
	askCmd.Flags().IntVarP(&askMaxResults, "max-results", "n", 0, "maximum number of results (default from settings)")
	askCmd.Flags().StringSliceVarP(&askTypes, "type", "t", nil, "restrict to document types (pdf, doc, txt)")
	askCmd.Flags().BoolVar(&askContext, "context", false, "print the prompt-ready context block")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	e, err := ensureEngine(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	if len(askFiles) > 0 {
		report, err := e.IndexPaths(ctx, askFiles...)
		if err != nil {
			return fmt.Errorf("indexing failed: %w", err)
		}
		for path, ferr := range report.Failed {
			cmd.PrintErrf("warning: %s not indexed: %v\n", path, ferr)
		}
	}

	opts := e.SearchOptions()
	if cmd.Flags().Changed("min-similarity") {
		opts.MinSimilarity = domain.Similarity(askMinSimilarity)
	}
	if askMaxResults > 0 {
		opts.MaxResults = askMaxResults
	}
	types, err := parseDocumentTypes(askTypes)
	if err != nil {
		return err
	}
	opts.DocumentTypes = types

	resp, err := e.Coordinator.Search(ctx, args[0], opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if askJSON {
		return outputAskJSON(cmd, resp, e.Coordinator.ContextString(resp.Results))
	}
	outputAskText(cmd, resp)
	if askContext && len(resp.Results) > 0 {
		cmd.Println()
		cmd.Println(e.Coordinator.ContextString(resp.Results))
	}
	return nil
}

func parseDocumentTypes(raw []string) ([]domain.DocumentType, error) {
	var types []domain.DocumentType
	for _, r := range raw {
		t := domain.DocumentType(strings.ToLower(strings.TrimSpace(r)))
		if !t.IsValid() {
			return nil, domain.NewValidationError("type", "unsupported document type %q", r)
		}
		types = append(types, t)
	}
	return types, nil
}

type askResultJSON struct {
	Rank         int     `json:"rank"`
	Similarity   float64 `json:"similarity"`
	DocumentID   string  `json:"document_id"`
	Filename     string  `json:"filename"`
	DocumentType string  `json:"document_type"`
	ChunkIndex   int     `json:"chunk_index"`
	PageNumber   int     `json:"page_number,omitempty"`
	Content      string  `json:"content"`
}

type askOutputJSON struct {
	Strategy       string          `json:"strategy"`
	TotalDocuments int             `json:"total_documents"`
	SearchTimeMS   int64           `json:"search_time_ms"`
	Results        []askResultJSON `json:"results"`
	Warnings       []string        `json:"warnings,omitempty"`
	Context        string          `json:"context,omitempty"`
}

func outputAskJSON(cmd *cobra.Command, resp *domain.SearchResponse, contextBlock string) error {
	out := askOutputJSON{
		Strategy:       resp.Strategy.String(),
		TotalDocuments: resp.TotalDocuments,
		SearchTimeMS:   resp.SearchTime.Milliseconds(),
		Results:        make([]askResultJSON, 0, len(resp.Results)),
		Warnings:       resp.Warnings,
	}
	for _, r := range resp.Results {
		out.Results = append(out.Results, askResultJSON{
			Rank:         r.Rank,
			Similarity:   r.Similarity,
			DocumentID:   r.DocumentID,
			Filename:     r.Filename,
			DocumentType: r.DocumentType.String(),
			ChunkIndex:   r.ChunkIndex,
			PageNumber:   r.PageNumber,
			Content:      r.Content,
		})
	}
	if askContext && len(resp.Results) > 0 {
		out.Context = contextBlock
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAskText(cmd *cobra.Command, resp *domain.SearchResponse) {
	for _, w := range resp.Warnings {
		cmd.PrintErrf("warning: %s\n", w)
	}

	if resp.TotalDocuments == 0 {
		cmd.Println("No documents indexed.")
		return
	}
	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Printf("Results (%s, %d documents searched):\n\n", resp.Strategy, resp.TotalDocuments)
	for _, r := range resp.Results {
		location := fmt.Sprintf("chunk %d", r.ChunkIndex)
		if r.PageNumber > 0 {
			location += fmt.Sprintf(", page %d", r.PageNumber)
		}
		cmd.Printf("  [%d] %s (%s) %.2f\n", r.Rank, r.Filename, location, r.Similarity)
		cmd.Printf("      %s\n\n", snippet(r.Content, 200))
	}
}

// snippet flattens whitespace and truncates s to at most n runes.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
