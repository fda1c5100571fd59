package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats <path>...",
	Short: "Index paths and summarise the index",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}

type statsJSONOutput struct {
	TotalDocuments           int            `json:"total_documents"`
	TotalChunks              int            `json:"total_chunks"`
	AverageChunksPerDocument float64        `json:"average_chunks_per_document"`
	Dimensions               int            `json:"dimensions"`
	DocumentTypes            map[string]int `json:"document_types"`
	Model                    string         `json:"model"`
}

func runStats(cmd *cobra.Command, args []string) error {
	e, err := ensureEngine(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	report, err := e.IndexPaths(ctx, args...)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	for path, ferr := range report.Failed {
		cmd.PrintErrf("warning: %s not indexed: %v\n", path, ferr)
	}

	stats := e.Coordinator.Stats(ctx)

	if statsJSON {
		out := statsJSONOutput{
			TotalDocuments:           stats.TotalDocuments,
			TotalChunks:              stats.TotalChunks,
			AverageChunksPerDocument: stats.AverageChunksPerDocument,
			Dimensions:               stats.Dimensions,
			DocumentTypes:            make(map[string]int, len(stats.DocumentTypes)),
			Model:                    e.ModelName(),
		}
		for t, n := range stats.DocumentTypes {
			out.DocumentTypes[t.String()] = n
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println("Index statistics:")
	cmd.Printf("  Documents:      %d\n", stats.TotalDocuments)
	cmd.Printf("  Chunks:         %d\n", stats.TotalChunks)
	cmd.Printf("  Avg chunks/doc: %.1f\n", stats.AverageChunksPerDocument)
	cmd.Printf("  Dimensions:     %d\n", stats.Dimensions)
	cmd.Printf("  Model:          %s\n", e.ModelName())
	for _, t := range domain.DocumentTypes() {
		if n := stats.DocumentTypes[t]; n > 0 {
			cmd.Printf("  %-15s %d\n", t.String()+":", n)
		}
	}

	if entries := e.Coordinator.Documents(ctx); len(entries) > 0 {
		cmd.Println()
		cmd.Println("Documents:")
		for _, d := range entries {
			cmd.Printf("  %s  %-30s %3d chunks\n", d.DocumentID, d.Filename, d.TotalChunks)
		}
	}
	return nil
}
