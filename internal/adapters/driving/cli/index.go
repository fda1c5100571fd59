package cli

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/connectors/filesystem"
)

var indexCmd = &cobra.Command{
	Use:   "index <path>...",
	Short: "Index files and directories",
	Long: `Chunks and embeds every supported file under the given paths and
reports what was indexed.

Supported files: plain text (.txt, .text, .log), Markdown (.md,
.markdown), HTML (.html, .htm, .xhtml), Word documents (.docx), and text
already extracted from PDFs (.pdf.txt) or word processor documents
(.doc.txt, .docx.txt). Hidden files and directories are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	e, err := ensureEngine(cmd)
	if err != nil {
		return err
	}

	report, err := e.IndexPaths(commandContext(cmd), args...)
	if report != nil {
		printSyncReport(cmd, report)
	}
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	if len(report.Indexed) == 0 && len(report.Failed) > 0 {
		return fmt.Errorf("no files indexed, %d failed", len(report.Failed))
	}
	return nil
}

func printSyncReport(cmd *cobra.Command, report *filesystem.SyncReport) {
	for _, path := range slices.Sorted(maps.Keys(report.Indexed)) {
		res := report.Indexed[path]
		cmd.Printf("  indexed  %s (%d chunks, %s)\n", path, res.ChunksCreated, res.ProcessingTime.Round(time.Millisecond))
	}
	for _, path := range slices.Sorted(maps.Keys(report.Failed)) {
		cmd.Printf("  failed   %s: %v\n", path, report.Failed[path])
	}
	cmd.Printf("Indexed %d files (%d chunks), %d failed\n", len(report.Indexed), report.Chunks(), len(report.Failed))
}
