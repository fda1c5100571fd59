package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/app"
	"github.com/custodia-labs/sercha-rag/internal/connectors/filesystem"
)

var chunkJSON bool

var chunkCmd = &cobra.Command{
	Use:   "chunk <file>",
	Short: "Show how a file is split into chunks",
	Long: `Splits a file with the configured chunking settings and prints each
chunk. Nothing is embedded or indexed.`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

func init() {
	chunkCmd.Flags().BoolVar(&chunkJSON, "json", false, "output chunks as JSON")
	rootCmd.AddCommand(chunkCmd)
}

type chunkJSONOutput struct {
	Index   int    `json:"index"`
	Chars   int    `json:"chars"`
	Content string `json:"content"`
}

func runChunk(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	doc, err := filesystem.LoadDocument(args[0])
	if err != nil {
		return err
	}

	chunks := app.NewChunker(settings.Chunking).Split(doc.Text, doc.Type)

	if chunkJSON {
		out := make([]chunkJSONOutput, len(chunks))
		for i, c := range chunks {
			out[i] = chunkJSONOutput{Index: i, Chars: utf8.RuneCountInString(c), Content: c}
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal chunks: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("%s (%s): %d chunks\n", doc.Filename, doc.Type, len(chunks))
	for i, c := range chunks {
		cmd.Printf("\n--- chunk %d (%d chars) ---\n%s\n", i, utf8.RuneCountInString(c), c)
	}
	return nil
}
