package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/mcp"
	"github.com/custodia-labs/sercha-rag/internal/app"
	"github.com/custodia-labs/sercha-rag/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can index
documents and retrieve relevant passages.

By default the server communicates over stdio using JSON-RPC. Use --port
to serve streamable HTTP instead, for example to test with MCP Inspector.

Use --dir to index a directory at start-up and --watch to keep the index
in step with changes to it. The index_document tool only loads files by
path from under the --dir directories.

Examples:
  # Stdio mode
  sercha-rag mcp serve --dir ~/notes --watch

  # HTTP mode
  sercha-rag mcp serve --dir ~/notes --port 8080

MCP client configuration:
  {
    "mcpServers": {
      "sercha-rag": {
        "command": "/path/to/sercha-rag",
        "args": ["mcp", "serve", "--dir", "/path/to/docs"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().StringSliceP("dir", "d", nil, "directory to index at start-up (repeatable)")
	mcpServeCmd.Flags().BoolP("watch", "w", false, "re-index --dir directories when files change")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	dirs, err := cmd.Flags().GetStringSlice("dir")
	if err != nil {
		return fmt.Errorf("getting dir flag: %w", err)
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("getting watch flag: %w", err)
	}

	e, err := ensureEngine(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	if len(dirs) > 0 {
		report, err := e.IndexPaths(ctx, dirs...)
		if err != nil {
			return fmt.Errorf("indexing failed: %w", err)
		}
		logger.Info("Indexed %d files (%d chunks), %d failed", len(report.Indexed), report.Chunks(), len(report.Failed))
		for path, ferr := range report.Failed {
			logger.Warn("%s not indexed: %v", path, ferr)
		}
	}

	if watch {
		for _, dir := range dirs {
			changes, err := filesystem.NewWatcher(e.Syncer, dir).Start(ctx)
			if err != nil {
				return fmt.Errorf("watching %s: %w", dir, err)
			}
			go logChanges(changes)
		}
	}

	server, err := mcp.NewServer(mcpPorts(e, dirs))
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		// Stdout is free in HTTP mode.
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}

// mcpPorts wires the engine into the MCP server. index_document may only
// read files under dirs.
func mcpPorts(e *app.Engine, dirs []string) *mcp.Ports {
	return &mcp.Ports{
		RAG:           e.Coordinator,
		Paths:         e.Syncer,
		Roots:         dirs,
		SearchOptions: e.SearchOptions(),
	}
}

func logChanges(changes <-chan filesystem.Change) {
	for c := range changes {
		if c.Err != nil {
			logger.Warn("%s %s: %v", c.Type, c.Path, c.Err)
			continue
		}
		logger.Info("%s %s", c.Type, c.Path)
	}
}
