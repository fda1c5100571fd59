package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui"
	"github.com/custodia-labs/sercha-rag/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// errNotTerminal is returned when the TUI is started without a terminal.
var errNotTerminal = errors.New("tui requires an interactive terminal")

// isTerminal reports whether stdin and stdout are terminals. Tests replace it.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// runProgram runs the TUI app. Tests replace it.
var runProgram = func(app *tui.App) error {
	return app.Run()
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface.

Directories given with --dir are indexed first. With --watch they are
re-indexed as files change while the TUI is open.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Search / Select / Show passage
  n, /     - New search
  d        - Remove document
  Esc      - Back
  ?        - Help
  q        - Quit`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringSliceP("dir", "d", nil, "directory to index before starting (repeatable)")
	tuiCmd.Flags().BoolP("watch", "w", false, "re-index --dir directories when files change")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	if !isTerminal() {
		return errNotTerminal
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
		cmd.Println("Indexing...")
		report, err := e.IndexPaths(ctx, dirs...)
		if err != nil {
			return fmt.Errorf("indexing failed: %w", err)
		}
		for path, ferr := range report.Failed {
			logger.Warn("%s not indexed: %v", path, ferr)
		}
	}

	if watch {
		for _, dir := range dirs {
			// Change events are not printed; the TUI owns the screen.
			changes, err := filesystem.NewWatcher(e.Syncer, dir).Start(ctx)
			if err != nil {
				return fmt.Errorf("watching %s: %w", dir, err)
			}
			go discardChanges(changes)
		}
	}

	app, err := tui.NewApp(&tui.Ports{
		RAG:           e.Coordinator,
		SearchOptions: e.SearchOptions(),
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(ctx)

	if err := runProgram(app); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func discardChanges(changes <-chan filesystem.Change) {
	for c := range changes {
		if c.Err != nil {
			logger.Debug("%s %s: %v", c.Type, c.Path, c.Err)
		}
	}
}
