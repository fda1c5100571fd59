package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
)

const (
	refundText  = "Refunds are issued within five working days of the returned item arriving at our warehouse."
	billingText = "Billing runs on the first of every month and invoices are emailed to the account owner."
)

// setupTestCLI points the CLI at in-memory settings and resets the state
// that package globals and cobra flags keep between executions.
func setupTestCLI(t *testing.T, seed map[string]any) *memory.ConfigStore {
	t.Helper()

	values := map[string]any{"embedding.cooldown_ms": 0}
	for k, v := range seed {
		values[k] = v
	}
	store := memory.NewConfigStore(values)

	closeEngine()
	resetFlags(rootCmd)
	settingsService = services.NewSettingsService(store, nil)

	t.Cleanup(func() {
		closeEngine()
		resetFlags(rootCmd)
		settingsService = nil
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
	})
	return store
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// writeDocs creates a directory holding the given files.
func writeDocs(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}
