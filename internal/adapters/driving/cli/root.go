// Package cli provides the command line interface for sercha-rag.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/app"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// version is reported by the version command. See SetVersion.
var version = "dev"

const (
	envConfigDir = "SERCHA_RAG_CONFIG_DIR"
	envAPIKey    = "SERCHA_RAG_API_KEY"
)

var (
	verbose   bool
	configDir string
	ephemeral bool

	// settingsService is built from the config directory on first use.
	// Tests may set it before executing a command.
	settingsService driving.SettingsService

	// engine is built lazily by ensureEngine.
	engine *app.Engine

	// newEngine builds the engine. Tests replace it.
	newEngine = func(ctx context.Context, settings domain.RAGSettings) (*app.Engine, error) {
		return app.New(ctx, settings)
	}
)

var rootCmd = &cobra.Command{
	Use:   "sercha-rag",
	Short: "Local retrieval-augmented search over your documents",
	Long: `sercha-rag chunks and embeds plain text documents into an in-memory
vector index and retrieves the passages most relevant to a question.

The index lives for the duration of a command. Use "mcp serve" or "tui"
for a long-running session.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/"+file.DefaultDirName+")")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "use default settings held in memory; nothing is read from or written to disk")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command with a context cancelled on interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer closeEngine()

	return rootCmd.ExecuteContext(ctx)
}

func setup(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if settingsService != nil {
		return nil
	}

	if ephemeral {
		settingsService = services.NewSettingsService(memory.NewConfigStore(), ai.NewConfigValidator())
		logger.Debug("Config: in memory")
		return nil
	}

	dir, err := resolveConfigDir()
	if err != nil {
		return err
	}
	store, err := file.NewConfigStore(dir)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	settingsService = services.NewSettingsService(store, ai.NewConfigValidator())
	logger.Debug("Config: %s", store.Path())
	return nil
}

func resolveConfigDir() (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	if env := os.Getenv(envConfigDir); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, file.DefaultDirName), nil
}

// ensureEngine returns the shared engine, building it from settings on first use.
func ensureEngine(cmd *cobra.Command) (*app.Engine, error) {
	if engine != nil {
		return engine, nil
	}
	if settingsService == nil {
		return nil, errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	applyEnv(settings)

	e, err := newEngine(commandContext(cmd), *settings)
	if err != nil {
		return nil, err
	}
	for _, w := range e.Warnings {
		logger.Warn("%s", w)
	}
	engine = e
	return engine, nil
}

// applyEnv fills an unset API key from the environment.
func applyEnv(settings *domain.RAGSettings) {
	if settings.Embedding.APIKey != "" {
		return
	}
	key := os.Getenv(envAPIKey)
	if key == "" && settings.Embedding.Provider == domain.AIProviderOpenAI {
		key = os.Getenv("OPENAI_API_KEY")
	}
	settings.Embedding.APIKey = key
}

func closeEngine() {
	if engine != nil {
		engine.Close()
		engine = nil
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
