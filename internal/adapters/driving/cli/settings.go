package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure chunking, embedding provider and search options.

Settings are stored as TOML in the config directory. Use "settings set"
to change a single key or "settings wizard" to configure the embedding
provider interactively.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a single setting",
	Long: `Set a single setting by its dotted key, for example:

  sercha-rag settings set chunking.size 800
  sercha-rag settings set embedding.provider ollama
  sercha-rag settings set embedding.api_key -

A value of "-" reads the value from the terminal without echo.
Run "settings show" to list every key.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the embedding provider is reachable",
	RunE:  runSettingsValidate,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive embedding provider setup",
	RunE:  runSettingsWizard,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	values, err := settingsService.Values()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	section := ""
	for _, key := range settingsService.Keys() {
		prefix, name, _ := strings.Cut(key, ".")
		if prefix != section {
			if section != "" {
				cmd.Println()
			}
			cmd.Printf("[%s]\n", prefix)
			section = prefix
		}
		val := values[key]
		if val == "" {
			val = "(not set)"
		}
		cmd.Printf("  %-20s %s\n", name, val)
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	cmd.Println()
	if err := settings.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else if !settings.Embedding.IsConfigured() {
		cmd.Printf("Warning: %s requires an API key\n", settings.Embedding.Provider)
		cmd.Println("Run 'sercha-rag settings set embedding.api_key -' to set it.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if value == "-" {
		cmd.Printf("Enter value for %s: ", key)
		value = readPassword(cmd.InOrStdin())
		cmd.Println()
	}

	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	cmd.Printf("Set %s\n", key)
	return nil
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	cmd.Printf("Checking %s...\n", settings.Embedding.Provider.Description())
	if err := settingsService.ValidateEmbedding(commandContext(cmd)); err != nil {
		return fmt.Errorf("embedding provider unavailable: %w", err)
	}
	cmd.Println("Embedding provider is reachable.")
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Embedding Provider Setup")
	cmd.Println("========================")
	cmd.Println()

	in := cmd.InOrStdin()
	reader := bufio.NewReader(in)

	providers := domain.AllAIProviders()
	current := 1
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
		if p == settings.Embedding.Provider {
			current = i + 1
		}
	}
	cmd.Printf("\nEnter choice [%d]: ", current)
	provider := providers[parseChoice(readLine(reader), len(providers), current)-1]

	if provider != settings.Embedding.Provider {
		// Model and endpoint defaults differ per provider.
		settings.Embedding.Model = ""
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.Provider = provider

	if provider != domain.AIProviderHashing {
		cmd.Printf("Model [%s]: ", orDefault(settings.Embedding.Model, "provider default"))
		if v := readLine(reader); v != "" {
			settings.Embedding.Model = v
		}
		cmd.Printf("Base URL [%s]: ", orDefault(settings.Embedding.BaseURL, "provider default"))
		if v := readLine(reader); v != "" {
			settings.Embedding.BaseURL = v
		}
	}
	if provider.RequiresAPIKey() {
		cmd.Print("API key (leave empty to keep current): ")
		if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			settings.Embedding.APIKey = orDefault(readPassword(in), settings.Embedding.APIKey)
			cmd.Println()
		} else {
			settings.Embedding.APIKey = orDefault(readLine(reader), settings.Embedding.APIKey)
		}
	}

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Printf("\nEmbedding provider set to %s.\n", provider.Description())
	cmd.Println("Run 'sercha-rag settings validate' to check connectivity.")
	return nil
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads a line without echo when in is a terminal.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	input, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(input)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
