package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure providers, storage paths and retrieval options.

Settings live in a TOML file; use 'settings set' for direct edits or
the provider subcommands for guided configuration.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Sets a configuration key. Values are parsed as bool, int or float
where possible, otherwise stored as strings.

Examples:
  kroniek settings set embedding.model nomic-embed-text
  kroniek settings set embedding.requests_per_second 5.0
  kroniek settings set ingest.workers 8`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure the embedding provider",
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure the generation provider",
	RunE:  runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cmd.Printf("Config file: %s\n\n", configStore.Path())

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", orDefault(configStore.GetString("embedding.provider"), "ollama"))
	cmd.Printf("  Model: %s\n", orDefault(configStore.GetString("embedding.model"), "(provider default)"))
	if key := configStore.GetString("embedding.api_key"); key != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(key))
	}
	if url := configStore.GetString("embedding.base_url"); url != "" {
		cmd.Printf("  Base URL: %s\n", url)
	}
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", orDefault(configStore.GetString("llm.provider"), "ollama"))
	cmd.Printf("  Model: %s\n", orDefault(configStore.GetString("llm.model"), "(provider default)"))
	if key := configStore.GetString("llm.api_key"); key != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(key))
	}
	if url := configStore.GetString("llm.base_url"); url != "" {
		cmd.Printf("  Base URL: %s\n", url)
	}
	cmd.Println()

	if promptStore != nil {
		cmd.Println("[Prompts]")
		cmd.Printf("  Directory: %s\n", promptStore.Dir())
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key, raw := args[0], args[1]
	if err := configStore.Set(key, parseValue(raw)); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	cmd.Printf("Set %s = %s\n", key, raw)
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	return configureProvider(cmd, "embedding")
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	return configureProvider(cmd, "llm")
}

// configureProvider walks through provider, model and credentials for
// one provider section of the config.
func configureProvider(cmd *cobra.Command, section string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if configStore == nil {
		return errors.New("config store not configured")
	}

	reader := bufio.NewReader(os.Stdin)

	cmd.Printf("Select %s provider\n", section)
	cmd.Println("  1. ollama (local)")
	cmd.Println("  2. openai (API key required)")
	cmd.Print("\nEnter choice [1]: ")
	provider := "ollama"
	if readLine(reader) == "2" {
		provider = "openai"
	}

	cmd.Print("Enter model name (empty for provider default): ")
	model := readLine(reader)

	var apiKey string
	if provider == "openai" {
		cmd.Print("Enter API key: ")
		apiKey = readPassword()
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := configStore.Set(section+".provider", provider); err != nil {
		return fmt.Errorf("save provider: %w", err)
	}
	if model != "" {
		if err := configStore.Set(section+".model", model); err != nil {
			return fmt.Errorf("save model: %w", err)
		}
	}
	if apiKey != "" {
		if err := configStore.Set(section+".api_key", apiKey); err != nil {
			return fmt.Errorf("save api key: %w", err)
		}
	}

	cmd.Printf("%s provider configured: %s\n", section, provider)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// parseValue interprets a CLI argument as int, float, bool or string.
// Numbers are tried first so "1" stores as an integer, not a bool.
func parseValue(raw string) any {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
