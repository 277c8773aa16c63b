package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(home, ".config", "triagekit")
	dataDir := filepath.Join(home, ".local", "share", "triagekit")

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	configFile := filepath.Join(configDir, "config.toml")

	if _, err := os.Stat(configFile); err == nil {
		fmt.Printf("Config file already exists at %s\n", configFile)
		fmt.Println("Use 'triagekit config show' to view current configuration")
		return nil
	}

	if err := os.WriteFile(configFile, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Created config file at %s\n", configFile)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Create Gmail API OAuth credentials (credentials.json)")
	fmt.Printf("  2. Save credentials.json to %s/\n", configDir)
	fmt.Println("  3. Run 'triagekit run' to authenticate and process your inbox")
	fmt.Println()
	fmt.Println("For a local LLM, ensure Ollama is running with the configured model:")
	fmt.Println("  ollama pull llama3.2:1b")
	fmt.Println("  ollama serve")

	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No config file found. Run 'triagekit config init' to create one.")
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	fmt.Printf("# Config file: %s\n\n", configPath)
	fmt.Println(string(data))
	return nil
}

const defaultConfig = `# triagekit configuration

[gmail]
credentials_path = "~/.config/triagekit/credentials.json"
token_path = "~/.config/triagekit/token.json"
max_results = 100  # messages per run

[database]
path = "~/.local/share/triagekit/triagekit.db"

[pipeline]
page_size = 10       # conversations classified/extracted per page
parallel_pages = 1   # bounded worker pool size, 1..4

[llm]
endpoint = "http://localhost:11434/api/generate"
model = "llama3.2:1b"
min_delay_classification_ms = 1500
min_delay_extraction_ms = 2000
max_retries = 3
timeout_seconds = 60

[metrics]
window_days = 90     # rolling accuracy/F1 window
retention_days = 730 # accuracy event retention

[extractor]
version = "v1"       # bumping invalidates existing task ids

[prompts]
custom_overrides_enabled = true
`
