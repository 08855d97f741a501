package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"tagscraper/pkg/config"
	"tagscraper/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage Tag Scraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (TAGSCRAPER_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Run:   runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the effective configuration after merging all sources.
The API key is masked.`,
	Run: runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a configuration file",
	Args:  cobra.ExactArgs(1),
	Run:   runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# Tag Scraper configuration file

danbooru:
  base_url: https://danbooru.donmai.us
  # username: myuser
  # api_key: mykey
  user_agent: TagScraper/1.0
  request_timeout: 20s

scrape:
  output_file: tags.txt
  category: general        # general, artist, copyright, character, meta, all
  min_post_count: 0
  order: name              # name, newest, count
  include_metadata: false
  delay: 500ms
  keep_checkpoint_on_interrupt: false

rate_limit:
  backoff_strategy: fixed  # fixed or exponential
  backoff_multiplier: 4.0
  max_backoff: 60s

logging:
  level: info
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = "tagscraper.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		os.Exit(1)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to write configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Created %s", configPath))
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		ui.PrintError("Failed to load environment config", err.Error())
		os.Exit(1)
	}
	if err := cfg.LoadFromFile(configFile); err != nil {
		ui.PrintError("Failed to load config file", err.Error())
		os.Exit(1)
	}

	// Never print the real key
	if cfg.Danbooru.APIKey != "" {
		cfg.Danbooru.APIKey = "********"
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to render configuration", err.Error())
		os.Exit(1)
	}

	fmt.Print(string(data))
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(args[0]); err != nil {
		ui.PrintError("Invalid configuration", err.Error())
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		ui.PrintError("Invalid configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration is valid")
}
