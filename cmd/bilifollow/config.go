package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"bilifollow/pkg/auth"
	"bilifollow/pkg/config"
	"bilifollow/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage bilifollow configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (BILIFOLLOW_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as 'bilifollow.yaml' in the current directory unless a
different path is given with --config.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging every source.
Cookies are masked.`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.`,
	Run:   runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# bilifollow configuration file
#
# Every option can also be set with an environment variable prefixed with
# BILIFOLLOW_, for example BILIFOLLOW_SESSDATA or BILIFOLLOW_CONCURRENCY.

# Session cookies of a logged-in browser (see 'bilifollow auth login')
bilibili:
  sessdata: ""
  bili_jct: ""
  # Numeric user id, used when the nav endpoint cannot identify you
  dede_user_id: ""
  user_agent: ""
  timeout: 15s

pagination:
  # Accounts per page, at most 50
  page_size: 50
  # Pause between page requests
  page_delay: 500ms

# Optional per-account fields; each one costs a request per account,
# level and official share one
enrich:
  followers: false
  likes: false
  videos: false
  level: false
  official: false
  concurrency: 6
  # Halve concurrency (down to 3) and stretch backoff when rate limited
  adaptive: true
  max_retries: 2
  entry_delay: 300ms

rate_limit:
  # Global cap across all workers, 0 disables it
  requests_per_minute: 0

output:
  directory: "."
  # default, followers or name
  sort: "default"
  # Only keep accounts whose name or bio fuzzy-matches
  filter: ""
  overwrite_existing: false

notifications:
  enabled: false
  on_complete: true
  on_error: true

logging:
  # debug, info, warn, error, disabled
  level: "info"
  file: ""
  no_color: false
`

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = "bilifollow.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			ui.PrintError("Failed to create configuration directory", err.Error())
			os.Exit(1)
		}
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Store your cookies with 'bilifollow auth login' or add them to the file")
	fmt.Println("2. Run 'bilifollow config validate' to check the configuration")
	fmt.Println("3. Export with 'bilifollow export'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	display := *cfg
	masked := auth.SanitizeAccount(&auth.Account{
		SESSDATA: cfg.Bilibili.SESSDATA,
		BiliJCT:  cfg.Bilibili.BiliJCT,
	})
	display.Bilibili.SESSDATA = masked.SESSDATA
	display.Bilibili.BiliJCT = masked.BiliJCT

	data, err := yaml.Marshal(&display)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	fmt.Println(ui.Magenta("Current Configuration"))
	fmt.Println()
	fmt.Print(string(data))

	source := configFile
	if source == "" {
		source = config.FindConfigFile()
	}
	if source == "" {
		source = "(none found)"
	}
	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (" + config.EnvPrefix + "*)")
	fmt.Println("3. .env files")
	fmt.Printf("4. Configuration file: %s\n", source)
	fmt.Println("5. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	path := configFile
	if path == "" {
		path = config.FindConfigFile()
	}
	if path == "" {
		ui.PrintError("No configuration file found", "Specify a file with --config flag")
		os.Exit(1)
	}

	ui.PrintInfo("Validating configuration", path)

	cfg, err := config.Load(path, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	var warnings []string
	if cfg.Bilibili.SESSDATA == "" {
		warnings = append(warnings, "SESSDATA not configured; a stored account will be needed")
	}
	if cfg.Enrich.Concurrency > 10 && !cfg.Enrich.Adaptive {
		warnings = append(warnings, "high concurrency without adaptive throttling is likely to be rate limited")
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			warnings = append(warnings, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Output directory: %s\n", cfg.Output.Directory)
	fmt.Printf("  Enrichment fields: %v\n", cfg.Enrich.Fields())
	fmt.Printf("  Concurrency: %d (adaptive: %t)\n", cfg.Enrich.Concurrency, cfg.Enrich.Adaptive)
	fmt.Printf("  Max retries: %d\n", cfg.Enrich.MaxRetries)
	fmt.Printf("  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
