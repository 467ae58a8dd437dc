package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"bilifollow/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
	verbose    bool
)

// rootCmd exports the following list when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "bilifollow",
	Short: "Export your Bilibili following list to a searchable HTML page",
	Long: `bilifollow reads the accounts you follow on Bilibili and saves them as a
single self-contained HTML document with client-side search.

Features:
  - Uses the cookies of a browser session you are already logged in with
  - Optional per-account enrichment (followers, likes, videos, level, official)
  - Bounded concurrency that backs off when the API rate limits
  - Secure credential storage using the system keychain
  - Plain progress line or an interactive terminal UI`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetColor(!noColor)
	},
	Args: cobra.NoArgs,
	RunE: runExport,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Red("Error: "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./bilifollow.yaml or ~/.config/bilifollow/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show debug logs alongside progress")

	addExportFlags(rootCmd)

	rootCmd.SetVersionTemplate(`bilifollow {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
