package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"bilifollow/pkg/auth"
	"bilifollow/pkg/config"
	"bilifollow/pkg/exporter"
	"bilifollow/pkg/logger"
	"bilifollow/pkg/ui"
	"bilifollow/pkg/ui/tui"
)

var (
	// Export command flags
	outputDir         string
	fields            string
	concurrency       int
	adaptive          bool
	maxRetries        int
	sortMode          string
	filterQuery       string
	pageSize          int
	accountName       string
	useTUI            bool
	overwrite         bool
	requestsPerMinute int
	notify            bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the following list of the logged-in account",
	Long: `Export every account you follow to bilibili_following_list_<date>.html.

Credentials are taken from, in order:
  - BILIFOLLOW_SESSDATA and friends (environment or .env)
  - the configuration file
  - an account stored with 'bilifollow auth login'

Enrichment is off by default. Each enriched field costs one request per
account (level and official share one), so large lists take a while.`,
	Example: `  # Export with defaults
  bilifollow export

  # Add follower and like counts, sorted by followers
  bilifollow export --fields followers,likes --sort followers

  # Everything, with the interactive UI and a gentler request rate
  bilifollow export --fields all --tui --requests-per-minute 120

  # Use a specific stored account
  bilifollow export --account alt`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	addExportFlags(exportCmd)
}

func addExportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default: current directory)")
	cmd.Flags().StringVarP(&fields, "fields", "f", "", "enrichment fields: followers,likes,videos,level,official, all or none")
	cmd.Flags().IntVar(&concurrency, "concurrency", 6, "enrichment worker count")
	cmd.Flags().BoolVar(&adaptive, "adaptive", true, "halve concurrency and stretch backoff when rate limited")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 2, "retries per request")
	cmd.Flags().StringVar(&sortMode, "sort", "default", "card order: default, followers or name")
	cmd.Flags().StringVar(&filterQuery, "filter", "", "only keep accounts whose name or bio fuzzy-matches")
	cmd.Flags().IntVar(&pageSize, "page-size", 50, "accounts per list page (max 50)")
	cmd.Flags().StringVarP(&accountName, "account", "a", "", "use specific stored account")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "use interactive terminal UI")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace today's file instead of adding a suffix")
	cmd.Flags().IntVar(&requestsPerMinute, "requests-per-minute", 0, "global request cap, 0 for none")
	cmd.Flags().BoolVar(&notify, "notifications", false, "desktop notification when the export ends")
}

// exportFlags collects the flags the user actually set
func exportFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	set := func(name string, value interface{}) {
		if cmd.Flags().Changed(name) {
			flags[name] = value
		}
	}

	set("output", outputDir)
	set("fields", fields)
	set("concurrency", concurrency)
	set("adaptive", adaptive)
	set("max-retries", maxRetries)
	set("sort", sortMode)
	set("filter", filterQuery)
	set("page-size", pageSize)
	set("overwrite", overwrite)
	set("requests-per-minute", requestsPerMinute)
	if cmd.Flags().Changed("notifications") {
		flags["notifications"] = notify
	}

	switch {
	case cmd.Flags().Changed("log-level"):
		flags["log-level"] = logLevel
	case verbose:
		flags["log-level"] = "debug"
	default:
		// Logs go to stderr and would tear the progress line
		flags["log-level"] = "error"
	}

	return flags
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, exportFlags(cmd))
	if err != nil {
		return err
	}
	if cfg.Logging.NoColor {
		ui.SetColor(false)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("bilifollow starting")

	lookup, err := applyCredentials(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var notifier *ui.Notifier
	if cfg.Notifications.Enabled {
		notifier = ui.NewNotifier()
	}

	if useTUI {
		return runWithTUI(ctx, cfg, exporter.Options{Notifier: notifier, AccountLookup: lookup})
	}

	var sink ui.Sink = ui.Discard
	if !quiet {
		ui.PrintBanner()
		sink = ui.NewProgressDisplay(os.Stdout)
	}

	exp, err := exporter.New(cfg, exporter.Options{Sink: sink, Notifier: notifier, AccountLookup: lookup})
	if err != nil {
		return err
	}

	summary, err := exp.Run(ctx)
	if err != nil {
		return err
	}

	if !quiet {
		printSummary(summary)
	}
	return nil
}

// runWithTUI runs the export in the background while the terminal UI owns
// the screen. Quitting the UI cancels the export.
func runWithTUI(ctx context.Context, cfg *config.Config, opts exporter.Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	terminal := tui.New(cancel)
	opts.Sink = terminal

	exp, err := exporter.New(cfg, opts)
	if err != nil {
		return err
	}

	type outcome struct {
		summary *exporter.Summary
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		summary, err := exp.Run(ctx)
		if err != nil {
			terminal.Quit()
		}
		done <- outcome{summary, err}
	}()

	if err := terminal.Run(); err != nil {
		cancel()
		<-done
		return fmt.Errorf("terminal UI failed: %w", err)
	}

	result := <-done
	if result.err != nil {
		return result.err
	}
	printSummary(result.summary)
	return nil
}

// applyCredentials fills in the session from a stored account when the
// configuration has none, and returns the lookup the identity chain falls
// back on
func applyCredentials(cfg *config.Config) (func() (string, error), error) {
	manager, err := auth.NewManager()
	if err != nil {
		logger.WithError(err).Warn("Credential store unavailable")
		if cfg.Bilibili.SESSDATA == "" {
			return nil, fmt.Errorf("no SESSDATA configured and credential store unavailable: %w", err)
		}
		return nil, nil
	}

	if accountName != "" || cfg.Bilibili.SESSDATA == "" {
		account, err := manager.Lookup(accountName)
		if err != nil {
			if errors.Is(err, auth.ErrCredentialsNotFound) {
				ui.PrintError("No Bilibili credentials found")
				fmt.Println("\nTo store your session cookies, run:")
				fmt.Println("  bilifollow auth login")
				fmt.Println("\nOr set them in the environment:")
				fmt.Println("  export " + auth.EnvSESSDATA + "=...")
			}
			return nil, err
		}
		cfg.Bilibili.SESSDATA = account.SESSDATA
		cfg.Bilibili.BiliJCT = account.BiliJCT
		cfg.Bilibili.DedeUserID = account.DedeUserID
		if account.UserAgent != "" {
			cfg.Bilibili.UserAgent = account.UserAgent
		}
		logger.WithField("account", account.Name).Info("Using stored credentials")
	}

	return func() (string, error) {
		account, err := manager.Lookup(accountName)
		if err != nil {
			return "", err
		}
		return account.DedeUserID, nil
	}, nil
}

func printSummary(s *exporter.Summary) {
	if s == nil {
		return
	}
	fmt.Println()
	ui.PrintInfo("User", strconv.FormatInt(s.Mid, 10))
	ui.PrintInfo("Accounts", strconv.Itoa(s.Entries))
	if s.Stats.Total > 0 {
		ui.PrintInfo("Enriched", fmt.Sprintf("%d (%s)", s.Enriched, s.Stats))
		if s.Reductions > 0 {
			ui.PrintWarning("Rate limited", fmt.Sprintf("concurrency lowered %d times", s.Reductions))
		}
	}
	ui.PrintSuccess("Saved " + s.Path)
}
