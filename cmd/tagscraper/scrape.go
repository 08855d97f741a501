package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"tagscraper/pkg/auth"
	"tagscraper/pkg/config"
	"tagscraper/pkg/logger"
	"tagscraper/pkg/scraper"
	"tagscraper/pkg/ui"
)

var (
	// Scrape command flags
	category        string
	minPosts        int
	order           string
	includeMetadata bool
	delay           time.Duration
	forceRestart    bool
	keepCheckpoint  bool
	backoffStrategy string
	username        string
	apiKey          string
	accountName     string
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <output-file>",
	Short: "Collect the tag listing into a text file",
	Long: `Collect the tag listing into a flat text file, one tag per line.

The run is resumable: progress is checkpointed next to the output file
(<output-file>.state.json) after every page, and an interrupted run
picks up at the checkpointed page. Already-collected tags are reloaded
from the output file and never emitted twice.

With --category all, every category is fetched at once sorted by post
count. This mode has no checkpointing and restarts from page 1 on
every invocation.`,
	Example: `  # Collect general tags alphabetically
  tagscraper scrape tags.txt

  # Character tags with at least 100 posts, with metadata columns
  tagscraper scrape characters.txt --category character --min-posts 100 --metadata

  # Everything, most popular first
  tagscraper scrape all_tags.txt --category all --order count

  # Keep the checkpoint when interrupting with Ctrl-C
  tagscraper scrape tags.txt --keep-checkpoint

  # Authenticated run
  tagscraper scrape tags.txt --username myuser --api-key mykey`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runScrape(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVar(&category, "category", "general", "tag category (general, artist, copyright, character, meta, all)")
	scrapeCmd.Flags().IntVar(&minPosts, "min-posts", 0, "minimum post count filter")
	scrapeCmd.Flags().StringVar(&order, "order", "name", "sort order (name, newest, count)")
	scrapeCmd.Flags().BoolVar(&includeMetadata, "metadata", false, "include post count and category columns")
	scrapeCmd.Flags().DurationVar(&delay, "delay", 500*time.Millisecond, "delay between page requests")
	scrapeCmd.Flags().BoolVar(&forceRestart, "force-restart", false, "ignore an existing checkpoint and start from page 1")
	scrapeCmd.Flags().BoolVar(&keepCheckpoint, "keep-checkpoint", false, "retain the checkpoint when interrupted")
	scrapeCmd.Flags().StringVar(&backoffStrategy, "backoff", "fixed", "rate limit backoff strategy (fixed, exponential)")
	scrapeCmd.Flags().StringVar(&username, "username", "", "account username for authenticated requests")
	scrapeCmd.Flags().StringVar(&apiKey, "api-key", "", "API key for authenticated requests")
	scrapeCmd.Flags().StringVarP(&accountName, "account", "a", "", "use a stored account (see 'tagscraper auth')")
}

func runScrape(cmd *cobra.Command, args []string) {
	outputFile := strings.TrimSpace(args[0])
	if !strings.HasSuffix(outputFile, ".txt") {
		outputFile += ".txt"
	}

	if logLevel == "error" {
		ui.SetQuietMode(true)
	}

	ui.PrintInfo("Output file", outputFile)

	// Build flags map from command line
	flags := map[string]interface{}{
		"output": outputFile,
	}
	if cmd.Flags().Changed("category") {
		flags["category"] = category
	}
	if cmd.Flags().Changed("min-posts") {
		flags["min-posts"] = minPosts
	}
	if cmd.Flags().Changed("order") {
		flags["order"] = order
	}
	if cmd.Flags().Changed("metadata") {
		flags["metadata"] = includeMetadata
	}
	if cmd.Flags().Changed("delay") {
		flags["delay"] = delay
	}
	if cmd.Flags().Changed("keep-checkpoint") {
		flags["keep-checkpoint"] = keepCheckpoint
	}
	if cmd.Flags().Changed("backoff") {
		flags["backoff-strategy"] = backoffStrategy
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	// Credentials: explicit flags win, then a stored account
	if username != "" && apiKey != "" {
		flags["username"] = username
		flags["api-key"] = apiKey
	} else if account := lookupAccount(accountName); account != nil {
		flags["username"] = account.Username
		flags["api-key"] = account.APIKey
		ui.PrintInfo("Account", account.Username)
	}

	// Load configuration
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}

	s, err := scraper.New(cfg)
	if err != nil {
		ui.PrintError("Failed to initialize scraper", err.Error())
		os.Exit(1)
	}

	// Ctrl-C triggers a final flush and normal cleanup
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Scrape.Category == "all" {
		err = s.RunAll(ctx)
	} else {
		err = s.Run(ctx, forceRestart)
	}

	if err != nil {
		logger.WithError(err).Error("scrape failed")
		ui.PrintError("Scrape failed", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Done")
}

// lookupAccount resolves stored credentials. With an empty name the
// default account is used if one exists; a missing default is fine, a
// missing named account is fatal.
func lookupAccount(name string) *auth.Account {
	manager, err := auth.NewManager()
	if err != nil {
		return nil
	}

	if name == "" {
		account, err := manager.RetrieveDefault()
		if err != nil {
			return nil
		}
		return account
	}

	account, err := manager.Retrieve(name)
	if err != nil {
		ui.PrintError("Account not found", name)
		os.Exit(1)
	}
	return account
}
