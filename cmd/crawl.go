package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jinwoo-dev/partywatch/internal/adapters"
	"github.com/jinwoo-dev/partywatch/internal/config"
	"github.com/jinwoo-dev/partywatch/internal/dates"
	"github.com/jinwoo-dev/partywatch/internal/enrich"
	"github.com/jinwoo-dev/partywatch/internal/fetch"
	"github.com/jinwoo-dev/partywatch/internal/fetch/headless"
	"github.com/jinwoo-dev/partywatch/internal/logging"
	"github.com/jinwoo-dev/partywatch/internal/notion"
	"github.com/jinwoo-dev/partywatch/internal/publish"
	"github.com/jinwoo-dev/partywatch/internal/scrape"
)

type crawlFlags struct {
	only         string
	exclude      string
	onlyCategory string
	onlyID       string
	dateFrom     string
	sample       int
	debug        string
	notion       bool
}

// newCrawlCmd creates the 'crawl' subcommand: collect records from every
// configured source and optionally publish them.
func newCrawlCmd() *cobra.Command {
	var flags crawlFlags

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Runs one collection pass over the configured sources",
		Long: `Crawls each configured listing page in order, extracts announcement
records, applies the recency filter, prints a sample, and (with --notion)
publishes the result to the configured Notion database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawl(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.only, "only", "", "run only one site id")
	cmd.Flags().StringVar(&flags.exclude, "exclude", "", "comma-separated site ids to exclude")
	cmd.Flags().StringVar(&flags.onlyCategory, "only-category", "", "run only one category name (exact match)")
	cmd.Flags().StringVar(&flags.onlyID, "only-id", "", "run only one source id (exact match)")
	cmd.Flags().StringVar(&flags.dateFrom, "date-from", "", "drop records published before this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&flags.sample, "sample", 15, "how many collected records to print")
	cmd.Flags().StringVar(&flags.debug, "debug", "", "comma-separated site ids for diagnostics")
	cmd.Flags().BoolVar(&flags.notion, "notion", false, "publish results to the Notion database")

	return cmd
}

func runCrawl(cmd *cobra.Command, flags crawlFlags) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	dateFrom := cfg.Run.DateFrom
	if flags.dateFrom != "" {
		dateFrom = flags.dateFrom
	}

	runID := uuid.NewString()
	rc := scrape.NewRunContext(runID, splitList(flags.debug))
	logger.Info("run starting", zap.String("run_id", runID))

	fetcher := fetch.New(fetch.Config{
		UserAgent:   cfg.HTTP.UserAgent,
		Timeout:     cfg.HTTPTimeout(),
		Retries:     cfg.HTTP.MaxRetries,
		BackoffBase: cfg.BackoffBase(),
	})
	extractor := &dates.Extractor{Now: time.Now, ReferenceYear: cfg.Run.ReferenceYear}

	registry := adapters.NewRegistry(adapters.Deps{
		Fetcher: fetcher,
		Dates:   extractor,
		Run:     rc,
		Logger:  logger,
	})
	runner := scrape.NewRunner(registry, scrape.SystemClock{}, scrape.RunnerConfig{
		SourceDelay: cfg.SourceDelay(),
		DateFrom:    dateFrom,
		KeepUndated: cfg.Run.KeepUndated,
	}, logger)

	targets := scrape.FilterTargets(cfg.Sources, flags.only, splitList(flags.exclude), flags.onlyCategory, flags.onlyID)
	if len(targets) == 0 {
		return fmt.Errorf("no sources match the given filters")
	}

	items := runner.Run(cmd.Context(), rc, targets)
	logger.Info("collection finished", zap.String("run_id", runID), zap.Int("records", len(items)))

	printSample(cmd, items, flags.sample)

	if !flags.notion {
		return nil
	}
	return publishToNotion(cmd, cfg, fetcher, extractor, logger, items)
}

func publishToNotion(cmd *cobra.Command, cfg config.Config, fetcher scrape.Fetcher, extractor *dates.Extractor, logger *zap.Logger, items []scrape.ListItem) error {
	if cfg.Notion.Token == "" || cfg.Notion.DatabaseID == "" {
		return fmt.Errorf("notion.token and notion.database_id must be set (PARTYWATCH_NOTION_TOKEN, PARTYWATCH_NOTION_DATABASE_ID)")
	}

	var renderer scrape.Renderer = headless.Noop{}
	if cfg.Headless.Enabled {
		r, err := headless.New(headless.Config{
			UserAgent:   cfg.HTTP.UserAgent,
			NavTimeout:  time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
			SettleDelay: time.Duration(cfg.Headless.SettleDelaySec) * time.Second,
		}, logger)
		if err != nil {
			logger.Warn("headless browser unavailable, detail pages use plain fetch", zap.Error(err))
		} else {
			defer r.Close()
			renderer = r
		}
	}

	enricher := enrich.New(fetcher, renderer, extractor, logger)
	dest := notion.New(cfg.Notion.Token, cfg.Notion.DatabaseID, logger)
	publisher := publish.New(dest, enricher, publish.Config{
		ExcludedURLs:    cfg.Publish.ExcludedURLs,
		CategoryRenames: cfg.Publish.CategoryRenames,
		CreatePace:      cfg.CreatePace(),
	}, logger)

	sum, err := publisher.Publish(cmd.Context(), items)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	cmd.Printf("created=%d skipped=%d\n", sum.Created, sum.Skipped)
	return nil
}

func printSample(cmd *cobra.Command, items []scrape.ListItem, limit int) {
	if limit <= 0 {
		return
	}
	if limit > len(items) {
		limit = len(items)
	}
	cmd.Printf("==== sample (%d of %d) ====\n", limit, len(items))
	for _, it := range items[:limit] {
		suffix := ""
		if it.Date != "" {
			suffix = fmt.Sprintf(" (%s)", it.Date)
		}
		cmd.Printf("- [%s/%s] %s%s\n  %s\n", it.Party, it.Category, it.Title, suffix, it.URL)
	}
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
