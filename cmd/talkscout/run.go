package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/talkscout/internal/config"
	"github.com/IshaanNene/talkscout/internal/engine"
	"github.com/IshaanNene/talkscout/internal/enrich"
	"github.com/IshaanNene/talkscout/internal/fetcher"
	"github.com/IshaanNene/talkscout/internal/listing"
	"github.com/IshaanNene/talkscout/internal/observability"
	"github.com/IshaanNene/talkscout/internal/storage"
)

var (
	searchURL  string
	sortOrder  string
	topics     string
	topCount   int
	outputType string
	outputPath string
	delay      string
	headful    bool
)

// runCmd creates the "run" subcommand.
func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Discover, enrich and rank talks",
		Long: `Run one full pass: expand the listing, filter by duration, load every detail
page for views and year, keep the configured year range, rank by views and save
the top and bottom sets with their transcripts.`,
		Args: cobra.NoArgs,
		RunE: runPipeline,
	}

	cmd.Flags().StringVarP(&searchURL, "search-url", "u", "", "listing URL (overrides topics and sort)")
	cmd.Flags().StringVar(&sortOrder, "sort", "", "listing sort order: "+strings.Join(config.SortOrders, " or "))
	cmd.Flags().StringVarP(&topics, "topics", "t", "", "comma-separated topics")
	cmd.Flags().IntVarP(&topCount, "top", "n", 0, "size of the top and bottom sets")
	cmd.Flags().StringVarP(&outputType, "format", "f", "", "output format: json, jsonl, csv, mongodb (comma-separated for several)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output directory")
	cmd.Flags().StringVar(&delay, "delay", "", "delay between detail page loads")
	cmd.Flags().BoolVar(&headful, "headful", false, "show the browser window")

	return cmd
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := applyCLIOverrides(cfg); err != nil {
		return err
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	target := searchURL
	if target == "" {
		target = listing.BuildSearchURL(cfg.Search.BaseURL, cfg.Search.Topics, cfg.Search.Sort, cfg.Search.Language)
	}
	if err := config.ValidateURL(target); err != nil {
		return fmt.Errorf("invalid search URL %q: %w", target, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Browser session for the listing and, by default, the detail pages.
	session, err := fetcher.NewSession(cfg, logger)
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer session.Close()

	page, err := session.NewPage()
	if err != nil {
		return fmt.Errorf("open listing page: %w", err)
	}
	collector := listing.NewCollector(page, cfg.Listing, logger)

	var loader fetcher.Loader = session
	if cfg.Detail.Loader == "http" {
		httpLoader, err := fetcher.NewHTTPLoader(cfg.Detail, logger)
		if err != nil {
			return fmt.Errorf("create http loader: %w", err)
		}
		defer httpLoader.Close()
		loader = httpLoader
	}

	exporter, err := storage.NewExporter(cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}
	defer func() {
		if err := exporter.Close(); err != nil {
			logger.Error("close storage", "backend", exporter.Name(), "error", err)
		}
	}()

	metrics := observability.NewMetrics(logger)
	if cfg.Metrics.Enabled {
		if err := metrics.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	eng := engine.New(cfg.Filter, collector, enrich.NewEnricher(loader, logger), logger)
	eng.SetThrottle(engine.NewFixedDelay(cfg.Politeness.RequestDelay))
	eng.SetExporter(exporter)
	eng.SetTranscriptSink(storage.NewTranscriptWriter(cfg.Storage.TranscriptsDir, logger))
	eng.SetDebugSink(storage.NewDebugDumper(cfg.Storage.DebugDir, logger))
	eng.SetMetrics(metrics)

	res, err := eng.Run(ctx, target)
	if err != nil && res == nil {
		return err
	}

	printSummary(res, cfg)
	if err != nil {
		return fmt.Errorf("run interrupted: %w", err)
	}
	return nil
}

func printSummary(res *engine.Result, cfg *config.Config) {
	fmt.Printf("\nRun complete in %s\n", res.Elapsed.Round(time.Millisecond))
	fmt.Printf("   Discovered:  %d cards, %d unique\n", res.Discovered, res.Unique)
	if res.DurationFallback {
		fmt.Printf("   Duration:    none in range, kept all %d\n", res.InDuration)
	} else {
		fmt.Printf("   Duration:    %d in range\n", res.InDuration)
	}
	fmt.Printf("   Enriched:    %d, %d in year range\n", res.Enriched, res.InYear)
	fmt.Printf("   Transcripts: %d\n", res.Transcripts)
	fmt.Printf("   Output:      %s (%s)\n\n", cfg.Storage.OutputPath, cfg.Storage.Type)

	if len(res.Records) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Set", "#", "Title", "Presenter", "Duration", "Views", "Year"})
	for _, r := range res.Records {
		t.AppendRow(table.Row{r.Label, r.Rank, truncate(r.Item.Title, 48), r.Item.Presenter, r.Item.Duration, r.Item.Views, r.Item.Year})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) error {
	if sortOrder != "" {
		cfg.Search.Sort = sortOrder
	}
	if topics != "" {
		var list []string
		for _, t := range strings.Split(topics, ",") {
			if t = strings.TrimSpace(t); t != "" {
				list = append(list, t)
			}
		}
		cfg.Search.Topics = list
	}
	if topCount > 0 {
		cfg.Filter.TopCount = topCount
	}
	if outputType != "" {
		cfg.Storage.Type = strings.ToLower(outputType)
	}
	if outputPath != "" {
		cfg.Storage.OutputPath = outputPath
	}
	if delay != "" {
		d, err := time.ParseDuration(delay)
		if err != nil {
			return fmt.Errorf("invalid --delay %q: %w", delay, err)
		}
		cfg.Politeness.RequestDelay = d
	}
	if headful {
		cfg.Browser.Headless = false
	}
	return nil
}
