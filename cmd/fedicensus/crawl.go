package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"

	"github.com/fedicensus/fedicensus/internal/config"
	"github.com/fedicensus/fedicensus/internal/crawler"
	"github.com/fedicensus/fedicensus/internal/database"
	"github.com/fedicensus/fedicensus/internal/fediverse"
	"github.com/fedicensus/fedicensus/internal/log"
	"github.com/fedicensus/fedicensus/internal/model"
	"github.com/fedicensus/fedicensus/internal/report"
	"github.com/fedicensus/fedicensus/internal/transport"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [instance...]",
		Short: "Crawl federated instances and report network statistics",
		Long: `Crawl walks the federation graph starting from the given seed instances.

Each instance is fetched once: its node information identifies the software,
a software-specific API call collects the statistics, and the advertised
peer list feeds new instances into the crawl. The finished report sums the
network totals and lists every instance, largest first.

Examples:
  # Crawl starting from one seed
  fedicensus crawl lemmy.ml

  # Crawl from multiple seeds with higher concurrency
  fedicensus crawl -k 25 lemmy.ml lemmy.world

  # Limit the crawl to two peer hops from the seeds
  fedicensus crawl --max-distance 2 lemmy.ml

  # Output compressed JSON to a file
  fedicensus crawl -j -o report.json.gz --compress lemmy.ml

  # Crawl through a SOCKS5 proxy at a polite request rate
  fedicensus crawl --proxy 127.0.0.1:1080 --request-rate 10 lemmy.ml

Configuration file (.fedicensus) example:
  seeds:
    - lemmy.ml
  exclude:
    - spam.example
  concurrency: 25
  crawl_timeout: 10m`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("concurrency", "k", config.DefaultConcurrency,
		"Number of concurrent instance fetches")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().Duration("crawl-timeout", 0,
		"Global time limit for the whole crawl (0 = none)")
	cmd.Flags().Int("max-distance", config.DefaultMaxDistance,
		"Maximum peer hops from a seed (0 = seeds only, -1 = unbounded)")
	cmd.Flags().StringSliceP("exclude", "x", nil,
		"Instances to exclude from the crawl (repeatable)")
	cmd.Flags().String("min-lemmy-version", "",
		"Reject Lemmy instances older than this version (e.g. 0.19.0)")

	// Network flags
	cmd.Flags().Float64("request-rate", 0,
		"Maximum outbound requests per second across all workers (0 = unlimited)")
	cmd.Flags().String("proxy", "",
		"Route all requests through a SOCKS5 proxy at host:port")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .fedicensus in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("compress", false,
		"Gzip the report output (requires --output)")
	cmd.Flags().Bool("no-save", false,
		"Do not record this crawl in the history database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.New(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown.
	// On interruption the crawl finalizes a partial report.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, finishing with partial results...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the config file and cobra flags.
// Precedence is defaults < file < flags: the file is applied first, then
// any flag the user actually set overrides it.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	explicitPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath = explicitPath

	configPath := config.FindConfigFile(explicitPath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if explicitPath != "" {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", explicitPath)
	}

	flags := cmd.Flags()

	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("crawl-timeout") {
		if cfg.CrawlTimeout, err = flags.GetDuration("crawl-timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-distance") {
		if cfg.MaxDistance, err = flags.GetInt("max-distance"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("min-lemmy-version") {
		if cfg.MinLemmyVersion, err = flags.GetString("min-lemmy-version"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("request-rate") {
		if cfg.RequestRate, err = flags.GetFloat64("request-rate"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}

	exclude, err := flags.GetStringSlice("exclude")
	if err != nil {
		return nil, err
	}
	cfg.Exclude = append(cfg.Exclude, exclude...)

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.Compress, err = flags.GetBool("compress"); err != nil {
		return nil, err
	}

	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave
	cfg.Verbose = getVerboseFlag(cmd)

	// Flag-supplied seeds extend the configured ones.
	cfg.Seeds = append(cfg.Seeds, args...)

	return cfg, nil
}

// runCrawl executes the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"seeds", cfg.Seeds,
		"concurrency", cfg.Concurrency,
		"maxDistance", cfg.MaxDistance,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.CrawlDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	// Build the HTTP layer, verifying the proxy before any crawling.
	clientOpts := []transport.Option{
		transport.WithUserAgent(cfg.UserAgent),
	}
	if cfg.RequestRate > 0 {
		clientOpts = append(clientOpts, transport.WithRequestRate(cfg.RequestRate))
	}
	if cfg.ProxyAddress != "" {
		clientOpts = append(clientOpts, transport.WithProxy(cfg.ProxyAddress))
	}

	client, err := transport.NewClient(cfg.Timeout, clientOpts...)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	if cfg.ProxyAddress != "" {
		if status := client.CheckProxy(ctx); status != transport.ProxyStatusOK {
			return fmt.Errorf("proxy check failed: %s (make sure a SOCKS5 proxy is running at %s)",
				status, cfg.ProxyAddress)
		}
		logger.Info("proxy connection verified", "address", cfg.ProxyAddress)
	}

	// Statistics sources, with the optional Lemmy version floor.
	lemmyOpts := []fediverse.LemmyOption{}
	if cfg.MinLemmyVersion != "" {
		lemmyOpts = append(lemmyOpts, fediverse.WithMinVersion(cfg.MinLemmyVersion))
	}
	fetcher := fediverse.NewFetcher(client.HTTPClient(),
		fediverse.WithLogger(logger),
		fediverse.WithSources(
			fediverse.NewLemmySource(lemmyOpts...),
			fediverse.NewMastodonSource(),
		),
	)

	frontier := crawler.NewFrontier(cfg.MaxDistance)
	frontier.Exclude(cfg.Exclude)
	if accepted := frontier.Seed(cfg.Seeds); accepted == 0 {
		return fmt.Errorf("none of the %d seed addresses are usable", len(cfg.Seeds))
	}

	// The global crawl limit shares the cancellation path with SIGINT:
	// either way the engine finalizes a partial report.
	crawlCtx := ctx
	if cfg.CrawlTimeout > 0 {
		var cancel context.CancelFunc
		crawlCtx, cancel = context.WithTimeout(ctx, cfg.CrawlTimeout)
		defer cancel()
	}

	engine := crawler.NewEngine(fetcher,
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithLogger(logger),
	)

	startTime := time.Now()
	crawlReport, err := engine.Run(crawlCtx, frontier)
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}
	logger.Info("crawl finished",
		"instances", crawlReport.CrawledInstances,
		"failures", len(crawlReport.FailedInstances),
		"elapsed", time.Since(startTime).Round(time.Millisecond),
	)

	if err := outputReport(cfg, crawlReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return saveCrawlReport(ctx, db, crawlReport, logger)
}

// outputReport writes the crawl report in the requested format.
func outputReport(cfg *config.Config, crawlReport *model.Report) error {
	var output io.Writer = os.Stdout

	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f

		if cfg.Compress {
			gz := gzip.NewWriter(f)
			defer gz.Close()
			output = gz
		}
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewTextWriter(output)
	}

	_, err := writer.Write(crawlReport)
	return err
}

// saveCrawlReport records the crawl in the history database if enabled.
// If db is nil, this function is a no-op.
func saveCrawlReport(ctx context.Context, db *database.CrawlDB, crawlReport *model.Report, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	// An interrupted crawl still gets saved; the report is valid partial
	// data and the Interrupted flag travels with it.
	runID, err := db.SaveReport(context.WithoutCancel(ctx), crawlReport)
	if err != nil {
		return fmt.Errorf("failed to save crawl report: %w", err)
	}

	logger.Info("crawl report saved to database", "runID", runID)
	fmt.Fprintf(os.Stderr, "Saved crawl run %s\n", runID)
	return nil
}
