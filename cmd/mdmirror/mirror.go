package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mdmirror/mdmirror/internal/config"
	"github.com/mdmirror/mdmirror/internal/convert"
	"github.com/mdmirror/mdmirror/internal/crawler"
	"github.com/mdmirror/mdmirror/internal/database"
	"github.com/mdmirror/mdmirror/internal/log"
	"github.com/mdmirror/mdmirror/internal/model"
	"github.com/mdmirror/mdmirror/internal/pipeline"
	"github.com/mdmirror/mdmirror/internal/report"
	"github.com/mdmirror/mdmirror/internal/rewrite"
	"github.com/mdmirror/mdmirror/internal/storage"
	"github.com/mdmirror/mdmirror/internal/urlx"
)

// errNoPages is returned when a run produces zero output files.
// It is the only condition that makes the mirror command exit non-zero;
// per-page failures are reported but still count as a useful run as
// long as at least one page made it to disk.
var errNoPages = errors.New("no pages were mirrored")

// NewMirrorCmd creates the mirror command.
func NewMirrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror [url...]",
		Short: "Mirror a documentation site as Markdown",
		Long: `Mirror crawls a documentation site from the start URL, converts every
discovered page to Markdown through the Jina Reader API, rewrites links
between mirrored pages to relative local paths, and writes the result
under the output directory.

The crawl stays inside the start URL's directory; --parent-levels widens
the scope one directory at a time, never above the host root. URLs
without a scheme are treated as https.

Examples:
  # Mirror a single page
  mdmirror mirror https://docs.example.com/guide/

  # Mirror two levels deep into a custom directory
  mdmirror mirror -d 2 -o docs-mirror https://docs.example.com/guide/

  # Mirror several sites in one run
  mdmirror mirror https://docs.a.com/ https://docs.b.com/

  # Write a Markdown manifest next to the files
  mdmirror mirror -d 1 --markdown --report-file mirror/MANIFEST.md https://docs.example.com/

Configuration file (.mdmirror) example:
  defaults:
    depth: 1
  sites:
    docs.example.com:
      apiKey: "jina_..."
      headers:
        Cookie: "session=abc123"
      depth: 3`,
		Args: cobra.MinimumNArgs(1),
		RunE: runMirrorCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("depth", "d", config.DefaultCrawlDepth,
		"Maximum link distance from the start URL (0 mirrors only the start page)")
	cmd.Flags().IntP("parent-levels", "P", config.DefaultParentLevels,
		"Widen the crawl scope this many directories above the start URL")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request timeout for fetches and conversions")
	cmd.Flags().Int("concurrency", config.DefaultConcurrency,
		"Parallel fetches per depth level and parallel conversions")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Delay between request starts (politeness)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header for all requests")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Directory to write mirrored files under")

	// Conversion flags
	cmd.Flags().StringP("api-key", "k", "",
		"Jina Reader API key (default: "+config.APIKeyEnvVar+" environment variable)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .mdmirror in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown manifest (mutually exclusive with --json)")
	cmd.Flags().String("report-file", "",
		"Write the report to this file instead of stdout")

	// History flags
	cmd.Flags().Bool("no-save", false,
		"Do not record this run in the history database")

	return cmd
}

// runMirrorCmd executes the mirror command.
func runMirrorCmd(cmd *cobra.Command, args []string) error {
	cfg, roots, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runMirror(ctx, cfg, roots, logger)
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

// ensureScheme treats scheme-less URLs as https.
func ensureScheme(raw string) string {
	if strings.Contains(raw, "://") {
		return raw
	}
	return "https://" + raw
}

// buildConfig creates a Config from cobra command flags.
// The returned slice holds the start URLs with schemes filled in.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, []string, error) {
	cfg := config.NewConfig()

	var err error

	cfg.CrawlDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, nil, err
	}
	cfg.ParentLevels, err = cmd.Flags().GetInt("parent-levels")
	if err != nil {
		return nil, nil, err
	}
	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, nil, err
	}
	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, nil, err
	}
	cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, nil, err
	}
	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, nil, err
	}
	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size")
	if err != nil {
		return nil, nil, err
	}
	cfg.OutputDir, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, nil, err
	}
	cfg.APIKey, err = cmd.Flags().GetString("api-key")
	if err != nil {
		return nil, nil, err
	}
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, err
	}
	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, nil, err
	}
	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, nil, err
	}
	cfg.ReportFile, err = cmd.Flags().GetString("report-file")
	if err != nil {
		return nil, nil, err
	}
	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, nil, err
	}
	cfg.SaveHistory = !noSave
	cfg.DBDir = config.XDGDataDir()
	cfg.Verbose = getVerboseFlag(cmd)

	if err := loadSiteConfigs(cfg); err != nil {
		return nil, nil, err
	}

	roots := make([]string, len(args))
	for i, arg := range args {
		roots[i] = ensureScheme(arg)
	}
	if len(roots) > 0 {
		cfg.StartURL = roots[0]
	}

	return cfg, roots, nil
}

// loadSiteConfigs loads the optional config file.
// An explicitly specified file must exist; the default search locations
// may be silently absent.
func loadSiteConfigs(cfg *config.Config) error {
	explicit := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		sc, err := config.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.SiteConfigs = sc
		return nil
	}
	if explicit {
		return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}
	cfg.SiteConfigs = &config.File{
		Sites: make(map[string]config.SiteConfig),
	}
	return nil
}

// runMirror executes the mirror run(s).
func runMirror(ctx context.Context, cfg *config.Config, roots []string, logger *slog.Logger) error {
	logger.Info("starting mirror",
		"roots", roots,
		"depth", cfg.CrawlDepth,
		"output", cfg.OutputDir,
		"saveHistory", cfg.SaveHistory,
	)

	var db *database.MirrorDB
	if cfg.SaveHistory {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()
		logger.Debug("history database opened", "dir", cfg.DBDir)
	}

	if len(roots) > 1 {
		return runBatchMirror(ctx, cfg, roots, db, logger)
	}
	return runSingleMirror(ctx, cfg, roots[0], db, logger)
}

// runSingleMirror mirrors one root with its site-specific settings.
func runSingleMirror(ctx context.Context, cfg *config.Config, root string, db *database.MirrorDB, logger *slog.Logger) error {
	siteCfg := siteConfigFor(cfg, root)
	depth := cfg.CrawlDepth
	if siteCfg.Depth > 0 {
		depth = siteCfg.Depth
	}

	p := buildPipeline(cfg, siteCfg, db, logger)
	run := model.NewMirrorRun(root, depth, cfg.ParentLevels)

	fmt.Printf("Mirroring %s...\n", root)
	startTime := time.Now()

	if err := p.Execute(ctx, run); err != nil {
		return fmt.Errorf("mirror failed for %s: %w", root, err)
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}

	fmt.Printf("Mirrored %d page(s) in %s\n", run.WrittenCount(), time.Since(startTime).Round(time.Millisecond))

	if err := outputReport(cfg, run); err != nil {
		logger.Error("report output failed", "error", err)
	}

	return runOutcome(run)
}

// runOutcome decides the mirror command's exit status from the
// finished runs. Discovery alone is not success: a run whose every
// page failed leaves nothing on disk and fails overall.
func runOutcome(runs ...*model.MirrorRun) error {
	for _, run := range runs {
		if run.WrittenCount() > 0 {
			return nil
		}
	}
	return errNoPages
}

// runBatchMirror mirrors several roots concurrently.
// Per-site settings from the config file are ignored in batch mode;
// building a distinct pipeline per root would also need a distinct
// output mapping, so batch runs use the global settings only.
func runBatchMirror(ctx context.Context, cfg *config.Config, roots []string, db *database.MirrorDB, logger *slog.Logger) error {
	if len(cfg.SiteConfigs.Sites) > 0 {
		fmt.Fprintln(os.Stderr, "Warning: site-specific configurations are ignored when mirroring several roots at once.")
	}

	fmt.Printf("Mirroring %d sites...\n", len(roots))
	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return buildPipeline(cfg, cfg.SiteConfigs.Defaults, db, logger)
		},
		pipeline.WithBatchLogger(logger),
	)

	runs, err := bp.ProcessBatch(ctx, roots, cfg.CrawlDepth, cfg.ParentLevels)
	if err != nil {
		return err
	}

	for _, run := range runs {
		if err := outputReport(cfg, run); err != nil {
			logger.Error("report output failed", "root", run.Root, "error", err)
		}
	}

	fmt.Printf("Mirrored %d sites in %s\n", len(roots), time.Since(startTime).Round(time.Millisecond))

	return runOutcome(runs...)
}

// siteConfigFor returns the merged site configuration for a root URL.
func siteConfigFor(cfg *config.Config, root string) config.SiteConfig {
	if cfg.SiteConfigs == nil {
		return config.SiteConfig{}
	}
	u, err := url.Parse(root)
	if err != nil {
		return cfg.SiteConfigs.Defaults
	}
	return cfg.SiteConfigs.GetSiteConfig(u.Hostname())
}

// newNormalizer builds the URL normalizer shared by discovery and
// rewriting, with site overrides applied on top of the global lists.
func newNormalizer(cfg *config.Config, siteCfg config.SiteConfig) *urlx.Normalizer {
	revParams := make(map[string]string, len(cfg.RevisionParams)+len(siteCfg.RevisionParams))
	for k, v := range cfg.RevisionParams {
		revParams[k] = v
	}
	for k, v := range siteCfg.RevisionParams {
		revParams[k] = v
	}

	aliases := cfg.IndexAliases
	if len(siteCfg.IndexAliases) > 0 {
		aliases = siteCfg.IndexAliases
	}

	return urlx.NewNormalizer(
		urlx.WithRevisionParams(revParams),
		urlx.WithIndexAliases(aliases),
	)
}

// buildPipeline assembles the full mirror pipeline for one site config.
func buildPipeline(cfg *config.Config, siteCfg config.SiteConfig, db *database.MirrorDB, logger *slog.Logger) *pipeline.Pipeline {
	norm := newNormalizer(cfg, siteCfg)
	httpClient := &http.Client{Timeout: cfg.Timeout}

	fetcherOpts := []crawler.FetcherOption{
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
	}
	if len(siteCfg.Headers) > 0 {
		fetcherOpts = append(fetcherOpts, crawler.WithHeaders(siteCfg.Headers))
	}
	fetcher := crawler.NewHTTPFetcher(httpClient, fetcherOpts...)

	discoverer := crawler.NewDiscoverer(fetcher,
		crawler.WithNormalizer(norm),
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithDelay(cfg.CrawlDelay),
		crawler.WithLogger(logger),
	)

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = siteCfg.APIKey
	}
	if apiKey == "" {
		apiKey = os.Getenv(config.APIKeyEnvVar)
	}
	converter := convert.NewJinaClient(httpClient,
		convert.WithAPIKey(apiKey),
		convert.WithUserAgent(cfg.UserAgent),
		convert.WithMaxBodySize(cfg.MaxBodySize),
	)

	p := pipeline.New(
		pipeline.WithLogger(logger),
	)
	p.AddSteps(
		pipeline.NewDiscoverStep(discoverer, pipeline.WithDiscoverLogger(logger)),
		pipeline.NewMapStep(),
		pipeline.NewConvertStep(converter,
			pipeline.WithConvertConcurrency(cfg.Concurrency),
			pipeline.WithConvertDelay(cfg.CrawlDelay),
			pipeline.WithConvertLogger(logger),
		),
		pipeline.NewRewriteStep(rewrite.NewRewriter(rewrite.WithNormalizer(norm))),
		pipeline.NewPersistStep(storage.NewDirStore(cfg.OutputDir), pipeline.WithPersistLogger(logger)),
	)
	if db != nil {
		p.AddStep(pipeline.NewRecordStep(db, pipeline.WithRecordLogger(logger)))
	}
	return p
}

// outputReport writes the run report in the requested format.
func outputReport(cfg *config.Config, run *model.MirrorRun) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := w.Write(run)
	return err
}
