package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mdmirror/mdmirror/internal/config"
	"github.com/mdmirror/mdmirror/internal/crawler"
	"github.com/mdmirror/mdmirror/internal/log"
	"github.com/mdmirror/mdmirror/internal/model"
	"github.com/mdmirror/mdmirror/internal/pipeline"
)

// linkEntry is one line of links output: a canonical page URL and the
// local path it would be mirrored to.
type linkEntry struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// NewLinksCmd creates the links command.
func NewLinksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links [url]",
		Short: "List pages a mirror run would fetch, without mirroring",
		Long: `Links performs discovery and path mapping only: it crawls the site the
same way mirror would, then prints each canonical page URL together
with the local file it would be written to. Nothing is converted and
nothing is written to disk.

Use it to preview the scope of a mirror run before spending Reader API
quota on it.

Examples:
  # Preview a depth-2 mirror
  mdmirror links -d 2 https://docs.example.com/guide/

  # Machine-readable output
  mdmirror links -d 2 --json https://docs.example.com/guide/`,
		Args: cobra.ExactArgs(1),
		RunE: runLinksCmd,
	}

	cmd.Flags().IntP("depth", "d", config.DefaultCrawlDepth,
		"Maximum link distance from the start URL (0 lists only the start page)")
	cmd.Flags().IntP("parent-levels", "P", config.DefaultParentLevels,
		"Widen the crawl scope this many directories above the start URL")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request timeout for fetches")
	cmd.Flags().Int("concurrency", config.DefaultConcurrency,
		"Parallel fetches per depth level")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Delay between request starts (politeness)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header for all requests")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .mdmirror in current or home directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Output the listing as JSON")

	return cmd
}

// runLinksCmd executes the links command.
func runLinksCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildLinksConfig(cmd, args)
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

	return runLinks(ctx, cfg, logger, cmd.OutOrStdout())
}

// buildLinksConfig creates a Config from the links command's flags.
// The links command has no output, conversion, or history settings;
// everything else mirrors the mirror command.
func buildLinksConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.CrawlDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}
	cfg.ParentLevels, err = cmd.Flags().GetInt("parent-levels")
	if err != nil {
		return nil, err
	}
	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}
	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}
	cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}
	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}
	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if err := loadSiteConfigs(cfg); err != nil {
		return nil, err
	}

	cfg.StartURL = ensureScheme(args[0])
	return cfg, nil
}

// runLinks runs discovery and mapping and prints the listing.
func runLinks(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	siteCfg := siteConfigFor(cfg, cfg.StartURL)
	depth := cfg.CrawlDepth
	if siteCfg.Depth > 0 {
		depth = siteCfg.Depth
	}

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

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddSteps(
		pipeline.NewDiscoverStep(discoverer, pipeline.WithDiscoverLogger(logger)),
		pipeline.NewMapStep(),
	)

	run := model.NewMirrorRun(cfg.StartURL, depth, cfg.ParentLevels)
	if err := p.Execute(ctx, run); err != nil {
		return fmt.Errorf("discovery failed for %s: %w", cfg.StartURL, err)
	}

	entries := make([]linkEntry, 0, len(run.Pages))
	for _, page := range run.Pages {
		entries = append(entries, linkEntry{URL: page.URL, Path: page.LocalPath})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].URL < entries[j].URL })

	if cfg.JSONReport {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	for _, e := range entries {
		fmt.Fprintf(out, "%s -> %s\n", e.URL, e.Path)
	}
	fmt.Fprintf(out, "\n%d page(s) in scope\n", len(entries))

	for _, f := range run.DiscoveryFailures {
		fmt.Fprintf(os.Stderr, "fetch failed: %s: %s\n", f.URL, f.Reason)
	}
	return nil
}
