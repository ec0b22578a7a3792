package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen for polite, predictable mirroring of public
// documentation sites.
const (
	// DefaultCrawlDepth of 0 discovers only the start page. Depth is an
	// explicit opt-in because documentation trees fan out quickly.
	DefaultCrawlDepth = 0

	// DefaultParentLevels of 0 keeps the scope at the start URL's own
	// path. Each additional level widens the scope one directory toward
	// the host root.
	DefaultParentLevels = 0

	// DefaultTimeout is the connection timeout per HTTP request.
	// 60 seconds accommodates the conversion service, which renders
	// pages and is much slower than a plain fetch.
	DefaultTimeout = 60 * time.Second

	// DefaultConcurrency bounds parallel fetches within one crawl depth
	// level and parallel conversions. Four keeps a single origin host
	// comfortable.
	DefaultConcurrency = 4

	// DefaultCrawlDelay is the delay between fetch starts during
	// discovery. Politeness setting; zero by default because depth-0
	// runs issue a single request.
	DefaultCrawlDelay = 0 * time.Second

	// DefaultUserAgent identifies mdmirror in HTTP requests.
	DefaultUserAgent = "mdmirror/1.0 (+https://github.com/mdmirror/mdmirror)"

	// DefaultMaxBodySize limits the response body size read per page.
	// 10MB covers any realistic documentation page.
	DefaultMaxBodySize = 10 * 1024 * 1024

	// DefaultOutputDir is where mirrored files are written.
	DefaultOutputDir = "mirror"

	// APIKeyEnvVar is the environment variable consulted for the Jina
	// Reader API key when no flag or config value provides one.
	APIKeyEnvVar = "JINA_AI_API_KEY"

	// AppName is the application name used for XDG directory paths.
	AppName = "mdmirror"
)

// Config holds all configuration options for mdmirror.
// It is populated from CLI flags and the optional config file, then
// passed through the application by dependency injection rather than
// global state.
type Config struct {
	// StartURL is the page discovery begins from. A missing scheme is
	// treated as https.
	StartURL string

	// OutputDir is the directory mirrored files are written under.
	OutputDir string

	// CrawlDepth is the maximum link distance from the start URL.
	// 0 mirrors only the start page.
	CrawlDepth int

	// ParentLevels widens the crawl scope upward from the start URL's
	// path, one directory per level, never above the host root.
	ParentLevels int

	// Timeout is the per-request HTTP timeout for both discovery
	// fetches and conversion calls.
	Timeout time.Duration

	// Concurrency bounds parallel fetches per depth level and parallel
	// conversions.
	Concurrency int

	// CrawlDelay is the delay between fetch starts during discovery.
	CrawlDelay time.Duration

	// UserAgent is the User-Agent header for all requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64

	// APIKey is the Jina Reader API credential. Empty is allowed; the
	// Reader API serves unauthenticated requests at a lower rate limit.
	APIKey string

	// Verbose enables slog.LevelDebug output.
	Verbose bool

	// JSONReport selects JSON report output.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects a Markdown manifest report.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the report to this path instead of stdout.
	ReportFile string

	// SaveHistory records the run in the local history database.
	SaveHistory bool

	// DBDir is the directory holding the history database.
	// Defaults to the XDG data directory.
	DBDir string

	// ConfigFilePath is an explicit config file path. If empty, the
	// tool searches for .mdmirror in the current directory and the
	// user's home directory, then config.yaml in the XDG config
	// directory.
	ConfigFilePath string

	// SiteConfigs holds per-site settings loaded from the config file.
	SiteConfigs *File

	// RevisionParams is the query-parameter denylist applied during
	// canonicalization. Keys map to the value they must carry to be
	// stripped; "" matches any value.
	RevisionParams map[string]string

	// IndexAliases are the directory index file names removed during
	// canonicalization.
	IndexAliases []string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		OutputDir:    DefaultOutputDir,
		CrawlDepth:   DefaultCrawlDepth,
		ParentLevels: DefaultParentLevels,
		Timeout:      DefaultTimeout,
		Concurrency:  DefaultConcurrency,
		CrawlDelay:   DefaultCrawlDelay,
		UserAgent:    DefaultUserAgent,
		MaxBodySize:  DefaultMaxBodySize,
		SaveHistory:  true,
		RevisionParams: map[string]string{
			"rev": "",
			"do":  "revisions",
		},
		IndexAliases: []string{"index.html", "index.htm"},
	}
}

// XDGDataDir returns the XDG data directory for mdmirror.
// On Linux: ~/.local/share/mdmirror
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for mdmirror.
// On Linux: ~/.config/mdmirror
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found; fixing one error often makes
// later ones irrelevant.
func (c *Config) Validate() error {
	if c.StartURL == "" {
		return ErrNoStartURL
	}
	if c.CrawlDepth < 0 {
		return ErrInvalidDepth
	}
	if c.ParentLevels < 0 {
		return ErrInvalidParentLevels
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
