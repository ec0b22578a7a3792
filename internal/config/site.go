package config

// SiteConfig holds site-specific configuration for one host.
// It customizes fetch and canonicalization behavior per documentation
// site.
type SiteConfig struct {
	// Headers are custom HTTP headers for discovery requests to this
	// site (authentication cookies, tokens, and the like).
	Headers map[string]string `yaml:"headers,omitempty"`

	// APIKey overrides the global conversion API key for this site.
	APIKey string `yaml:"apiKey,omitempty"`

	// Depth overrides the global crawl depth for this site.
	// Zero means use the global value.
	Depth int `yaml:"depth,omitempty"`

	// RevisionParams extends the query-parameter denylist used during
	// canonicalization for this site.
	RevisionParams map[string]string `yaml:"revisionParams,omitempty"`

	// IndexAliases overrides the directory index file names for this
	// site.
	IndexAliases []string `yaml:"indexAliases,omitempty"`
}

// File represents the structure of the .mdmirror configuration file.
type File struct {
	// Sites maps host names to their site-specific configurations.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains settings applied to all sites unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the merged configuration for a host: defaults
// overlaid with the site-specific entry.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults

	siteConfig, ok := cf.Sites[host]
	if !ok {
		return result
	}

	if siteConfig.APIKey != "" {
		result.APIKey = siteConfig.APIKey
	}
	if siteConfig.Depth != 0 {
		result.Depth = siteConfig.Depth
	}
	if len(siteConfig.Headers) > 0 {
		merged := make(map[string]string, len(result.Headers)+len(siteConfig.Headers))
		for k, v := range result.Headers {
			merged[k] = v
		}
		for k, v := range siteConfig.Headers {
			merged[k] = v
		}
		result.Headers = merged
	}
	if len(siteConfig.RevisionParams) > 0 {
		merged := make(map[string]string, len(result.RevisionParams)+len(siteConfig.RevisionParams))
		for k, v := range result.RevisionParams {
			merged[k] = v
		}
		for k, v := range siteConfig.RevisionParams {
			merged[k] = v
		}
		result.RevisionParams = merged
	}
	if len(siteConfig.IndexAliases) > 0 {
		result.IndexAliases = siteConfig.IndexAliases
	}

	return result
}
