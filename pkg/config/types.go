// Package config provides configuration loading and validation for weblogviz.
package config

import (
	"time"

	"github.com/ccollicutt/weblogviz/pkg/filter"
)

// Config is the run configuration. It is read once and not modified while
// ingestion runs.
type Config struct {
	// Sources are files, directories or glob patterns to read.
	Sources []string `yaml:"sources" koanf:"sources"`

	IncludeErrors     bool `yaml:"include_errors" koanf:"include_errors"`
	IncludeMedia      bool `yaml:"include_media" koanf:"include_media"`
	IncludeCrawlers   bool `yaml:"include_crawlers" koanf:"include_crawlers"`
	IgnoreQueryParams bool `yaml:"ignore_query_params" koanf:"ignore_query_params"`

	// TopN is how many paths each ranking shows.
	TopN int `yaml:"top_n" koanf:"top_n" validate:"gte=0"`

	// Days is how many of the most recent dates get their own ranking.
	Days int `yaml:"days" koanf:"days" validate:"gte=0"`

	// Workers is the ingestion pool width.
	Workers int `yaml:"workers" koanf:"workers" validate:"gte=1,lte=256"`

	// MediaExtensions replaces the default static-asset extensions.
	MediaExtensions []string `yaml:"media_extensions,omitempty" koanf:"media_extensions" validate:"dive,required"`

	// CrawlerSignatures replaces the default crawler user-agent substrings
	// when non-empty.
	CrawlerSignatures []string `yaml:"crawler_signatures,omitempty" koanf:"crawler_signatures" validate:"dive,required"`

	// ExtraCrawlerSignatures are appended to the crawler signatures in effect.
	ExtraCrawlerSignatures []string `yaml:"extra_crawler_signatures,omitempty" koanf:"extra_crawler_signatures" validate:"dive,required"`

	Webhooks []WebhookConfig `yaml:"webhooks,omitempty" koanf:"webhooks"`
}

// FilterPolicy returns the record filter policy described by c.
func (c *Config) FilterPolicy() filter.Policy {
	signatures := c.CrawlerSignatures
	if len(signatures) == 0 {
		signatures = filter.DefaultCrawlerSignatures()
	}
	signatures = append(append([]string(nil), signatures...), c.ExtraCrawlerSignatures...)

	return filter.Policy{
		IncludeErrors:     c.IncludeErrors,
		IncludeMedia:      c.IncludeMedia,
		IncludeCrawlers:   c.IncludeCrawlers,
		IgnoreQueryParams: c.IgnoreQueryParams,
		MediaExtensions:   append([]string(nil), c.MediaExtensions...),
		CrawlerSignatures: signatures,
	}
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnFailures fires only when some sources were skipped (default).
	WebhookTriggerOnFailures WebhookTrigger = "on_failures"
	// WebhookTriggerAlways fires after every run.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines an endpoint that receives the JSON report.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token. ${VAR} and $VAR are expanded.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_failures" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
