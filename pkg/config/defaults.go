package config

import (
	"time"

	"github.com/ccollicutt/weblogviz/pkg/filter"
	"github.com/ccollicutt/weblogviz/pkg/ingest"
)

// Default values for configuration.
const (
	DefaultTopN           = 10
	DefaultDays           = 3
	DefaultWebhookTimeout = 10 * time.Second
)

// EnvPrefix prefixes environment variables that override scalar settings,
// e.g. WEBLOGVIZ_TOP_N=25 or WEBLOGVIZ_INCLUDE_ERRORS=true.
const EnvPrefix = "WEBLOGVIZ_"

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Sources:           []string{},
		IgnoreQueryParams: true,
		TopN:              DefaultTopN,
		Days:              DefaultDays,
		Workers:           ingest.DefaultWorkers,
		MediaExtensions:   filter.DefaultMediaExtensions(),
	}
}
