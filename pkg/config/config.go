package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// envKeys are the settings that may be overridden from the environment.
var envKeys = map[string]bool{
	"include_errors":      true,
	"include_media":       true,
	"include_crawlers":    true,
	"ignore_query_params": true,
	"top_n":               true,
	"days":                true,
	"workers":             true,
}

// Load builds a configuration from defaults, the YAML file at path (skipped
// when path is empty) and WEBLOGVIZ_* environment overrides, then validates it.
func Load(_ context.Context, path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		// Tokens are expanded once, at load time.
		for i := range cfg.Webhooks {
			cfg.Webhooks[i].Token = expandEnvVar(cfg.Webhooks[i].Token)
		}
	}

	if err := cfg.applyEnvironmentOverrides(); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// applyEnvironmentOverrides overlays WEBLOGVIZ_<KEY> variables onto c.
// Only scalar keys are read; unset keys leave c untouched.
func (c *Config) applyEnvironmentOverrides() error {
	k := koanf.New(".")
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		if !envKeys[key] {
			return ""
		}
		return key
	}), nil)
	if err != nil {
		return fmt.Errorf("loading environment: %w", err)
	}

	if len(k.Keys()) == 0 {
		return nil
	}

	if err := k.UnmarshalWithConf("", c, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("applying %s* environment overrides: %w", EnvPrefix, err)
	}
	return nil
}

// Validate checks a configuration for errors and fills webhook defaults.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			rule := fe.Tag()
			if fe.Param() != "" {
				rule += "=" + fe.Param()
			}
			return fmt.Errorf("%s: must satisfy %s (got %q)", yamlName(fe.StructField()), rule, fmt.Sprint(fe.Value()))
		}
		return err
	}

	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

// yamlName maps a Go field name, possibly with an element suffix such as
// "MediaExtensions[2]", to its YAML key for error messages.
func yamlName(field string) string {
	name, elem, hasElem := strings.Cut(field, "[")
	switch name {
	case "TopN":
		name = "top_n"
	case "Days":
		name = "days"
	case "Workers":
		name = "workers"
	case "MediaExtensions":
		name = "media_extensions"
	case "CrawlerSignatures":
		name = "crawler_signatures"
	case "ExtraCrawlerSignatures":
		name = "extra_crawler_signatures"
	}
	if hasElem {
		return name + "[" + elem
	}
	return name
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	switch wh.Trigger {
	case "":
		wh.Trigger = WebhookTriggerOnFailures
	case WebhookTriggerOnFailures, WebhookTriggerAlways, WebhookTriggerNever:
	default:
		return fmt.Errorf("invalid trigger %q (must be on_failures, always, or never)", wh.Trigger)
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands a token written as ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}
	return s
}
