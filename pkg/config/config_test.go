package config

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ccollicutt/weblogviz/pkg/filter"
	"github.com/ccollicutt/weblogviz/pkg/ingest"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
sources:
  - /var/log/nginx/access.log*
  - /var/log/nginx/archive
include_errors: true
include_crawlers: true
ignore_query_params: false
top_n: 25
days: 7
workers: 8
extra_crawler_signatures:
  - UptimeRobot
`
	path := writeTempFile(t, "config.yaml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Sources) != 2 {
		t.Errorf("Sources = %d, want 2", len(cfg.Sources))
	}
	if !cfg.IncludeErrors || cfg.IncludeMedia || !cfg.IncludeCrawlers || cfg.IgnoreQueryParams {
		t.Errorf("flags = %+v", cfg)
	}
	if cfg.TopN != 25 || cfg.Days != 7 || cfg.Workers != 8 {
		t.Errorf("TopN/Days/Workers = %d/%d/%d, want 25/7/8", cfg.TopN, cfg.Days, cfg.Workers)
	}
	if !reflect.DeepEqual(cfg.MediaExtensions, filter.DefaultMediaExtensions()) {
		t.Errorf("MediaExtensions = %v, want defaults", cfg.MediaExtensions)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("Load(\"\") = %+v, want defaults", cfg)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load(context.Background(), "/nonexistent/weblogviz.yaml"); err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTempFile(t, "invalid.yaml", `top_n: [`)
	if _, err := Load(context.Background(), path); err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestLoad_WrongType(t *testing.T) {
	path := writeTempFile(t, "wrong.yaml", `top_n: lots`)
	if _, err := Load(context.Background(), path); err == nil {
		t.Error("Load() expected error for non-numeric top_n")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("WEBLOGVIZ_TOP_N", "3")
	t.Setenv("WEBLOGVIZ_INCLUDE_MEDIA", "true")
	t.Setenv("WEBLOGVIZ_IGNORE_QUERY_PARAMS", "false")
	t.Setenv("WEBLOGVIZ_SOURCES", "/should/not/apply")
	t.Setenv("WEBLOGVIZ_UNKNOWN", "whatever")

	path := writeTempFile(t, "config.yaml", "top_n: 50\ndays: 2\nsources: [a.log]\n")
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TopN != 3 {
		t.Errorf("TopN = %d, want env override 3", cfg.TopN)
	}
	if cfg.Days != 2 {
		t.Errorf("Days = %d, want file value 2", cfg.Days)
	}
	if !cfg.IncludeMedia || cfg.IgnoreQueryParams {
		t.Errorf("IncludeMedia/IgnoreQueryParams = %v/%v, want true/false", cfg.IncludeMedia, cfg.IgnoreQueryParams)
	}
	if !reflect.DeepEqual(cfg.Sources, []string{"a.log"}) {
		t.Errorf("Sources = %v, lists are not overridable from env", cfg.Sources)
	}
}

func TestLoad_InvalidEnvironmentOverride(t *testing.T) {
	t.Setenv("WEBLOGVIZ_DAYS", "several")
	if _, err := Load(context.Background(), ""); err == nil {
		t.Error("Load() expected error for non-numeric WEBLOGVIZ_DAYS")
	}
}

func TestValidate_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero top and days", func(c *Config) { c.TopN, c.Days = 0, 0 }, ""},
		{"negative top", func(c *Config) { c.TopN = -1 }, "top_n"},
		{"negative days", func(c *Config) { c.Days = -2 }, "days"},
		{"no workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"too many workers", func(c *Config) { c.Workers = 1000 }, "workers"},
		{"empty extension", func(c *Config) { c.MediaExtensions = []string{"css", ""} }, "media_extensions[1]"},
		{"empty signature", func(c *Config) { c.ExtraCrawlerSignatures = []string{""} }, "extra_crawler_signatures[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error mentioning %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.TopN != DefaultTopN || cfg.Days != DefaultDays {
		t.Errorf("TopN/Days = %d/%d", cfg.TopN, cfg.Days)
	}
	if cfg.Workers != ingest.DefaultWorkers {
		t.Errorf("Workers = %d, want %d", cfg.Workers, ingest.DefaultWorkers)
	}
	if !cfg.IgnoreQueryParams {
		t.Error("IgnoreQueryParams should default to true")
	}
	if cfg.IncludeErrors || cfg.IncludeMedia || cfg.IncludeCrawlers {
		t.Error("include flags should default to false")
	}
}

func TestFilterPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IncludeErrors = true
	cfg.ExtraCrawlerSignatures = []string{"UptimeRobot"}

	p := cfg.FilterPolicy()
	if !p.IncludeErrors || !p.IgnoreQueryParams {
		t.Errorf("policy flags = %+v", p)
	}

	f := filter.New(p)
	if !f.IsCrawler("UptimeRobot/2.0") {
		t.Error("extra signature should be a crawler")
	}
	if !f.IsCrawler("curl/8.0") {
		t.Error("default signatures should remain when extras are added")
	}
}

func TestFilterPolicy_ReplacedSignatures(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CrawlerSignatures = []string{"OnlyThis"}
	cfg.ExtraCrawlerSignatures = []string{"AndThis"}

	f := filter.New(cfg.FilterPolicy())
	if f.IsCrawler("curl") {
		t.Error("curl should not match replaced signatures")
	}
	if !f.IsCrawler("OnlyThis/1") || !f.IsCrawler("AndThis/1") {
		t.Error("replacement and extra signatures should match")
	}
	if !reflect.DeepEqual(cfg.CrawlerSignatures, []string{"OnlyThis"}) {
		t.Errorf("FilterPolicy() modified CrawlerSignatures: %v", cfg.CrawlerSignatures)
	}
}

func TestValidate_Webhooks(t *testing.T) {
	tests := []struct {
		name    string
		webhook WebhookConfig
		wantErr bool
	}{
		{"https", WebhookConfig{Name: "hook", URL: "https://example.com/webhook", Trigger: WebhookTriggerOnFailures, Timeout: time.Second}, false},
		{"http localhost", WebhookConfig{URL: "http://localhost:8080/webhook"}, false},
		{"always", WebhookConfig{URL: "https://example.com", Trigger: WebhookTriggerAlways}, false},
		{"never", WebhookConfig{URL: "https://example.com", Trigger: WebhookTriggerNever}, false},
		{"missing url", WebhookConfig{Name: "no-url"}, true},
		{"ftp scheme", WebhookConfig{URL: "ftp://example.com/webhook"}, true},
		{"no host", WebhookConfig{URL: "https:///path"}, true},
		{"bad trigger", WebhookConfig{URL: "https://example.com", Trigger: "sometimes"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Webhooks = []WebhookConfig{tt.webhook}
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_WebhookDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Webhooks = []WebhookConfig{{URL: "https://example.com/webhook"}}

	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Webhooks[0].Trigger != WebhookTriggerOnFailures {
		t.Errorf("default trigger = %v, want %v", cfg.Webhooks[0].Trigger, WebhookTriggerOnFailures)
	}
	if cfg.Webhooks[0].Timeout != DefaultWebhookTimeout {
		t.Errorf("default timeout = %v, want %v", cfg.Webhooks[0].Timeout, DefaultWebhookTimeout)
	}
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("TEST_WEBHOOK_TOKEN", "secret-value")

	tests := []struct {
		input string
		want  string
	}{
		{"${TEST_WEBHOOK_TOKEN}", "secret-value"},
		{"$TEST_WEBHOOK_TOKEN", "secret-value"},
		{"plain-value", "plain-value"},
		{"", ""},
		{"${NONEXISTENT_WEBLOGVIZ_VAR}", ""},
	}

	for _, tt := range tests {
		if got := expandEnvVar(tt.input); got != tt.want {
			t.Errorf("expandEnvVar(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLoad_WithWebhooks(t *testing.T) {
	content := `
webhooks:
  - name: ops
    url: "https://example.com/webhook"
    trigger: always
    timeout: 30s
  - url: "https://backup.example.com/webhook"
`
	path := writeTempFile(t, "config-with-webhooks.yaml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Webhooks) != 2 {
		t.Fatalf("Webhooks = %d, want 2", len(cfg.Webhooks))
	}
	if cfg.Webhooks[0].Name != "ops" || cfg.Webhooks[0].Trigger != WebhookTriggerAlways {
		t.Errorf("Webhook[0] = %+v", cfg.Webhooks[0])
	}
	if cfg.Webhooks[0].Timeout != 30*time.Second {
		t.Errorf("Webhook[0].Timeout = %v, want 30s", cfg.Webhooks[0].Timeout)
	}
	if cfg.Webhooks[1].Trigger != WebhookTriggerOnFailures {
		t.Errorf("Webhook[1].Trigger = %v, want default", cfg.Webhooks[1].Trigger)
	}
}

func TestLoad_ExpandsWebhookToken(t *testing.T) {
	t.Setenv("TEST_HOOK_TOKEN", "$TEST_OTHER_TOKEN")
	t.Setenv("TEST_OTHER_TOKEN", "wrong")

	path := writeTempFile(t, "config.yaml", "webhooks:\n  - url: https://example.com/hook\n    token: ${TEST_HOOK_TOKEN}\n")
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.Webhooks[0].Token; got != "$TEST_OTHER_TOKEN" {
		t.Fatalf("Token after Load = %q, want %q", got, "$TEST_OTHER_TOKEN")
	}

	// A second validation, as the analyze command does after applying
	// flags, must not expand the token again.
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got := cfg.Webhooks[0].Token; got != "$TEST_OTHER_TOKEN" {
		t.Errorf("Token after Validate = %q, want %q", got, "$TEST_OTHER_TOKEN")
	}
}

func TestValidate_LeavesTokenUnexpanded(t *testing.T) {
	t.Setenv("TEST_WEBHOOK_TOKEN", "secret-value")
	cfg := DefaultConfig()
	cfg.Webhooks = []WebhookConfig{{URL: "https://example.com/hook", Token: "$TEST_WEBHOOK_TOKEN"}}

	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got := cfg.Webhooks[0].Token; got != "$TEST_WEBHOOK_TOKEN" {
		t.Errorf("Token = %q, Validate should not expand it", got)
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}
