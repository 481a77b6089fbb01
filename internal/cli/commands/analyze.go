package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/weblogviz/pkg/config"
	"github.com/ccollicutt/weblogviz/pkg/filter"
	"github.com/ccollicutt/weblogviz/pkg/ingest"
	"github.com/ccollicutt/weblogviz/pkg/output"
	"github.com/ccollicutt/weblogviz/pkg/parser"
	"github.com/ccollicutt/weblogviz/pkg/webhook"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// AnalyzeOptions holds command-line options for the analyze command.
type AnalyzeOptions struct {
	ConfigFile string
	Output     string
	LogLevel   string
	Verbose    bool
	Quiet      bool

	TopN              int
	Days              int
	Workers           int
	IncludeErrors     bool
	IncludeMedia      bool
	IncludeCrawlers   bool
	IgnoreQueryParams bool

	MetricsFile string

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [log-path...]",
		Short: "Rank the most requested paths in access logs",
		Long: `Parse combined-format access logs and rank URL paths by hit count,
overall and for each of the most recent days.

Each argument may be a file, a gzip file (.gz), a directory (its regular
files are read) or a glob pattern. Without arguments the sources listed in
the configuration file are used.

By default responses other than 200 OK, media files and crawlers are
left out and query strings are stripped from paths.

Exit codes:
  0 - Report complete
  1 - Report produced but some sources were skipped
  2 - Configuration error or every source failed`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	defaults := config.DefaultConfig()

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file (YAML)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json|logfmt)")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "info", "Diagnostic log level (debug|info|warn|error)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Include per-source statistics")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Overall ranking only, errors only on stderr")

	cmd.Flags().IntVarP(&opts.TopN, "top", "n", defaults.TopN, "Number of paths to rank")
	cmd.Flags().IntVarP(&opts.Days, "days", "d", defaults.Days, "Number of most recent days to rank separately")
	cmd.Flags().IntVar(&opts.Workers, "workers", defaults.Workers, "Number of sources parsed concurrently")
	cmd.Flags().BoolVar(&opts.IncludeErrors, "include-errors", defaults.IncludeErrors, "Keep responses other than 200 OK")
	cmd.Flags().BoolVar(&opts.IncludeMedia, "include-media", defaults.IncludeMedia, "Keep requests for media files")
	cmd.Flags().BoolVar(&opts.IncludeCrawlers, "include-crawlers", defaults.IncludeCrawlers, "Keep requests from crawlers")
	cmd.Flags().BoolVar(&opts.IgnoreQueryParams, "ignore-query-params", defaults.IgnoreQueryParams, "Strip query strings from paths")

	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write ingestion metrics in Prometheus text format to this file")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", string(config.WebhookTriggerOnFailures), "When to fire webhook (on_failures|always|never)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, opts *AnalyzeOptions) error {
	ExitCode = 0
	started := time.Now()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, opts.ConfigFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := applyFlags(cmd, cfg, opts); err != nil {
		return err
	}

	formatter, err := createFormatter(opts)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd.ErrOrStderr(), opts.LogLevel, opts.Quiet)
	if err != nil {
		return err
	}

	patterns := args
	if len(patterns) == 0 {
		patterns = cfg.Sources
	}
	if len(patterns) == 0 {
		return errors.New("no log sources given (pass paths or set sources in the config file)")
	}

	locations, err := parser.ExpandGlobs(patterns)
	if err != nil {
		return fmt.Errorf("expanding log sources: %w", err)
	}

	registry := prometheus.NewRegistry()
	ingestor := ingest.New(
		parser.NewParser(),
		filter.New(cfg.FilterPolicy()),
		ingest.WithWorkers(cfg.Workers),
		ingest.WithLogger(logger),
		ingest.WithMetrics(ingest.NewMetrics(registry)),
	)

	result, ingestErr := ingestor.Ingest(ctx, locations)
	if ingestErr != nil && !errors.Is(ingestErr, ingest.ErrAllSourcesFailed) {
		return fmt.Errorf("ingesting logs: %w", ingestErr)
	}

	report := output.NewReport(result, output.ReportOptions{
		ConfigFile: opts.ConfigFile,
		Sources:    locations,
		TopN:       cfg.TopN,
		Days:       cfg.Days,
		StartedAt:  started,
	})

	if opts.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.MetricsFile, registry); err != nil {
			logger.Error().Err(err).Str("path", opts.MetricsFile).Msg("writing metrics file")
		}
	}

	// Delivery failures are logged but don't fail the run
	webhook.NewClient(webhook.WithLogger(logger)).SendAll(ctx, report, cfg.Webhooks)

	if ingestErr != nil {
		return ingestErr
	}

	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if report.HasFailures() {
		logFailures(logger, result)
		ExitCode = 1
	}

	return nil
}

// applyFlags overrides cfg with flags set on the command line, adds the
// command-line webhook and validates the result.
func applyFlags(cmd *cobra.Command, cfg *config.Config, opts *AnalyzeOptions) error {
	flags := cmd.Flags()
	if flags.Changed("top") {
		cfg.TopN = opts.TopN
	}
	if flags.Changed("days") {
		cfg.Days = opts.Days
	}
	if flags.Changed("workers") {
		cfg.Workers = opts.Workers
	}
	if flags.Changed("include-errors") {
		cfg.IncludeErrors = opts.IncludeErrors
	}
	if flags.Changed("include-media") {
		cfg.IncludeMedia = opts.IncludeMedia
	}
	if flags.Changed("include-crawlers") {
		cfg.IncludeCrawlers = opts.IncludeCrawlers
	}
	if flags.Changed("ignore-query-params") {
		cfg.IgnoreQueryParams = opts.IgnoreQueryParams
	}

	if opts.WebhookURL != "" {
		cfg.Webhooks = append(cfg.Webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: config.WebhookTrigger(opts.WebhookTrigger),
			Timeout: config.DefaultWebhookTimeout,
		})
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

func createFormatter(opts *AnalyzeOptions) (output.Formatter, error) {
	formatOpts := output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	}

	switch opts.Output {
	case "text":
		return output.NewTextFormatter(formatOpts), nil
	case "json":
		return output.NewJSONFormatter(formatOpts), nil
	case "logfmt":
		return output.NewLogfmtFormatter(formatOpts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use text, json or logfmt)", opts.Output)
	}
}

func logFailures(logger zerolog.Logger, result *ingest.Result) {
	logger.Warn().
		Int("skipped", len(result.Failed)).
		Int("read", len(result.Sources)).
		Msg("report is missing sources")
}
