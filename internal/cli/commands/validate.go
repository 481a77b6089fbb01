package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/weblogviz/pkg/config"
	"github.com/ccollicutt/weblogviz/pkg/parser"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a weblogviz configuration file without reading any logs.

Checks:
  - YAML syntax
  - Value ranges (top_n, days, workers)
  - Media extensions and crawler signatures
  - Webhook URLs and triggers
  - Log source existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(out, "\nConfiguration valid!\n")
	fmt.Fprintf(out, "  Log sources:  %d pattern(s)\n", len(cfg.Sources))
	fmt.Fprintf(out, "  Top paths:    %d\n", cfg.TopN)
	fmt.Fprintf(out, "  Days:         %d\n", cfg.Days)
	fmt.Fprintf(out, "  Workers:      %d\n", cfg.Workers)
	fmt.Fprintf(out, "  Webhooks:     %d\n", len(cfg.Webhooks))

	fmt.Fprintf(out, "\nFilters:\n")
	fmt.Fprintf(out, "  include_errors:      %t\n", cfg.IncludeErrors)
	fmt.Fprintf(out, "  include_media:       %t\n", cfg.IncludeMedia)
	fmt.Fprintf(out, "  include_crawlers:    %t\n", cfg.IncludeCrawlers)
	fmt.Fprintf(out, "  ignore_query_params: %t\n", cfg.IgnoreQueryParams)
	if len(cfg.ExtraCrawlerSignatures) > 0 {
		fmt.Fprintf(out, "  extra crawler signatures: %s\n", strings.Join(cfg.ExtraCrawlerSignatures, ", "))
	}

	if len(cfg.Sources) == 0 {
		fmt.Fprintf(out, "\nNo log sources configured; pass paths to analyze.\n")
		return nil
	}

	// Check if log sources exist (warnings only)
	files, err := resolveSources(ctx, cfg.Sources)
	if err != nil {
		fmt.Fprintf(out, "\nWarning: Error expanding log source patterns: %v\n", err)
	} else if len(files) == 0 {
		fmt.Fprintf(out, "\nWarning: No files match log source patterns\n")
	} else {
		fmt.Fprintf(out, "\nLog files matched: %d\n", len(files))
		for _, f := range files {
			fmt.Fprintf(out, "  - %s\n", f)
		}
	}

	return nil
}

// resolveSources expands patterns and lists directories the same way
// analyze does. Locations that cannot be listed are left out.
func resolveSources(ctx context.Context, patterns []string) ([]string, error) {
	locations, err := parser.ExpandGlobs(patterns)
	if err != nil {
		return nil, err
	}

	var fs parser.FileSystem
	var files []string
	for _, loc := range locations {
		listed, err := fs.List(ctx, loc)
		if err != nil {
			continue
		}
		files = append(files, listed...)
	}
	return files, nil
}
