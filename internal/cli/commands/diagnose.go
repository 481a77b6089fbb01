package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/weblogviz/pkg/config"
	"github.com/ccollicutt/weblogviz/pkg/parser"
)

// DefaultSampleLines is how many lines of each source diagnose reads.
const DefaultSampleLines = 20

// maxRejectedExamples bounds the rejected lines shown per source.
const maxRejectedExamples = 3

// errSampleFull stops a scan once enough lines have been sampled.
var errSampleFull = errors.New("sample full")

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	ConfigFile string
	Lines      int
	Verbose    bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose [log-path...]",
		Short: "Check that log sources are readable and in combined format",
		Long: `Check log sources and configuration before running analyze.

For every source the first lines are read and matched against the combined
access log format, reporting how many were accepted and showing examples of
rejected lines. Webhook settings from the configuration file are checked too.

Example:
  weblogviz diagnose /var/log/nginx/access.log
  weblogviz diagnose -c weblogviz.yaml -v  # verbose output`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(cmd.Context(), cmd.OutOrStdout(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file (YAML)")
	cmd.Flags().IntVarP(&opts.Lines, "lines", "l", DefaultSampleLines, "Lines to sample from each source")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, args []string, opts *DiagnoseOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ExitCode = 0
	results := []DiagnosticResult{}

	cfg := config.DefaultConfig()
	if opts.ConfigFile != "" {
		loaded, result := checkConfig(ctx, opts.ConfigFile)
		results = append(results, result)
		if result.Status == "error" {
			printDiagnostics(w, results, opts)
			ExitCode = 1
			return nil
		}
		cfg = loaded
	}

	patterns := args
	if len(patterns) == 0 {
		patterns = cfg.Sources
	}

	files, result := checkSources(ctx, patterns)
	results = append(results, result)

	p := parser.NewParser()
	for _, file := range files {
		results = append(results, checkFormat(ctx, p, file, opts))
	}

	results = append(results, checkWebhooks(cfg, opts)...)

	if printDiagnostics(w, results, opts) > 0 {
		ExitCode = 1
	}
	return nil
}

func checkConfig(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config File",
	}

	if _, err := os.Stat(path); err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check the file path and permissions"}
		return nil, result
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = "error"
		result.Message = err.Error()
		result.Suggests = []string{"Run 'weblogviz validate " + path + "' for details"}
		return nil, result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Loaded %s", path)
	return cfg, result
}

func checkSources(ctx context.Context, patterns []string) ([]string, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Log Sources",
	}

	if len(patterns) == 0 {
		result.Status = "error"
		result.Message = "No log sources given"
		result.Suggests = []string{"Pass log paths as arguments or set sources in the config file"}
		return nil, result
	}

	locations, err := parser.ExpandGlobs(patterns)
	if err != nil {
		result.Status = "error"
		result.Message = err.Error()
		return nil, result
	}

	var fs parser.FileSystem
	var files []string
	var missing []string
	for _, loc := range locations {
		listed, err := fs.List(ctx, loc)
		if err != nil {
			missing = append(missing, fmt.Sprintf("%s: %v", loc, err))
			continue
		}
		files = append(files, listed...)
	}

	switch {
	case len(files) == 0:
		result.Status = "error"
		result.Message = "No readable log files found"
	case len(missing) > 0:
		result.Status = "warning"
		result.Message = fmt.Sprintf("%d file(s) found, %d source(s) unavailable", len(files), len(missing))
	default:
		result.Status = "ok"
		result.Message = fmt.Sprintf("%d file(s) found", len(files))
	}
	result.Details = append(missing, files...)
	return files, result
}

// checkFormat samples the first lines of file and matches them against the
// combined log format.
func checkFormat(ctx context.Context, p *parser.Parser, file string, opts *DiagnoseOptions) DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Format: %s", file),
	}

	limit := opts.Lines
	if limit <= 0 {
		limit = DefaultSampleLines
	}

	rc, err := parser.FileSystem{}.Open(ctx, file)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot open: %v", err)
		return result
	}
	defer rc.Close()

	sampled, matched := 0, 0
	var rejected []string
	err = parser.ScanLines(ctx, rc, func(lineNum int, line string) error {
		sampled++
		if _, err := p.Parse(line); err == nil {
			matched++
		} else if len(rejected) < maxRejectedExamples {
			rejected = append(rejected, fmt.Sprintf("line %d: %s", lineNum, truncate(line, 120)))
		}
		if sampled >= limit {
			return errSampleFull
		}
		return nil
	})
	if err != nil && !errors.Is(err, errSampleFull) {
		result.Status = "error"
		result.Message = fmt.Sprintf("Read failed after %d line(s): %v", sampled, err)
		return result
	}

	result.Message = fmt.Sprintf("%d of %d sampled line(s) match the combined log format", matched, sampled)
	result.Details = rejected
	switch {
	case sampled == 0:
		result.Status = "warning"
		result.Message = "File is empty"
	case matched == 0:
		result.Status = "error"
		result.Suggests = []string{
			"Only the combined log format is supported:",
			`  IP - - [02/Jan/2006:15:04:05 -0700] "GET /path HTTP/1.1" 200 1234 "referrer" "user-agent"`,
		}
	case matched < sampled:
		result.Status = "warning"
		result.Suggests = []string{"Rejected lines are skipped during analysis"}
	default:
		result.Status = "ok"
	}
	return result
}

func checkWebhooks(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		// Webhooks are optional, just note they're not configured
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  "ok",
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		result := DiagnosticResult{
			Check:  fmt.Sprintf("Webhook: %s", name),
			Status: "ok",
		}

		// Config loading already rejected bad URLs and triggers, so only
		// the token is left to check.
		if wh.Token == "" && strings.HasPrefix(wh.URL, "http://") {
			result.Status = "warning"
			result.Message = "Plain http without a token"
			result.Suggests = []string{"Use https or set a token if the endpoint is not local"}
		} else {
			result.Message = fmt.Sprintf("Trigger: %s", wh.Trigger)
		}

		if opts.Verbose {
			host := wh.URL
			if u, err := url.Parse(wh.URL); err == nil {
				host = u.Host
			}
			result.Details = []string{
				fmt.Sprintf("Host: %s", host),
				fmt.Sprintf("Timeout: %s", wh.Timeout),
			}
			if wh.Token != "" {
				result.Details = append(result.Details, "Token: configured")
			}
		}

		results = append(results, result)
	}

	return results
}

// printDiagnostics writes results and returns the number of errors.
func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) int {
	fmt.Fprintln(w, "=== weblogviz Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before running analysis.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nSources are usable but have warnings.")
	} else {
		fmt.Fprintln(w, "\nEverything looks good!")
	}

	return errCount
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
