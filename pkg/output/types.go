// Package output provides formatting and output generation for hit reports.
package output

import (
	"time"

	"github.com/google/uuid"

	"github.com/ccollicutt/weblogviz/pkg/ingest"
	"github.com/ccollicutt/weblogviz/pkg/stats"
)

// Report is the complete result of an analyze run.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// Overall ranks paths across every merged record.
	Overall []stats.Entry `json:"overall"`

	// Daily ranks paths for each of the most recent dates, newest first.
	Daily []stats.Day `json:"daily"`

	// Sources holds per-source line counts.
	Sources []ingest.SourceStats `json:"sources"`

	// Skipped lists sources left out of the report.
	Skipped []SkippedSource `json:"skipped,omitempty"`

	// Metadata provides context about the run.
	Metadata Metadata `json:"metadata"`
}

// Summary provides aggregate statistics.
type Summary struct {
	// SourcesRead is the number of sources merged into the report.
	SourcesRead int `json:"sources_read"`

	// SourcesSkipped is the number of sources that failed.
	SourcesSkipped int `json:"sources_skipped"`

	LinesProcessed int `json:"lines_processed"`
	Malformed      int `json:"malformed"`
	Filtered       int `json:"filtered"`
	Records        int `json:"records"`

	// DistinctPaths is the number of different paths among the records.
	DistinctPaths int `json:"distinct_paths"`
}

// SkippedSource is a source that could not be ingested.
type SkippedSource struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// Metadata provides context about the run.
type Metadata struct {
	// RunID identifies this run in webhook payloads and logs.
	RunID string `json:"run_id"`

	// ConfigFile is the path to the configuration file used, if any.
	ConfigFile string `json:"config_file,omitempty"`

	// Sources lists the locations that were requested.
	Sources []string `json:"sources"`

	TopN int `json:"top_n"`
	Days int `json:"days"`

	// AnalyzedAt is when the run finished.
	AnalyzedAt time.Time `json:"analyzed_at"`

	// Duration is how long ingestion and ranking took.
	Duration time.Duration `json:"duration"`
}

// ReportOptions describes the run a report is built for.
type ReportOptions struct {
	ConfigFile string
	Sources    []string
	TopN       int
	Days       int
	StartedAt  time.Time
}

// NewReport ranks the merged index of result and collects its statistics.
func NewReport(result *ingest.Result, opts ReportOptions) *Report {
	now := time.Now()
	totals := result.Totals()

	report := &Report{
		Overall: stats.TopByCount(result.Index, opts.TopN),
		Daily:   stats.DailyTop(result.Index, opts.Days, opts.TopN),
		Sources: result.Sources,
		Summary: Summary{
			SourcesRead:    len(result.Sources),
			SourcesSkipped: len(result.Failed),
			LinesProcessed: totals.Lines,
			Malformed:      totals.Malformed,
			Filtered:       totals.Filtered,
			Records:        result.Index.Len(),
			DistinctPaths:  len(result.Index.Paths()),
		},
		Metadata: Metadata{
			RunID:      uuid.NewString(),
			ConfigFile: opts.ConfigFile,
			Sources:    opts.Sources,
			TopN:       opts.TopN,
			Days:       opts.Days,
			AnalyzedAt: now,
		},
	}

	if !opts.StartedAt.IsZero() {
		report.Metadata.Duration = now.Sub(opts.StartedAt)
	}

	for _, f := range result.Failed {
		report.Skipped = append(report.Skipped, SkippedSource{
			Source: f.Source,
			Error:  f.Err.Error(),
		})
	}

	return report
}

// HasFailures returns true if any source was skipped.
func (r *Report) HasFailures() bool {
	return r.Summary.SourcesSkipped > 0
}
