package output

import (
	"context"
	"io"

	"github.com/go-logfmt/logfmt"
)

// LogfmtFormatter writes one logfmt record per ranked entry, so the report
// can be piped into tools that already ingest logfmt.
type LogfmtFormatter struct {
	opts FormatOptions
}

// NewLogfmtFormatter creates a new logfmt formatter with the given options.
func NewLogfmtFormatter(opts FormatOptions) *LogfmtFormatter {
	return &LogfmtFormatter{opts: opts}
}

// Name returns the format name.
func (f *LogfmtFormatter) Name() string {
	return "logfmt"
}

// Format renders the report as logfmt records.
func (f *LogfmtFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	enc := logfmt.NewEncoder(w)
	run := report.Metadata.RunID

	for i, e := range report.Overall {
		if err := record(enc, "run", run, "scope", "overall", "rank", i+1, "count", e.Count, "path", e.Key); err != nil {
			return err
		}
	}
	if f.opts.Quiet {
		return nil
	}

	for _, d := range report.Daily {
		date := d.Date.String()
		if err := record(enc, "run", run, "scope", "daily", "date", date, "hits", d.Hits); err != nil {
			return err
		}
		for i, e := range d.Top {
			if err := record(enc, "run", run, "scope", "daily", "date", date, "rank", i+1, "count", e.Count, "path", e.Key); err != nil {
				return err
			}
		}
	}

	for _, s := range report.Skipped {
		if err := record(enc, "run", run, "scope", "skipped", "source", s.Source, "error", s.Error); err != nil {
			return err
		}
	}

	if f.opts.Verbose {
		for _, s := range report.Sources {
			if err := record(enc, "run", run, "scope", "source", "source", s.Source,
				"lines", s.Lines, "kept", s.Kept, "filtered", s.Filtered, "malformed", s.Malformed,
				"duration", s.Duration); err != nil {
				return err
			}
		}
	}

	sum := report.Summary
	return record(enc, "run", run, "scope", "summary",
		"sources_read", sum.SourcesRead, "sources_skipped", sum.SourcesSkipped,
		"lines", sum.LinesProcessed, "records", sum.Records, "distinct_paths", sum.DistinctPaths)
}

func record(enc *logfmt.Encoder, keyvals ...interface{}) error {
	if err := enc.EncodeKeyvals(keyvals...); err != nil {
		return err
	}
	return enc.EndRecord()
}
