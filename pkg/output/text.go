package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ccollicutt/weblogviz/pkg/stats"
)

const separator = "##############################################"

// TextFormatter formats reports as tab-separated console tables.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	var b strings.Builder

	writeRanking(&b, "overall", report.Overall)
	if !f.opts.Quiet {
		f.formatDaily(&b, report.Daily)
		f.formatSkipped(&b, report.Skipped)
		if f.opts.Verbose {
			f.formatSources(&b, report)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeRanking(b *strings.Builder, label string, entries []stats.Entry) {
	fmt.Fprintf(b, "URL paths with the most hits (%s) - Top %d\n", label, len(entries))
	b.WriteString("# of hits:\tpath\n")
	for _, e := range entries {
		fmt.Fprintf(b, "%d:\t\t%s\n", e.Count, e.Key)
	}
	b.WriteString(separator + "\n")
}

func (f *TextFormatter) formatDaily(b *strings.Builder, days []stats.Day) {
	if len(days) == 0 {
		return
	}
	b.WriteString("Date:\t\t# of hits\n")
	for _, d := range days {
		fmt.Fprintf(b, "%s:\t%d\n", d.Date, d.Hits)
		writeRanking(b, d.Date.String(), d.Top)
	}
}

func (f *TextFormatter) formatSkipped(b *strings.Builder, skipped []SkippedSource) {
	if len(skipped) == 0 {
		return
	}
	fmt.Fprintf(b, "Skipped %d source(s):\n", len(skipped))
	for _, s := range skipped {
		fmt.Fprintf(b, "  - %s: %s\n", s.Source, s.Error)
	}
}

func (f *TextFormatter) formatSources(b *strings.Builder, report *Report) {
	b.WriteString("Sources:\n")
	for _, s := range report.Sources {
		fmt.Fprintf(b, "  %s: %d lines, %d kept, %d filtered, %d malformed\n",
			s.Source, s.Lines, s.Kept, s.Filtered, s.Malformed)
	}
	fmt.Fprintf(b, "Lines processed: %d\n", report.Summary.LinesProcessed)
	fmt.Fprintf(b, "Run: %s\n", report.Metadata.RunID)
	fmt.Fprintf(b, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
}
