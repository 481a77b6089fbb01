package output

import (
	"context"
	"io"
)

// Formatter renders a hit report in a specific format.
type Formatter interface {
	// Format renders the report to the given writer.
	Format(ctx context.Context, report *Report, w io.Writer) error

	// Name returns the format name (text, json, logfmt).
	Name() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose adds per-source statistics and run metadata.
	Verbose bool

	// Quiet limits output to the overall ranking.
	Quiet bool
}
