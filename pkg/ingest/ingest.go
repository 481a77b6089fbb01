// Package ingest builds a global index from many log sources in parallel.
//
// Each source is parsed by one worker into a private index; workers share
// only the read-only parser and filter. Completed partial indices are handed
// over a channel to the calling goroutine, which merges them one at a time in
// arrival order.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ccollicutt/weblogviz/pkg/filter"
	"github.com/ccollicutt/weblogviz/pkg/index"
	"github.com/ccollicutt/weblogviz/pkg/parser"
)

// DefaultWorkers is the worker pool width used when none is configured.
const DefaultWorkers = 4

// ErrAllSourcesFailed is returned by Ingest when no source could be read.
var ErrAllSourcesFailed = errors.New("all sources failed")

// SourceError records why one source was left out of the merged index.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// SourceStats counts what happened to the lines of one source.
type SourceStats struct {
	Source    string        `json:"source"`
	Lines     int           `json:"lines"`
	Malformed int           `json:"malformed"`
	Filtered  int           `json:"filtered"`
	Kept      int           `json:"kept"`
	Duration  time.Duration `json:"duration"`
}

func (s *SourceStats) add(o SourceStats) {
	s.Lines += o.Lines
	s.Malformed += o.Malformed
	s.Filtered += o.Filtered
	s.Kept += o.Kept
	s.Duration += o.Duration
}

// Result is the outcome of an ingestion run.
type Result struct {
	// Index holds every kept record from the sources that succeeded.
	Index *index.Index

	// Sources lists the sources merged into Index, in completion order.
	Sources []SourceStats

	// Failed lists the sources that were skipped.
	Failed []*SourceError
}

// HasFailures reports whether any source was skipped.
func (r *Result) HasFailures() bool {
	return len(r.Failed) > 0
}

// Totals sums the statistics of all merged sources.
func (r *Result) Totals() SourceStats {
	var total SourceStats
	for _, s := range r.Sources {
		total.add(s)
	}
	return total
}

// Ingestor parses sources into indices.
type Ingestor struct {
	parser  *parser.Parser
	filter  *filter.Filter
	opener  parser.Opener
	lister  parser.Lister
	workers int
	logger  zerolog.Logger
	metrics *Metrics
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithWorkers sets the worker pool width. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(in *Ingestor) {
		if n > 0 {
			in.workers = n
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(in *Ingestor) {
		in.logger = l
	}
}

// WithOpener replaces the source reader.
func WithOpener(o parser.Opener) Option {
	return func(in *Ingestor) {
		in.opener = o
	}
}

// WithLister replaces the source lister.
func WithLister(l parser.Lister) Option {
	return func(in *Ingestor) {
		in.lister = l
	}
}

// WithMetrics records ingestion counters into m.
func WithMetrics(m *Metrics) Option {
	return func(in *Ingestor) {
		in.metrics = m
	}
}

// New creates an Ingestor that parses with p and keeps records accepted by f.
func New(p *parser.Parser, f *filter.Filter, opts ...Option) *Ingestor {
	in := &Ingestor{
		parser:  p,
		filter:  f,
		opener:  parser.FileSystem{},
		lister:  parser.FileSystem{},
		workers: DefaultWorkers,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

type sourceResult struct {
	index *index.Index
	stats SourceStats
	err   error
}

// Ingest expands locations into files, parses each file on the worker pool
// and merges the partial indices. Unreadable sources are reported in
// Result.Failed rather than aborting the run; if every source fails the
// returned error wraps ErrAllSourcesFailed and the Result still lists the
// failures. Cancelling ctx stops outstanding reads, and the sources they
// belonged to are reported as failed.
func (in *Ingestor) Ingest(ctx context.Context, locations []string) (*Result, error) {
	result := &Result{Index: index.New()}

	files := in.expand(ctx, locations, result)
	if len(files) == 0 {
		if result.HasFailures() {
			return result, fmt.Errorf("%w (%d sources)", ErrAllSourcesFailed, len(result.Failed))
		}
		return result, nil
	}

	results := make(chan sourceResult, in.workers)

	go func() {
		var g errgroup.Group
		g.SetLimit(in.workers)
		for _, file := range files {
			file := file
			g.Go(func() error {
				idx, st, err := in.IngestSource(ctx, file)
				results <- sourceResult{index: idx, stats: st, err: err}
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	for res := range results {
		if res.err != nil {
			in.logger.Error().Str("source", res.stats.Source).Err(res.err).Msg("skipping source")
			result.Failed = append(result.Failed, &SourceError{Source: res.stats.Source, Err: res.err})
			continue
		}
		result.Index.Merge(res.index)
		result.Sources = append(result.Sources, res.stats)
	}

	if len(result.Sources) == 0 {
		return result, fmt.Errorf("%w (%d sources)", ErrAllSourcesFailed, len(result.Failed))
	}
	return result, nil
}

// expand lists every location. Locations that cannot be listed are recorded
// as failures on result.
func (in *Ingestor) expand(ctx context.Context, locations []string, result *Result) []string {
	var files []string
	for _, loc := range locations {
		listed, err := in.lister.List(ctx, loc)
		if err != nil {
			in.logger.Error().Str("source", loc).Err(err).Msg("skipping source")
			result.Failed = append(result.Failed, &SourceError{Source: loc, Err: err})
			continue
		}
		files = append(files, listed...)
	}
	return files
}

// IngestSource reads one source into a new index. On error the partial
// index is discarded.
func (in *Ingestor) IngestSource(ctx context.Context, source string) (*index.Index, SourceStats, error) {
	start := time.Now()
	in.logger.Debug().Str("source", source).Msg("parsing logs")

	rc, err := in.opener.Open(ctx, source)
	if err != nil {
		st := SourceStats{Source: source, Duration: time.Since(start)}
		in.metrics.observeSource(st, err)
		return nil, st, err
	}
	defer rc.Close()

	idx, st, err := in.IngestReader(ctx, source, rc)
	st.Duration = time.Since(start)
	in.metrics.observeSource(st, err)
	if err != nil {
		return nil, st, err
	}

	in.logger.Info().
		Str("source", source).
		Int("lines", st.Lines).
		Int("kept", st.Kept).
		Int("filtered", st.Filtered).
		Int("malformed", st.Malformed).
		Dur("duration", st.Duration).
		Msg("parsed logs")
	return idx, st, nil
}

// IngestReader parses every line of r into a new index. Malformed lines are
// logged and skipped. Paths are rewritten by the filter before the keep
// decision so records group under the rewritten path.
func (in *Ingestor) IngestReader(ctx context.Context, source string, r io.Reader) (*index.Index, SourceStats, error) {
	idx := index.New()
	st := SourceStats{Source: source}

	err := parser.ScanLines(ctx, r, func(lineNum int, line string) error {
		st.Lines++

		rec, err := in.parser.Parse(line)
		if err != nil {
			st.Malformed++
			in.logger.Warn().
				Str("source", source).
				Int("line", lineNum).
				Str("content", line).
				Msg("skipping malformed line")
			return nil
		}

		rec = rec.WithPath(in.filter.RewritePath(rec.Path))
		if !in.filter.Keep(rec) {
			st.Filtered++
			return nil
		}

		idx.Insert(rec)
		st.Kept++
		return nil
	})
	if err != nil {
		return idx, st, fmt.Errorf("reading %s: %w", source, err)
	}
	return idx, st, nil
}
