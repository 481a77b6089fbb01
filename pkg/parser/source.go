package parser

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MaxLineSize is the longest line ScanLines accepts.
const MaxLineSize = 1024 * 1024

// Opener yields the raw text of one source location.
type Opener interface {
	// Open returns a reader over the decoded content of location.
	// The caller must close it.
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// Lister expands a source location into the files it names.
type Lister interface {
	// List returns the files behind location. A directory expands one
	// level deep to its regular files; anything else is returned as-is.
	List(ctx context.Context, location string) ([]string, error)
}

// FileSystem reads sources from the local filesystem. Files ending in .gz are
// decompressed transparently.
type FileSystem struct{}

var (
	_ Opener = FileSystem{}
	_ Lister = FileSystem{}
)

// Open opens location, wrapping it in a gzip reader when it ends in .gz.
func (FileSystem) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(location) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", location, err)
	}

	if !strings.HasSuffix(location, ".gz") {
		return f, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("opening gzip stream %s: %w", location, err)
	}
	return &gzipFile{Reader: gz, file: f}, nil
}

// List stats location and expands directories non-recursively.
func (FileSystem) List(ctx context.Context, location string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(location)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", location, err)
	}
	if !info.IsDir() {
		return []string{location}, nil
	}

	entries, err := os.ReadDir(location)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", location, err)
	}

	// Entries are stat'ed so symlinks to regular files are kept; dangling
	// links and subdirectories are not.
	var files []string
	for _, entry := range entries {
		path := filepath.Join(location, entry.Name())
		if !entry.Type().IsRegular() {
			fi, err := os.Stat(path)
			if err != nil || !fi.Mode().IsRegular() {
				continue
			}
		}
		files = append(files, path)
	}
	return files, nil
}

// gzipFile closes both the decompressor and the underlying file.
type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	gzErr := g.Reader.Close()
	if err := g.file.Close(); err != nil {
		return err
	}
	return gzErr
}

// ScanLines calls fn for every line of r with its 1-based line number.
// It stops early when ctx is cancelled or fn returns an error.
func ScanLines(ctx context.Context, r io.Reader, fn func(lineNum int, line string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	lineNum := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNum++
		if err := fn(lineNum, scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading line %d: %w", lineNum+1, err)
	}
	return nil
}
