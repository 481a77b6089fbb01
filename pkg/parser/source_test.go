package parser

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestFileSystem_OpenPlain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "access.log")
	if err := os.WriteFile(path, []byte(sampleLine+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	rc, err := FileSystem{}.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != sampleLine+"\n" {
		t.Errorf("content = %q", data)
	}
}

func TestFileSystem_OpenGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "access.log.gz")

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(sampleLine + "\n")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	rc, err := FileSystem{}.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if err := rc.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if string(data) != sampleLine+"\n" {
		t.Errorf("decompressed content = %q", data)
	}
}

func TestFileSystem_OpenErrors(t *testing.T) {
	dir := t.TempDir()
	notGzip := filepath.Join(dir, "plain.gz")
	if err := os.WriteFile(notGzip, []byte("not compressed"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		location string
	}{
		{"missing file", filepath.Join(dir, "missing.log")},
		{"invalid gzip header", notGzip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, err := FileSystem{}.Open(context.Background(), tt.location)
			if err == nil {
				rc.Close()
				t.Fatal("Open() expected error")
			}
		})
	}
}

func TestFileSystem_OpenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := (FileSystem{}).Open(ctx, "whatever.log"); !errors.Is(err, context.Canceled) {
		t.Errorf("Open() error = %v, want context.Canceled", err)
	}
}

func TestFileSystem_ListDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "b.log", "a.log.gz")
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFiles(t, filepath.Join(dir, "nested"), "deep.log")

	files, err := FileSystem{}.List(context.Background(), dir)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{filepath.Join(dir, "a.log.gz"), filepath.Join(dir, "b.log")}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("List() = %v, want %v", files, want)
	}
}

func TestFileSystem_ListDirectorySymlinks(t *testing.T) {
	outside := t.TempDir()
	writeFiles(t, outside, "rotated.log")
	if err := os.Mkdir(filepath.Join(outside, "subdir"), 0755); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	links := map[string]string{
		"current.log": filepath.Join(outside, "rotated.log"),
		"dangling":    filepath.Join(outside, "gone.log"),
		"dirlink":     filepath.Join(outside, "subdir"),
	}
	for name, target := range links {
		if err := os.Symlink(target, filepath.Join(dir, name)); err != nil {
			t.Skipf("symlinks not supported: %v", err)
		}
	}

	files, err := FileSystem{}.List(context.Background(), dir)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{filepath.Join(dir, "current.log")}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("List() = %v, want %v", files, want)
	}
}

func TestFileSystem_ListFile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "access.log")
	path := filepath.Join(dir, "access.log")

	files, err := FileSystem{}.List(context.Background(), path)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if !reflect.DeepEqual(files, []string{path}) {
		t.Errorf("List() = %v, want [%s]", files, path)
	}
}

func TestFileSystem_ListMissing(t *testing.T) {
	_, err := FileSystem{}.List(context.Background(), filepath.Join(t.TempDir(), "gone"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("List() error = %v, want os.ErrNotExist", err)
	}
}

func TestScanLines(t *testing.T) {
	input := "first\nsecond\r\n\nfourth"
	var got []string
	var nums []int

	err := ScanLines(context.Background(), strings.NewReader(input), func(n int, line string) error {
		nums = append(nums, n)
		got = append(got, line)
		return nil
	})
	if err != nil {
		t.Fatalf("ScanLines() error = %v", err)
	}

	if !reflect.DeepEqual(got, []string{"first", "second", "", "fourth"}) {
		t.Errorf("lines = %q", got)
	}
	if !reflect.DeepEqual(nums, []int{1, 2, 3, 4}) {
		t.Errorf("line numbers = %v", nums)
	}
}

func TestScanLines_CallbackErrorStops(t *testing.T) {
	stop := errors.New("stop")
	calls := 0

	err := ScanLines(context.Background(), strings.NewReader("a\nb\nc\n"), func(int, string) error {
		calls++
		if calls == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Errorf("ScanLines() error = %v, want %v", err, stop)
	}
	if calls != 2 {
		t.Errorf("callback ran %d times, want 2", calls)
	}
}

func TestScanLines_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ScanLines(ctx, strings.NewReader("a\nb\n"), func(int, string) error {
		t.Error("callback should not run after cancellation")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ScanLines() error = %v, want context.Canceled", err)
	}
}

func TestScanLines_LineTooLong(t *testing.T) {
	long := strings.Repeat("x", MaxLineSize+10)
	err := ScanLines(context.Background(), strings.NewReader(long), func(int, string) error { return nil })
	if err == nil {
		t.Error("ScanLines() expected error for oversized line")
	}
}
