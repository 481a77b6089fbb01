package parser

import (
	"fmt"
	"path/filepath"
	"sort"
)

// ExpandGlobs expands source arguments that contain glob metacharacters.
// Plain paths, and patterns that match nothing, are kept literally so the
// reader can report them as unavailable. Order of first appearance is
// preserved and duplicates are dropped.
func ExpandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}

		if len(matches) == 0 {
			add(pattern)
			continue
		}

		// Glob output is sorted, keep it that way within one pattern.
		sort.Strings(matches)
		for _, match := range matches {
			add(match)
		}
	}

	return result, nil
}
