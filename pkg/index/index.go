// Package index stores parsed records and keeps them addressable by request
// path and by UTC calendar day.
//
// The record slice is an arena: a record's position in it is its offset, and
// the path and date lookups hold offsets into the arena. Merge appends another
// index's arena and shifts its offsets, so every offset stays valid.
//
// An Index is not safe for concurrent use. Build it from one goroutine, then
// hand it to whoever merges it.
package index

import (
	"sort"

	"github.com/ccollicutt/weblogviz/pkg/parser"
)

// Index is an append-only record store with by-path and by-date lookups.
type Index struct {
	store  []parser.Record
	byPath map[string][]int
	paths  []string // first-seen order
	byDate map[Date][]int
	dates  []Date // ascending
}

// New returns an empty index.
func New() *Index {
	return &Index{
		byPath: make(map[string][]int),
		byDate: make(map[Date][]int),
	}
}

// Insert appends rec and records its offset under its path and UTC date.
func (idx *Index) Insert(rec parser.Record) {
	offset := len(idx.store)
	idx.store = append(idx.store, rec)
	idx.addPath(rec.Path, offset)
	idx.addDate(DateOf(rec.Timestamp), offset)
}

// Merge appends every record of other, translating its offsets by the
// current length of idx. Per-path and per-date counts after merging do not
// depend on merge order. Absolute record positions only follow each source's
// own order; they say nothing about timestamps across sources.
//
// other is consumed: it is left empty after the call. Merging an index
// into itself does nothing.
func (idx *Index) Merge(other *Index) {
	if other == nil || other == idx || len(other.store) == 0 {
		return
	}

	shift := len(idx.store)
	idx.store = append(idx.store, other.store...)

	for _, p := range other.paths {
		for _, offset := range other.byPath[p] {
			idx.addPath(p, offset+shift)
		}
	}
	for _, d := range other.dates {
		for _, offset := range other.byDate[d] {
			idx.addDate(d, offset+shift)
		}
	}

	*other = *New()
}

func (idx *Index) addPath(p string, offset int) {
	offsets, ok := idx.byPath[p]
	if !ok {
		idx.paths = append(idx.paths, p)
	}
	idx.byPath[p] = append(offsets, offset)
}

func (idx *Index) addDate(d Date, offset int) {
	offsets, ok := idx.byDate[d]
	if !ok {
		i := sort.Search(len(idx.dates), func(i int) bool { return !idx.dates[i].Before(d) })
		idx.dates = append(idx.dates, Date{})
		copy(idx.dates[i+1:], idx.dates[i:])
		idx.dates[i] = d
	}
	idx.byDate[d] = append(offsets, offset)
}

// Len returns the number of stored records.
func (idx *Index) Len() int {
	return len(idx.store)
}

// Record returns the record at offset. It panics if offset is out of range,
// like a slice index.
func (idx *Index) Record(offset int) parser.Record {
	return idx.store[offset]
}

// Paths returns the distinct paths in first-seen order.
func (idx *Index) Paths() []string {
	return append([]string(nil), idx.paths...)
}

// PathIndices returns the offsets of records with path p, in insertion order.
func (idx *Index) PathIndices(p string) []int {
	return append([]int(nil), idx.byPath[p]...)
}

// Dates returns the distinct dates in ascending order.
func (idx *Index) Dates() []Date {
	return append([]Date(nil), idx.dates...)
}

// DateIndices returns the offsets of records on d, in insertion order.
func (idx *Index) DateIndices(d Date) []int {
	return append([]int(nil), idx.byDate[d]...)
}

// CountByPath returns the number of records per path.
func (idx *Index) CountByPath() map[string]int {
	counts := make(map[string]int, len(idx.byPath))
	for p, offsets := range idx.byPath {
		counts[p] = len(offsets)
	}
	return counts
}

// CountByDate returns the number of records per date.
func (idx *Index) CountByDate() map[Date]int {
	counts := make(map[Date]int, len(idx.byDate))
	for d, offsets := range idx.byDate {
		counts[d] = len(offsets)
	}
	return counts
}

// RecordsOnDate returns copies of the records on d without modifying idx.
func (idx *Index) RecordsOnDate(d Date) []parser.Record {
	offsets := idx.byDate[d]
	if len(offsets) == 0 {
		return nil
	}
	recs := make([]parser.Record, len(offsets))
	for i, offset := range offsets {
		recs[i] = idx.store[offset]
	}
	return recs
}
