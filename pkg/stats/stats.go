// Package stats derives ranked hit reports from an index.
package stats

import (
	"sort"

	"github.com/ccollicutt/weblogviz/pkg/index"
)

// Entry is one ranked (count, key) pair.
type Entry struct {
	Count int    `json:"count"`
	Key   string `json:"path"`
}

// Day is the ranking for a single date.
type Day struct {
	Date index.Date `json:"date"`
	Hits int        `json:"hits"`
	Top  []Entry    `json:"top"`
}

// Rank sorts counts into entries ordered by count descending, ties broken by
// key descending. This is the reverse of the natural (count, key) order.
func Rank(counts map[string]int) []Entry {
	entries := make([]Entry, 0, len(counts))
	for key, count := range counts {
		entries = append(entries, Entry{Count: count, Key: key})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Key > entries[j].Key
	})
	return entries
}

// TopByCount returns at most n paths of idx ranked by hit count. Fewer are
// returned when idx has fewer distinct paths; n <= 0 yields none.
func TopByCount(idx *index.Index, n int) []Entry {
	if n <= 0 {
		return []Entry{}
	}
	entries := Rank(idx.CountByPath())
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// DailyTop ranks paths separately for each of the most recent days dates in
// idx, newest first. Each day is ranked from a fresh index holding only that
// day's records, so it never sees traffic from other dates.
func DailyTop(idx *index.Index, days, n int) []Day {
	if days <= 0 {
		return []Day{}
	}

	dates := idx.Dates()
	sort.Slice(dates, func(i, j int) bool { return dates[j].Before(dates[i]) })
	if len(dates) > days {
		dates = dates[:days]
	}

	result := make([]Day, 0, len(dates))
	for _, d := range dates {
		recs := idx.RecordsOnDate(d)
		daily := index.New()
		for _, rec := range recs {
			daily.Insert(rec)
		}
		result = append(result, Day{
			Date: d,
			Hits: daily.Len(),
			Top:  TopByCount(daily, n),
		})
	}
	return result
}
