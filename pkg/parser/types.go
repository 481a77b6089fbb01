// Package parser turns access-log text into structured records and provides
// the file-backed source reader and lister used by the ingestor.
package parser

import "time"

// Record is one structured access-log entry. It is never mutated after Parse
// returns it.
type Record struct {
	// IP is the client address exactly as it appeared in the line.
	IP string

	// Timestamp keeps the UTC offset written in the line. Use UTC() for
	// date bucketing.
	Timestamp time.Time

	// Method is the HTTP request method (GET, HEAD, ...).
	Method string

	// Path is the request target without scheme or host. Query strings
	// are kept unless a filter rewrites them.
	Path string

	// Status is the HTTP response status.
	Status int

	// Referrer is the referrer field, "-" when absent.
	Referrer string

	// UserAgent is the user-agent field, "-" when absent.
	UserAgent string
}

// WithPath returns a copy of r with its path replaced.
func (r Record) WithPath(path string) Record {
	r.Path = path
	return r
}
