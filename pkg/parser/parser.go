package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// TimestampLayout is the Go layout of the bracketed access-log timestamp.
const TimestampLayout = "02/Jan/2006:15:04:05 -0700"

// linePattern matches a combined access-log line:
//
//	<client> - - [<time>] "<METHOD> <path> HTTP/<version>" <status> <bytes> "<referrer>" "<user-agent>"
const linePattern = `^([0-9a-fA-F:]+?|\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}) - - \[(.*?)\] "([A-Z]+) (.*?) HTTP/[^"]*" (\d{3}) (\d+) "(.*?)" "(.*?)"$`

// Capture group positions in linePattern.
const (
	groupIP = iota + 1
	groupTime
	groupMethod
	groupPath
	groupStatus
	groupBytes
	groupReferrer
	groupUserAgent
)

// ErrMalformedLine is returned by Parse for lines that do not match the
// access-log grammar. It is never fatal to ingestion.
var ErrMalformedLine = errors.New("malformed log line")

// Parser holds the compiled line grammar. A Parser is immutable and safe for
// concurrent use, so one value is shared by every ingestion worker.
type Parser struct {
	re *regexp.Regexp
}

// NewParser compiles the access-log grammar.
func NewParser() *Parser {
	return &Parser{re: regexp.MustCompile(linePattern)}
}

// Parse turns one line into a Record. Lines failing the grammar, or carrying
// an unparseable timestamp, return an error wrapping ErrMalformedLine.
func (p *Parser) Parse(line string) (Record, error) {
	m := p.re.FindStringSubmatch(line)
	if m == nil {
		return Record{}, fmt.Errorf("%w: grammar did not match", ErrMalformedLine)
	}

	ts, err := time.Parse(TimestampLayout, m[groupTime])
	if err != nil {
		return Record{}, fmt.Errorf("%w: timestamp %q: %v", ErrMalformedLine, m[groupTime], err)
	}

	status, err := strconv.Atoi(m[groupStatus])
	if err != nil {
		return Record{}, fmt.Errorf("%w: status %q: %v", ErrMalformedLine, m[groupStatus], err)
	}

	return Record{
		IP:        m[groupIP],
		Timestamp: ts,
		Method:    m[groupMethod],
		Path:      m[groupPath],
		Status:    status,
		Referrer:  m[groupReferrer],
		UserAgent: m[groupUserAgent],
	}, nil
}
