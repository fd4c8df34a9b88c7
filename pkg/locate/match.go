// Package locate reads match lists produced by the Locate engine
// (concord.ind) and writes the tag sequence index.
package locate

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/bastiangx/dicoserve/pkg/textio"
)

var (
	// ErrMalformedMatch is returned for records that do not parse.
	ErrMalformedMatch = errors.New("malformed match")
	// ErrInvalidTagSequence is returned for tag outputs with no content.
	ErrInvalidTagSequence = errors.New("invalid tag sequence")
)

// Mode is the transduction mode announced by a match list header.
type Mode byte

const (
	Ignore  Mode = 'I'
	Merge   Mode = 'M'
	Replace Mode = 'R'
)

// Position locates a char inside the token stream. Char and Letter are 0
// for whole-token positions.
type Position struct {
	Token  int
	Char   int
	Letter int
}

// Match is one record of a match list. Start and End are both inclusive.
type Match struct {
	Start  Position
	End    Position
	Output string
	// Line is the 1-based line of the record in its file
	Line int
}

// HasOutput reports whether the record carries an output.
func (m Match) HasOutput() bool { return m.Output != "" }

// IsTag reports whether the output is a tag sequence.
func (m Match) IsTag() bool { return strings.HasPrefix(m.Output, "/") }

// Tag returns the tag sequence without its leading slash.
func (m Match) Tag() (string, error) {
	if !m.IsTag() {
		return "", fmt.Errorf("%w: output %q does not start with /", ErrInvalidTagSequence, m.Output)
	}
	tag := m.Output[1:]
	if tag == "" {
		return "", fmt.Errorf("%w: empty tag at line %d", ErrInvalidTagSequence, m.Line)
	}
	return tag, nil
}

// List is a parsed match list.
type List struct {
	Mode    Mode
	Matches []Match
	// Skipped holds one error per record that did not parse
	Skipped []error
}

// Load reads a match list file.
func Load(path string, enc textio.Encoding) (*List, error) {
	lines, err := textio.ReadLines(path, enc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	l, err := Parse(lines)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// Parse decodes the lines of a match list. A bad header fails the whole
// list; a bad record is recorded in Skipped and parsing continues.
func Parse(lines []string) (*List, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrMalformedMatch)
	}
	header := strings.TrimSpace(lines[0])
	if len(header) != 2 || header[0] != '#' {
		return nil, fmt.Errorf("%w: bad header %q", ErrMalformedMatch, lines[0])
	}
	l := &List{Mode: Mode(header[1])}
	switch l.Mode {
	case Ignore, Merge, Replace:
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrMalformedMatch, header)
	}
	for i, line := range lines[1:] {
		if line == "" {
			continue
		}
		m, err := ParseRecord(line)
		if err != nil {
			l.Skipped = append(l.Skipped, fmt.Errorf("line %d: %w", i+2, err))
			continue
		}
		m.Line = i + 2
		l.Matches = append(l.Matches, m)
	}
	return l, nil
}

// ParseRecord decodes "<start> <end>[ <output>]".
func ParseRecord(line string) (Match, error) {
	startField, rest, ok := strings.Cut(line, " ")
	if !ok {
		return Match{}, fmt.Errorf("%w: %q has no end position", ErrMalformedMatch, line)
	}
	endField, output, _ := strings.Cut(rest, " ")
	start, err := ParsePosition(startField)
	if err != nil {
		return Match{}, err
	}
	end, err := ParsePosition(endField)
	if err != nil {
		return Match{}, err
	}
	if Compare(Match{Start: end}, Match{Start: start}) < 0 {
		return Match{}, fmt.Errorf("%w: %q ends before it starts", ErrMalformedMatch, line)
	}
	return Match{Start: start, End: end, Output: output}, nil
}

// ParsePosition decodes "<token>" or "<token>.<char>.<letter>".
func ParsePosition(s string) (Position, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 1 && len(parts) != 3 {
		return Position{}, fmt.Errorf("%w: bad position %q", ErrMalformedMatch, s)
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Position{}, fmt.Errorf("%w: bad position %q", ErrMalformedMatch, s)
		}
		v[i] = n
	}
	return Position{Token: v[0], Char: v[1], Letter: v[2]}, nil
}

func comparePosition(a, b Position) int {
	switch {
	case a.Token != b.Token:
		return a.Token - b.Token
	case a.Char != b.Char:
		return a.Char - b.Char
	}
	return a.Letter - b.Letter
}

// Compare orders matches by start, then end, then output.
func Compare(a, b Match) int {
	if c := comparePosition(a.Start, b.Start); c != 0 {
		return c
	}
	if c := comparePosition(a.End, b.End); c != 0 {
		return c
	}
	return strings.Compare(a.Output, b.Output)
}

// Sort orders matches in place by position.
func Sort(matches []Match) {
	slices.SortStableFunc(matches, Compare)
}

// WriteTagIndex sorts tags and writes them as a tag index: a "#T" line,
// then "<start>.0.0 <end token>.<end char>.0 <tag>" per sequence.
func WriteTagIndex(w io.Writer, tags []Match) error {
	Sort(tags)
	if _, err := io.WriteString(w, "#T\n"); err != nil {
		return err
	}
	for _, m := range tags {
		tag, err := m.Tag()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%d.0.0 %d.%d.0 %s\n", m.Start.Token, m.End.Token, m.End.Char, tag); err != nil {
			return err
		}
	}
	return nil
}
