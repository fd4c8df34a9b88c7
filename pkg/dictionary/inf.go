package dictionary

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bastiangx/dicoserve/pkg/textio"
)

// Codes is the code table of a dictionary: line i holds the compressed
// codes shared by every final state whose INF index is i.
type Codes struct {
	lines [][]string
}

// LoadInf reads a .inf file.
func LoadInf(path string, enc textio.Encoding) (*Codes, error) {
	if err := ValidateFileFormat(path, FormatInf); err != nil {
		return nil, err
	}
	lines, err := textio.ReadLines(path, enc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	codes, err := ParseInf(lines)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return codes, nil
}

// ParseInf builds a code table from the lines of a .inf file, the first of
// which is the zero padded line count.
func ParseInf(lines []string) (*Codes, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: missing count line", ErrInvalidInf)
	}
	n, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: bad count line %q", ErrInvalidInf, lines[0])
	}
	body := lines[1:]
	for len(body) > n && body[len(body)-1] == "" {
		body = body[:len(body)-1]
	}
	if len(body) != n {
		return nil, fmt.Errorf("%w: header announces %d lines, found %d", ErrInvalidInf, n, len(body))
	}
	c := &Codes{lines: make([][]string, n)}
	for i, line := range body {
		c.lines[i] = SplitCodes(line)
	}
	return c, nil
}

// SplitCodes splits a code line at commas that are not escaped. Escapes are
// kept so that Uncompress sees the code exactly as compressed.
func SplitCodes(line string) []string {
	var out []string
	var cur strings.Builder
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '\\':
			cur.WriteRune('\\')
			if i+1 < len(runes) {
				i++
				cur.WriteRune(runes[i])
			}
		case ',':
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(runes[i])
		}
	}
	return append(out, cur.String())
}

// Len is the number of code lines.
func (c *Codes) Len() int { return len(c.lines) }

// Line returns the codes of line i.
func (c *Codes) Line(i int) ([]string, error) {
	if i < 0 || i >= len(c.lines) {
		return nil, fmt.Errorf("%w: code line %d out of %d", ErrInvalidInf, i, len(c.lines))
	}
	return c.lines[i], nil
}
