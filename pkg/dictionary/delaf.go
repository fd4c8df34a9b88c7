package dictionary

import (
	"fmt"
	"strings"
)

// Entry is a parsed DELAF line: inflected,lemma.Gram+Sem1+Sem2:infl1:infl2
type Entry struct {
	Inflected string
	Lemma     string
	// Codes holds the grammatical code first, then the semantic codes.
	Codes        []string
	Inflectional []string
	Comment      string
}

// GrammaticalCode returns the part of speech code.
func (e *Entry) GrammaticalCode() string {
	if len(e.Codes) == 0 {
		return ""
	}
	return e.Codes[0]
}

// ParseDELAF parses one DELAF line. Backslash escapes protect the field
// separators and are removed from the returned fields. An empty lemma means
// the lemma is the inflected form.
func ParseDELAF(line string) (*Entry, error) {
	s := []rune(line)
	inflected, pos, ok := readField(s, 0, ',')
	if !ok {
		return nil, fmt.Errorf("%w: no comma in %q", ErrMalformedLine, line)
	}
	if inflected == "" {
		return nil, fmt.Errorf("%w: empty inflected form in %q", ErrMalformedLine, line)
	}
	lemma, pos, ok := readField(s, pos, '.')
	if !ok {
		return nil, fmt.Errorf("%w: no dot in %q", ErrMalformedLine, line)
	}
	if lemma == "" {
		lemma = inflected
	}
	e := &Entry{Inflected: inflected, Lemma: lemma}

	end := indexUnescaped(s, pos, '/')
	if end >= 0 {
		e.Comment = string(s[end+1:])
	} else {
		end = len(s)
	}
	// split before unescaping so that escaped + and : stay inside their code
	groups := splitUnescaped(s[pos:end], ':')
	e.Codes = splitUnescaped([]rune(groups[0]), '+')
	if e.GrammaticalCode() == "" {
		return nil, fmt.Errorf("%w: empty grammatical code in %q", ErrMalformedLine, line)
	}
	e.Inflectional = groups[1:]
	for i, c := range e.Codes {
		e.Codes[i] = unescape(c)
	}
	for i, c := range e.Inflectional {
		e.Inflectional[i] = unescape(c)
	}
	return e, nil
}

// String formats the entry back into a DELAF line.
func (e *Entry) String() string {
	var b strings.Builder
	writeEscaped(&b, e.Inflected, ",.")
	b.WriteByte(',')
	if e.Lemma != e.Inflected {
		writeEscaped(&b, e.Lemma, ",.")
	}
	b.WriteByte('.')
	b.WriteString(strings.Join(e.Codes, "+"))
	for _, c := range e.Inflectional {
		b.WriteByte(':')
		b.WriteString(c)
	}
	if e.Comment != "" {
		b.WriteByte('/')
		b.WriteString(e.Comment)
	}
	return b.String()
}

// readField reads up to the first unescaped stop rune. It returns the
// unescaped field, the position after the stop rune, and whether the stop
// rune was found.
func readField(s []rune, pos int, stop rune) (string, int, bool) {
	var b strings.Builder
	for pos < len(s) {
		switch s[pos] {
		case '\\':
			pos++
			if pos < len(s) {
				b.WriteRune(s[pos])
				pos++
			}
		case stop:
			return b.String(), pos + 1, true
		default:
			b.WriteRune(s[pos])
			pos++
		}
	}
	return b.String(), pos, false
}

func indexUnescaped(s []rune, pos int, r rune) int {
	for i := pos; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == r {
			return i
		}
	}
	return -1
}

func splitUnescaped(s []rune, sep rune) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == sep {
			out = append(out, string(s[start:i]))
			start = i + 1
		}
	}
	return append(out, string(s[start:]))
}

func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	v, _, _ := readField([]rune(s), 0, -1)
	return v
}
