// Package tokens loads the tokenizer's output for a text: the table of
// distinct tokens (tokens.txt) and the token id of every occurrence
// (text.cod).
package tokens

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bastiangx/dicoserve/pkg/alphabet"
	"github.com/bastiangx/dicoserve/pkg/textio"
	"github.com/tchap/go-patricia/v2/patricia"
)

var (
	// ErrInvalidTokens is returned for unreadable token tables.
	ErrInvalidTokens = errors.New("invalid token table")
	// ErrInvalidStream is returned for token streams that do not decode.
	ErrInvalidStream = errors.New("invalid token stream")
)

// Special tokens written by the tokenizer.
const (
	SentenceMarker = "{S}"
	StopMarker     = "{STOP}"
	Space          = " "
)

// Table is the ordered set of distinct tokens of a text. A token's id is its
// position in the table.
type Table struct {
	tokens []string
	index  *patricia.Trie
	// ids of the special tokens, -1 when absent
	Sentence int
	Stop     int
	Space    int
}

// LoadTable reads tokens.txt: a count line, then one token per line.
func LoadTable(path string, enc textio.Encoding) (*Table, error) {
	lines, err := textio.ReadLines(path, enc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrInvalidTokens, path)
	}
	n, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: %s: bad count line %q", ErrInvalidTokens, path, lines[0])
	}
	if len(lines)-1 < n {
		return nil, fmt.Errorf("%w: %s announces %d tokens, found %d", ErrInvalidTokens, path, n, len(lines)-1)
	}
	return NewTable(lines[1 : n+1])
}

// NewTable indexes tokens. Tokens must be distinct and non-empty.
func NewTable(tokens []string) (*Table, error) {
	t := &Table{
		tokens:   tokens,
		index:    patricia.NewTrie(),
		Sentence: -1,
		Stop:     -1,
		Space:    -1,
	}
	for id, tok := range tokens {
		if tok == "" {
			return nil, fmt.Errorf("%w: token %d is empty", ErrInvalidTokens, id)
		}
		if !t.index.Insert(patricia.Prefix(tok), id) {
			return nil, fmt.Errorf("%w: token %q appears twice", ErrInvalidTokens, tok)
		}
		switch tok {
		case SentenceMarker:
			t.Sentence = id
		case StopMarker:
			t.Stop = id
		case Space:
			t.Space = id
		}
	}
	return t, nil
}

// Len is the number of distinct tokens.
func (t *Table) Len() int { return len(t.tokens) }

// Token returns the surface form of id.
func (t *Table) Token(id int) string { return t.tokens[id] }

// ID resolves a surface form to its token id. Only exact forms match.
func (t *Table) ID(surface string) (int, bool) {
	if surface == "" {
		return -1, false
	}
	item := t.index.Get(patricia.Prefix(surface))
	if item == nil {
		return -1, false
	}
	return item.(int), true
}

// VisitPrefix calls fn for every token starting with prefix.
func (t *Table) VisitPrefix(prefix string, fn func(token string, id int) error) error {
	return t.index.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, item patricia.Item) error {
		return fn(string(p), item.(int))
	})
}

// Sequence converts a multi-token surface form into token ids by word by
// word tokenization. ok is false when a piece is not a token of the text.
func (t *Table) Sequence(surface string, alph *alphabet.Alphabet) ([]int, bool) {
	pieces := alph.Tokenize(surface)
	if len(pieces) == 0 {
		return nil, false
	}
	seq := make([]int, len(pieces))
	for i, p := range pieces {
		id, ok := t.ID(p)
		if !ok {
			return nil, false
		}
		seq[i] = id
	}
	return seq, true
}
