/*
Package dictionary reads compiled dictionaries: a compressed trie (.bin)
paired with a table of compressed codes (.inf).

A .bin starts with a 4-byte header. Each state is a 16-bit big-endian head
whose high bit is set for non-final states, the low 15 bits being the
transition count; final states follow the head with the index of their
code line. Each transition is a UTF-16 code unit followed by the absolute
offset of its destination. Classic files (type byte 0) use 3-byte indexes,
2-byte chars and 3-byte offsets; type 1 files name their encodings in the
header.

Dictionaries are immutable once opened and may be shared by several passes.
*/
package dictionary

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf16"

	"github.com/bastiangx/dicoserve/internal/utils"
	"github.com/bastiangx/dicoserve/pkg/alphabet"
	"github.com/bastiangx/dicoserve/pkg/textio"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Dictionary is an opened .bin/.inf pair.
type Dictionary struct {
	Name string
	Path string
	Bin  *Bin
	Inf  *Codes
}

// Open maps path (a .bin) and loads the .inf next to it. Both files are
// read concurrently, then the trie is validated against the code table.
func Open(path string, enc textio.Encoding) (*Dictionary, error) {
	var (
		bin   *Bin
		codes *Codes
		g     errgroup.Group
	)
	g.Go(func() error {
		var err error
		bin, err = OpenBin(path)
		return err
	})
	g.Go(func() error {
		var err error
		codes, err = LoadInf(utils.CompanionPath(path, ".inf"), enc)
		return err
	})
	if err := g.Wait(); err != nil {
		if bin != nil {
			bin.Close()
		}
		return nil, fmt.Errorf("open dictionary %s: %w", path, err)
	}
	if err := bin.Validate(codes.Len()); err != nil {
		bin.Close()
		return nil, fmt.Errorf("open dictionary %s: %w", path, err)
	}
	log.Debugf("Opened dictionary %s: %d bytes, %d code lines", path, bin.Size(), codes.Len())
	return &Dictionary{
		Name: filepath.Base(path),
		Path: path,
		Bin:  bin,
		Inf:  codes,
	}, nil
}

// New assembles a dictionary from decoded parts.
func New(name string, bin *Bin, codes *Codes) (*Dictionary, error) {
	if err := bin.Validate(codes.Len()); err != nil {
		return nil, err
	}
	return &Dictionary{Name: name, Path: name, Bin: bin, Inf: codes}, nil
}

// Close releases the mapped trie.
func (d *Dictionary) Close() error {
	if d == nil || d.Bin == nil {
		return nil
	}
	return d.Bin.Close()
}

// Lines decodes every code of an INF line into DELAF lines for inflected.
func (d *Dictionary) Lines(inflected string, inf int) ([]string, error) {
	codes, err := d.Inf.Line(inf)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(codes))
	for i, code := range codes {
		out[i] = Uncompress(inflected, code)
	}
	return out, nil
}

// PriorityFromName maps a dictionary file name to its priority: a name
// ending in "-" is applied first (1), one ending in "+" last (3), others in
// between (2).
func PriorityFromName(path string) int {
	name := utils.NameWithoutExtension(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, "-"):
		return 1
	case strings.HasSuffix(name, "+"):
		return 3
	}
	return 2
}

// Visit is called by Walk for each node reached with the last char of the
// input consumed. inflected is the exact dictionary spelling of the whole
// path, prefix included.
type Visit func(offset int, st State, inflected string) error

// Walk consumes chars from the state at start, following every transition
// whose char is compatible with the text char under alph, and calls visit at
// each node reached at the end of chars. prefix is the dictionary spelling
// already matched before start. maxDepth bounds the number of chars consumed.
func (d *Dictionary) Walk(start int, chars []uint16, prefix []uint16, alph *alphabet.Alphabet, maxDepth int, visit Visit) error {
	if maxDepth > 0 && len(chars) > maxDepth {
		return fmt.Errorf("%w: %d chars, bound is %d", ErrDepthExceeded, len(chars), maxDepth)
	}
	buf := make([]uint16, len(prefix), len(prefix)+len(chars))
	copy(buf, prefix)
	return d.walk(start, chars, 0, buf, alph, visit)
}

func (d *Dictionary) walk(offset int, chars []uint16, pos int, buf []uint16, alph *alphabet.Alphabet, visit Visit) error {
	st, err := d.Bin.State(offset)
	if err != nil {
		return err
	}
	if pos == len(chars) {
		return visit(offset, st, string(utf16.Decode(buf)))
	}
	next := st.First
	for i := 0; i < st.Count; i++ {
		t, err := d.Bin.Transition(next)
		if err != nil {
			return err
		}
		next = t.Next
		if alph.Matches(rune(t.Char), rune(chars[pos])) {
			if err := d.walk(t.Dest, chars, pos+1, append(buf, t.Char), alph, visit); err != nil {
				return err
			}
		}
	}
	return nil
}

// errStop ends a walk early without reporting an error.
var errStop = errors.New("stop")

// Lookup returns every DELAF line word matches as a simple word, across all
// case compatible spellings. No session state is touched.
func (d *Dictionary) Lookup(word string, alph *alphabet.Alphabet, maxDepth int) ([]string, error) {
	if alph == nil {
		alph = alphabet.Unicode()
	}
	var lines []string
	err := d.Walk(d.Bin.Root(), utf16.Encode([]rune(word)), nil, alph, maxDepth,
		func(_ int, st State, inflected string) error {
			if !st.Final {
				return nil
			}
			found, err := d.Lines(inflected, st.Inf)
			if err != nil {
				return err
			}
			lines = append(lines, found...)
			return nil
		})
	if err != nil && !errors.Is(err, errStop) {
		return nil, err
	}
	return lines, nil
}

// Contains reports whether word reaches a final state.
func (d *Dictionary) Contains(word string, alph *alphabet.Alphabet) bool {
	if alph == nil {
		alph = alphabet.Unicode()
	}
	found := false
	err := d.Walk(d.Bin.Root(), utf16.Encode([]rune(word)), nil, alph, 0,
		func(_ int, st State, _ string) error {
			if st.Final {
				found = true
				return errStop
			}
			return nil
		})
	return found && (err == nil || errors.Is(err, errStop))
}
