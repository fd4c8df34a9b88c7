// Package fixture writes small dictionaries and tokenized texts for tests.
// The trie it builds is a plain prefix tree, not a minimized automaton.
package fixture

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf16"

	"github.com/bastiangx/dicoserve/pkg/textio"
)

// Number encodings of a type 1 .bin header.
const (
	Enc2 uint8 = iota
	Enc3
	Enc4
	EncVariable
)

// Dict maps inflected forms to their compressed codes, e.g. "cat": {".N"}.
type Dict map[string][]string

type node struct {
	final    bool
	inf      int
	children map[uint16]*node
	offset   int
}

type layout struct {
	typ           uint8
	inf, ch, dest uint8
}

// Bin encodes d as a classic (type 0) .bin.
func (d Dict) Bin() []byte {
	return d.encode(layout{typ: 0, inf: Enc3, ch: Enc2, dest: Enc3})
}

// BinWithEncodings encodes d as a type 1 .bin. dest must be a fixed width.
func (d Dict) BinWithEncodings(inf, ch, dest uint8) []byte {
	if dest == EncVariable {
		panic("fixture: variable width destinations are not supported")
	}
	return d.encode(layout{typ: 1, inf: inf, ch: ch, dest: dest})
}

// Forms returns the inflected forms in INF line order.
func (d Dict) Forms() []string {
	forms := make([]string, 0, len(d))
	for f := range d {
		forms = append(forms, f)
	}
	sort.Strings(forms)
	return forms
}

// InfLines returns the .inf content, count line first.
func (d Dict) InfLines() []string {
	forms := d.Forms()
	lines := []string{fmt.Sprintf("%010d", len(forms))}
	for _, f := range forms {
		line := ""
		for i, c := range d[f] {
			if i > 0 {
				line += ","
			}
			line += c
		}
		lines = append(lines, line)
	}
	return lines
}

// Write stores d as dir/name.bin and dir/name.inf and returns the .bin path.
func (d Dict) Write(dir, name string, enc textio.Encoding) (string, error) {
	binPath := filepath.Join(dir, name+".bin")
	if err := os.WriteFile(binPath, d.Bin(), 0o644); err != nil {
		return "", err
	}
	if err := textio.WriteLines(filepath.Join(dir, name+".inf"), enc, d.InfLines()); err != nil {
		return "", err
	}
	return binPath, nil
}

func (d Dict) encode(l layout) []byte {
	root := &node{children: map[uint16]*node{}}
	for i, form := range d.Forms() {
		n := root
		for _, c := range utf16.Encode([]rune(form)) {
			child, ok := n.children[c]
			if !ok {
				child = &node{children: map[uint16]*node{}}
				n.children[c] = child
			}
			n = child
		}
		n.final = true
		n.inf = i
	}

	var order []*node
	var assign func(n *node, off int) int
	assign = func(n *node, off int) int {
		n.offset = off
		order = append(order, n)
		size := 2
		if n.final {
			size += width(l.inf, n.inf)
		}
		for c := range n.children {
			size += width(l.ch, int(c)) + width(l.dest, 0)
		}
		off += size
		for _, c := range sortedKeys(n.children) {
			off = assign(n.children[c], off)
		}
		return off
	}
	total := assign(root, 4)

	out := make([]byte, 4, total)
	if l.typ == 0 {
		binary.BigEndian.PutUint32(out, uint32(total))
	} else {
		out[0], out[1], out[2], out[3] = 1, l.inf, l.ch, l.dest
	}
	for _, n := range order {
		head := uint16(len(n.children))
		if !n.final {
			head |= 0x8000
		}
		out = binary.BigEndian.AppendUint16(out, head)
		if n.final {
			out = put(out, l.inf, n.inf)
		}
		for _, c := range sortedKeys(n.children) {
			out = put(out, l.ch, int(c))
			out = put(out, l.dest, n.children[c].offset)
		}
	}
	return out
}

func sortedKeys(m map[uint16]*node) []uint16 {
	keys := make([]uint16, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func width(enc uint8, v int) int {
	switch enc {
	case Enc2:
		return 2
	case Enc3:
		return 3
	case Enc4:
		return 4
	}
	n := 1
	for v >= 1<<7 {
		v >>= 7
		n++
	}
	return n
}

func put(out []byte, enc uint8, v int) []byte {
	switch enc {
	case Enc2:
		return append(out, byte(v>>8), byte(v))
	case Enc3:
		return append(out, byte(v>>16), byte(v>>8), byte(v))
	case Enc4:
		return append(out, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
	n := width(EncVariable, v)
	for i := n - 1; i > 0; i-- {
		out = append(out, byte(v>>(7*i))&0x7f|0x80)
	}
	return append(out, byte(v)&0x7f)
}

// Text is a tokenized text: distinct tokens and the id of every occurrence.
type Text struct {
	Tokens []string
	IDs    []int
}

// NewText tokenizes a sequence of surface tokens, assigning ids in order of
// first appearance.
func NewText(words ...string) Text {
	var t Text
	index := map[string]int{}
	for _, w := range words {
		id, ok := index[w]
		if !ok {
			id = len(t.Tokens)
			index[w] = id
			t.Tokens = append(t.Tokens, w)
		}
		t.IDs = append(t.IDs, id)
	}
	return t
}

// TokensFile returns the tokens.txt lines.
func (t Text) TokensFile() []string {
	return append([]string{fmt.Sprintf("%010d", len(t.Tokens))}, t.Tokens...)
}

// Cod returns the text.cod bytes: little-endian int32 ids.
func (t Text) Cod() []byte {
	out := make([]byte, 0, 4*len(t.IDs))
	for _, id := range t.IDs {
		out = binary.LittleEndian.AppendUint32(out, uint32(int32(id)))
	}
	return out
}

// Write creates dir/name.snt and its dir/name_snt working directory with
// tokens.txt and text.cod. It returns the .snt path.
func (t Text) Write(dir, name string, enc textio.Encoding) (string, error) {
	snt := filepath.Join(dir, name+".snt")
	work := filepath.Join(dir, name+"_snt")
	if err := os.MkdirAll(work, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(snt, nil, 0o644); err != nil {
		return "", err
	}
	if err := textio.WriteLines(filepath.Join(work, "tokens.txt"), enc, t.TokensFile()); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(work, "text.cod"), t.Cod(), 0o644); err != nil {
		return "", err
	}
	return snt, nil
}

// Alphabet returns the lines of a latin alphabet file with case pairs.
func Alphabet() []string {
	var lines []string
	for c := 'A'; c <= 'Z'; c++ {
		lines = append(lines, string([]rune{c, c + 'a' - 'A'}))
	}
	return append(lines, "Éé", "Èè", "Àà")
}
