package dictionary

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// State is a decoded trie node.
type State struct {
	Final bool
	// Count is the number of outgoing transitions.
	Count int
	// Inf is the code table line of a final state, -1 otherwise.
	Inf int
	// First is the offset of the first transition record.
	First int
}

// Transition is one outgoing edge of a State.
type Transition struct {
	Char uint16
	Dest int
	// Next is the offset of the following transition record.
	Next int
}

// Bin is a read-only, byte addressable compressed trie. It never mutates
// its bytes; every read is bounds checked.
type Bin struct {
	data   []byte
	mapped mmap.MMap
	header Header
}

// OpenBin memory maps a .bin file read-only.
func OpenBin(path string) (*Bin, error) {
	if err := ValidateFileFormat(path, FormatBin); err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	mapped, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	b, err := NewBin(mapped)
	if err != nil {
		_ = mapped.Unmap()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	b.mapped = mapped
	return b, nil
}

// NewBin wraps bytes already in memory.
func NewBin(data []byte) (*Bin, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	return &Bin{data: data, header: h}, nil
}

// Close unmaps the file. The Bin must not be used afterwards.
func (b *Bin) Close() error {
	b.data = nil
	if b.mapped == nil {
		return nil
	}
	err := b.mapped.Unmap()
	b.mapped = nil
	return err
}

// Root is the offset of the initial state.
func (b *Bin) Root() int { return headerSize }

// Size is the byte length of the store.
func (b *Bin) Size() int { return len(b.data) }

// Header returns the decoded header.
func (b *Bin) Header() Header { return b.header }

func (b *Bin) read(enc BinEncoding, off int) (int, int, error) {
	width := 0
	switch enc {
	case Bin2Bytes:
		width = 2
	case Bin3Bytes:
		width = 3
	case Bin4Bytes:
		width = 4
	case BinVariable:
		v := 0
		for i := 0; i < 5; i++ {
			if off+i >= len(b.data) {
				return 0, 0, fmt.Errorf("%w: variable length number at %d runs past end", ErrInvalidBin, off)
			}
			c := b.data[off+i]
			v = v<<7 | int(c&0x7f)
			if c&0x80 == 0 {
				return v, off + i + 1, nil
			}
		}
		return 0, 0, fmt.Errorf("%w: variable length number at %d is too long", ErrInvalidBin, off)
	default:
		return 0, 0, fmt.Errorf("%w: encoding %d", ErrUnsupportedBin, enc)
	}
	if off < 0 || off+width > len(b.data) {
		return 0, 0, fmt.Errorf("%w: %d-byte read at %d past end (%d bytes)", ErrInvalidBin, width, off, len(b.data))
	}
	v := 0
	for i := 0; i < width; i++ {
		v = v<<8 | int(b.data[off+i])
	}
	return v, off + width, nil
}

// State decodes the node at off. The high bit of the 16-bit head is set for
// non-final states; final states carry an INF index after the head.
func (b *Bin) State(off int) (State, error) {
	if off < headerSize || off+2 > len(b.data) {
		return State{}, fmt.Errorf("%w: state offset %d out of range", ErrInvalidBin, off)
	}
	head := int(b.data[off])<<8 | int(b.data[off+1])
	st := State{
		Final: head&0x8000 == 0,
		Count: head & 0x7fff,
		Inf:   -1,
		First: off + 2,
	}
	if st.Final {
		inf, next, err := b.read(b.header.InfEncoding, st.First)
		if err != nil {
			return State{}, err
		}
		st.Inf, st.First = inf, next
	}
	return st, nil
}

// Transition decodes the transition record at off.
func (b *Bin) Transition(off int) (Transition, error) {
	c, next, err := b.read(b.header.CharEncoding, off)
	if err != nil {
		return Transition{}, err
	}
	if c > 0xffff {
		return Transition{}, fmt.Errorf("%w: char %#x at %d is not a UTF-16 unit", ErrInvalidBin, c, off)
	}
	dest, next, err := b.read(b.header.DestEncoding, next)
	if err != nil {
		return Transition{}, err
	}
	if dest < headerSize || dest+2 > len(b.data) {
		return Transition{}, fmt.Errorf("%w: transition at %d points to %d", ErrInvalidBin, off, dest)
	}
	return Transition{Char: uint16(c), Dest: dest, Next: next}, nil
}

// Validate decodes every state reachable from the root once, so that a
// corrupt store fails at open time rather than halfway through a pass.
// infLines is the size of the paired code table.
func (b *Bin) Validate(infLines int) error {
	seen := make([]uint64, len(b.data)/64+1)
	mark := func(off int) bool {
		w, bit := off/64, uint64(1)<<(off%64)
		if seen[w]&bit != 0 {
			return false
		}
		seen[w] |= bit
		return true
	}
	stack := []int{b.Root()}
	mark(b.Root())
	for len(stack) > 0 {
		off := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		st, err := b.State(off)
		if err != nil {
			return err
		}
		if st.Final && st.Inf >= infLines {
			return fmt.Errorf("%w: state %d uses code line %d of %d", ErrInvalidBin, off, st.Inf, infLines)
		}
		pos := st.First
		for i := 0; i < st.Count; i++ {
			t, err := b.Transition(pos)
			if err != nil {
				return err
			}
			if mark(t.Dest) {
				stack = append(stack, t.Dest)
			}
			pos = t.Next
		}
	}
	return nil
}
