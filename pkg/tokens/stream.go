package tokens

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Stream is the token id of every occurrence of a text, in text order.
type Stream struct {
	data   []byte
	mapped mmap.MMap
}

// OpenStream maps text.cod read-only and checks every id against the size
// of the token table.
func OpenStream(path string, tokens int) (*Stream, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if stat.Size()%4 != 0 {
		return nil, fmt.Errorf("%w: %s has %d bytes, not a multiple of 4", ErrInvalidStream, path, stat.Size())
	}
	s := &Stream{}
	if stat.Size() > 0 {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer file.Close()
		s.mapped, err = mmap.Map(file, mmap.RDONLY, 0)
		if err != nil {
			return nil, fmt.Errorf("mmap %s: %w", path, err)
		}
		s.data = s.mapped
	}
	if err := s.validate(tokens); err != nil {
		s.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// NewStream builds an in-memory stream.
func NewStream(ids []int) *Stream {
	data := make([]byte, 0, 4*len(ids))
	for _, id := range ids {
		data = binary.LittleEndian.AppendUint32(data, uint32(int32(id)))
	}
	return &Stream{data: data}
}

func (s *Stream) validate(tokens int) error {
	for i := 0; i < s.Len(); i++ {
		if id := s.At(i); id < 0 || id >= tokens {
			return fmt.Errorf("%w: occurrence %d has id %d, table has %d tokens", ErrInvalidStream, i, id, tokens)
		}
	}
	return nil
}

// Len is the number of occurrences.
func (s *Stream) Len() int { return len(s.data) / 4 }

// At returns the token id at position i.
func (s *Stream) At(i int) int {
	return int(int32(binary.LittleEndian.Uint32(s.data[4*i:])))
}

// Occurrences counts the occurrences of each of the n tokens.
func (s *Stream) Occurrences(n int) []int {
	counts := make([]int, n)
	for i := 0; i < s.Len(); i++ {
		counts[s.At(i)]++
	}
	return counts
}

// Close unmaps the file.
func (s *Stream) Close() error {
	s.data = nil
	if s.mapped == nil {
		return nil
	}
	err := s.mapped.Unmap()
	s.mapped = nil
	return err
}
