package apply

import (
	"fmt"
	"unicode/utf16"

	"github.com/bastiangx/dicoserve/pkg/dictionary"
)

// compoundWords looks for compounds starting at every text position.
func (p *pass) compoundWords() error {
	for start := 0; start < p.text.Stream.Len(); start++ {
		if err := p.compoundsAt(start); err != nil {
			return err
		}
	}
	return nil
}

// compoundsAt follows the cached sequences matching the text from start as
// far as they go, accepting the compounds they end on, then resumes the trie
// walk from the last cached node.
func (p *pass) compoundsAt(start int) error {
	stream := p.text.Stream
	first := stream.At(start)
	w := p.cache.root(first)
	if w == nil {
		return nil
	}
	seq := []int{first}
	for pos := start + 1; pos < stream.Len(); pos++ {
		n := w.next(stream.At(pos))
		if n == nil {
			break
		}
		w = n
		seq = append(seq, stream.At(pos))
		for _, e := range w.offsets {
			st, err := p.dict.Bin.State(e.offset)
			if err != nil {
				return err
			}
			if st.Final {
				if err := p.accept(seq, e.inflected, st.Inf); err != nil {
					return err
				}
			}
		}
	}
	for _, e := range w.offsets {
		if err := p.extend(w, start, seq, e.offset, e.units); err != nil {
			return err
		}
	}
	return nil
}

// extend walks the next text token from one trie node of w. Each node
// reached at the end of the token is cached under w, checked for a
// compound, and extended in turn with the token after it.
func (p *pass) extend(w *wordNode, start int, seq []int, offset int, prefix []uint16) error {
	pos := start + len(seq)
	if pos >= p.text.Stream.Len() {
		return nil
	}
	id := p.text.Stream.At(pos)
	chars := utf16.Encode([]rune(p.text.Tokens.Token(id)))
	if len(chars) > p.opts.MaxTokenLength {
		return nil
	}
	return p.dict.Walk(offset, chars, prefix, p.opts.Alphabet, p.opts.MaxTokenLength,
		func(next int, st dictionary.State, inflected string) error {
			if len(seq) >= p.opts.MaxCompoundTokens {
				return fmt.Errorf("%w: compound at position %d longer than %d tokens",
					dictionary.ErrDepthExceeded, start, p.opts.MaxCompoundTokens)
			}
			child := w.nextOrCreate(id)
			child.addOffset(next, inflected)
			grown := append(seq[:len(seq):len(seq)], id)
			if st.Final {
				if err := p.accept(grown, inflected, st.Inf); err != nil {
					return err
				}
			}
			return p.extend(child, start, grown, next, utf16.Encode([]rune(inflected)))
		})
}

// accept claims one compound occurrence and writes its DELAF lines.
func (p *pass) accept(seq []int, inflected string, inf int) error {
	if !p.tracker.ClaimSequence(seq, p.priority) {
		p.report.Refused++
		return nil
	}
	p.tracker.MarkPartOfWord(seq...)
	p.tracker.AddCompounds(1)
	p.report.CompoundOccurrences++
	lines, err := p.dict.Lines(inflected, inf)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if err := writeLine(p.out.DLC, line); err != nil {
			return err
		}
	}
	p.report.CompoundLines += len(lines)
	return nil
}
