package apply

import (
	"fmt"
	"io"
)

// Stats are the occurrence counts of a session.
type Stats struct {
	SimpleWords   int
	CompoundWords int
	UnknownWords  int
}

// Unknown lists the letter tokens no match covered. Untagged is the subset
// also left uncovered by tag sequences.
type Unknown struct {
	Words    []string
	Untagged []string
}

func (e *Engine) occurrenceCounts() []int {
	if e.occurrences == nil {
		e.occurrences = e.text.Stream.Occurrences(e.text.Tokens.Len())
	}
	return e.occurrences
}

// Classify sorts every letter token as simple word, part of a compound, or
// unknown. The compound total is the one accumulated by the passes.
func (e *Engine) Classify() (Stats, Unknown) {
	var (
		stats   Stats
		unknown Unknown
		occ     = e.occurrenceCounts()
	)
	for id := 0; id < e.text.Tokens.Len(); id++ {
		tok := e.text.Tokens.Token(id)
		if !e.opts.Alphabet.StartsWithLetter(tok) {
			continue
		}
		if !e.tracker.IsPartOfWord(id) {
			stats.UnknownWords += occ[id]
			unknown.Words = append(unknown.Words, tok)
			if !e.tracker.IsTagged(id) {
				unknown.Untagged = append(unknown.Untagged, tok)
			}
			continue
		}
		if e.tracker.SimplePriority(id) != 0 {
			stats.SimpleWords += occ[id]
		}
	}
	stats.CompoundWords = e.tracker.Compounds()
	return stats, unknown
}

// Stats returns the current counts without listing unknown words.
func (e *Engine) Stats() Stats {
	s, _ := e.Classify()
	return s
}

// WriteStats writes the three stat_dic.n lines: simple, compound and
// unknown word occurrences.
func WriteStats(w io.Writer, s Stats) error {
	_, err := fmt.Fprintf(w, "%d\n%d\n%d\n", s.SimpleWords, s.CompoundWords, s.UnknownWords)
	return err
}
