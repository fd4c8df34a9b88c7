// Package session holds the state shared by every pass of one document
// processing run: which tokens are covered, which priority claimed each
// simple word, and which token sequences and tag spans were claimed.
//
// A Tracker is created once per text and is not safe for concurrent use.
// Passes must be applied one after the other.
package session

import (
	"encoding/binary"
	"fmt"
)

// MaxPriority is the highest priority a claim can carry.
const MaxPriority = 255

// Span is a text range in token positions, both ends included.
type Span struct {
	Start int
	End   int
}

// Tracker is the priority and dedup state of a session.
type Tracker struct {
	partOfWord  []bool
	partOfWord2 []bool
	simple      []uint8
	sequences   map[string]uint8
	tagSpans    map[Span]uint8
	compounds   int
}

// NewTracker allocates the state for a text of n distinct tokens.
func NewTracker(n int) *Tracker {
	return &Tracker{
		partOfWord:  make([]bool, n),
		partOfWord2: make([]bool, n),
		simple:      make([]uint8, n),
		sequences:   make(map[string]uint8),
		tagSpans:    make(map[Span]uint8),
	}
}

// Len is the number of distinct tokens tracked.
func (t *Tracker) Len() int { return len(t.simple) }

// ValidPriority reports whether p can be used for a claim.
func ValidPriority(p int) error {
	if p < 1 || p > MaxPriority {
		return fmt.Errorf("priority %d out of range 1..%d", p, MaxPriority)
	}
	return nil
}

// accept is the single acceptance rule of every claim: a free slot or one
// held by the same priority.
func accept(slot uint8, priority int) bool {
	return slot == 0 || int(slot) == priority
}

// ClaimSimple claims token id as a simple word at priority. On success the
// token is marked as part of a word.
func (t *Tracker) ClaimSimple(id, priority int) bool {
	if !accept(t.simple[id], priority) {
		return false
	}
	t.simple[id] = uint8(priority)
	t.partOfWord[id] = true
	return true
}

// SimplePriority is the priority that claimed id as a simple word, 0 if none.
func (t *Tracker) SimplePriority(id int) int { return int(t.simple[id]) }

// SequenceKey encodes a token id sequence as a map key. Uvarints are prefix
// free, so distinct sequences never share a key.
func SequenceKey(seq []int) string {
	buf := make([]byte, 0, 2*len(seq)+1)
	for _, id := range seq {
		buf = binary.AppendUvarint(buf, uint64(id))
	}
	return string(buf)
}

// ClaimSequence claims a compound occurrence identified by its token ids.
// Covered tokens are not marked here; the caller knows the occurrence.
func (t *Tracker) ClaimSequence(seq []int, priority int) bool {
	key := SequenceKey(seq)
	if !accept(t.sequences[key], priority) {
		return false
	}
	t.sequences[key] = uint8(priority)
	return true
}

// SequencePriority is the priority that claimed seq, 0 if none.
func (t *Tracker) SequencePriority(seq []int) int {
	return int(t.sequences[SequenceKey(seq)])
}

// Sequences is the number of claimed sequences.
func (t *Tracker) Sequences() int { return len(t.sequences) }

// ClaimTagSpan claims a tag sequence over span.
func (t *Tracker) ClaimTagSpan(span Span, priority int) bool {
	if !accept(t.tagSpans[span], priority) {
		return false
	}
	t.tagSpans[span] = uint8(priority)
	return true
}

// MarkPartOfWord records that ids are covered by a dictionary match.
func (t *Tracker) MarkPartOfWord(ids ...int) {
	for _, id := range ids {
		t.partOfWord[id] = true
	}
}

// MarkTagged records that ids are covered by a tag sequence.
func (t *Tracker) MarkTagged(ids ...int) {
	for _, id := range ids {
		t.partOfWord2[id] = true
	}
}

// IsPartOfWord reports whether id was covered by any match.
func (t *Tracker) IsPartOfWord(id int) bool { return t.partOfWord[id] }

// IsTagged reports whether id was covered by a tag sequence.
func (t *Tracker) IsTagged(id int) bool { return t.partOfWord2[id] }

// AddCompounds adds accepted compound occurrences to the session total.
func (t *Tracker) AddCompounds(n int) { t.compounds += n }

// Compounds is the number of compound occurrences accepted so far.
func (t *Tracker) Compounds() int { return t.compounds }
