package apply

import (
	"unicode/utf16"

	"github.com/emirpasic/gods/trees/redblacktree"
)

// offsetEntry is a trie node reached at the end of a token, with the exact
// dictionary spelling that led to it.
type offsetEntry struct {
	offset    int
	inflected string
	units     []uint16
}

// wordNode is one node of the Word-Struct cache: the trie nodes reached by
// a token sequence, and the sequences extending it by one more token.
type wordNode struct {
	offsets []offsetEntry
	// next token id -> *wordNode, ordered by id
	transitions *redblacktree.Tree
}

func newWordNode() *wordNode {
	return &wordNode{transitions: redblacktree.NewWithIntComparator()}
}

// addOffset records a trie node for this sequence. Entries are unique by
// offset; the first spelling recorded wins.
func (w *wordNode) addOffset(offset int, inflected string) {
	for _, e := range w.offsets {
		if e.offset == offset {
			return
		}
	}
	w.offsets = append(w.offsets, offsetEntry{
		offset:    offset,
		inflected: inflected,
		units:     utf16.Encode([]rune(inflected)),
	})
}

// next returns the cached continuation by token id, nil if none.
func (w *wordNode) next(id int) *wordNode {
	v, ok := w.transitions.Get(id)
	if !ok {
		return nil
	}
	return v.(*wordNode)
}

// nextOrCreate returns the continuation by token id, creating it if needed.
func (w *wordNode) nextOrCreate(id int) *wordNode {
	if n := w.next(id); n != nil {
		return n
	}
	n := newWordNode()
	w.transitions.Put(id, n)
	return n
}

// wordCache is the Word-Struct cache of one dictionary pass, indexed by the
// id of the first token of a sequence.
type wordCache struct {
	roots []*wordNode
}

func newWordCache(tokens int) *wordCache {
	return &wordCache{roots: make([]*wordNode, tokens)}
}

func (c *wordCache) root(id int) *wordNode { return c.roots[id] }

func (c *wordCache) rootOrCreate(id int) *wordNode {
	if c.roots[id] == nil {
		c.roots[id] = newWordNode()
	}
	return c.roots[id]
}

// size counts cached nodes, for pass reports.
func (c *wordCache) size() int {
	n := 0
	var count func(w *wordNode)
	count = func(w *wordNode) {
		n++
		it := w.transitions.Iterator()
		for it.Next() {
			count(it.Value().(*wordNode))
		}
	}
	for _, w := range c.roots {
		if w != nil {
			count(w)
		}
	}
	return n
}
