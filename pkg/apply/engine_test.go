package apply

import (
	"sort"
	"testing"
	"unicode/utf16"

	"github.com/bastiangx/dicoserve/internal/fixture"
	"github.com/bastiangx/dicoserve/pkg/alphabet"
	"github.com/bastiangx/dicoserve/pkg/dictionary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catFood = fixture.Dict{
	"cat":      {".N"},
	"cat food": {".N+Food"},
}

func TestSimpleAndCompoundWords(t *testing.T) {
	h := newHarness(t, "the cat food is good")
	r, err := h.engine.Apply(loadDict(t, "base.bin", catFood), 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"cat,.N"}, lines(&h.dlf))
	assert.Equal(t, []string{"cat food,.N+Food"}, lines(&h.dlc))
	assert.Equal(t, KindDictionary, r.Kind)
	assert.Equal(t, 1, r.SimpleLines)
	assert.Equal(t, 1, r.CompoundLines)
	assert.Equal(t, 1, r.CompoundOccurrences)
	assert.Positive(t, r.CacheNodes)

	stats, unknown := h.engine.Classify()
	assert.Equal(t, []string{"the", "is", "good"}, unknown.Words)
	assert.Equal(t, Stats{SimpleWords: 1, CompoundWords: 1, UnknownWords: 3}, stats)
}

func TestPriorityExclusivity(t *testing.T) {
	type step struct {
		dict     fixture.Dict
		priority int
	}
	cat := fixture.Dict{"cat": {".N"}}
	chat := fixture.Dict{"cat": {"3chat.N"}}

	tests := []struct {
		name     string
		steps    []step
		wantLine string
		wantPrio int
	}{
		{"ascending", []step{{cat, 1}, {chat, 2}}, "cat,.N", 1},
		{"descending", []step{{chat, 2}, {cat, 1}}, "cat,chat.N", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "a cat")
			var refused int
			for _, s := range tt.steps {
				r, err := h.engine.Apply(loadDict(t, "d.bin", s.dict), s.priority)
				require.NoError(t, err)
				refused += r.Refused
			}
			assert.Equal(t, []string{tt.wantLine}, lines(&h.dlf))
			assert.Equal(t, tt.wantPrio, h.engine.Tracker().SimplePriority(h.id(t, "cat")))
			assert.Equal(t, 1, refused)
		})
	}
}

func TestIdempotentReapplication(t *testing.T) {
	h := newHarness(t, "the cat food")
	d := loadDict(t, "base.bin", catFood)
	for i := 0; i < 2; i++ {
		_, err := h.engine.Apply(d, 1)
		require.NoError(t, err)
	}
	tr := h.engine.Tracker()
	cat, space, food := h.id(t, "cat"), h.id(t, " "), h.id(t, "food")

	assert.Equal(t, 1, tr.SimplePriority(cat))
	assert.Equal(t, 1, tr.SequencePriority([]int{cat, space, food}))
	assert.Equal(t, []string{"cat,.N", "cat,.N"}, lines(&h.dlf))
	assert.Len(t, lines(&h.dlc), 2)
}

func TestCompoundCoverage(t *testing.T) {
	h := newHarness(t, "black eyed peas and black eyes")
	d := loadDict(t, "d.bin", fixture.Dict{
		"black-eyed":      {".A"},
		"black eyed peas": {".N"},
	})
	_, err := h.engine.Apply(d, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"black eyed peas,.N"}, lines(&h.dlc))
	tr := h.engine.Tracker()
	for _, tok := range []string{"black", " ", "eyed", "peas"} {
		assert.True(t, tr.IsPartOfWord(h.id(t, tok)), tok)
	}
	for _, tok := range []string{"and", "eyes"} {
		assert.False(t, tr.IsPartOfWord(h.id(t, tok)), tok)
	}
	assert.Equal(t, 0, tr.SimplePriority(h.id(t, "black")))
}

func TestCaseCompatibility(t *testing.T) {
	h := newHarness(t, "Cat cat CAT")
	_, err := h.engine.Apply(loadDict(t, "d.bin", fixture.Dict{"cat": {".N"}}), 1)
	require.NoError(t, err)
	// every variant resolves to the dictionary spelling
	assert.Equal(t, []string{"cat,.N", "cat,.N", "cat,.N"}, lines(&h.dlf))

	h = newHarness(t, "cat")
	_, err = h.engine.Apply(loadDict(t, "d.bin", fixture.Dict{"Cat": {".N+Name"}}), 1)
	require.NoError(t, err)
	assert.Empty(t, lines(&h.dlf), "lowercase text does not match an uppercase entry")
}

func TestCompoundRefusedAcrossPriorities(t *testing.T) {
	h := newHarness(t, "cat food")
	_, err := h.engine.Apply(loadDict(t, "a.bin", fixture.Dict{"cat food": {".N"}}), 1)
	require.NoError(t, err)
	r, err := h.engine.Apply(loadDict(t, "b.bin", fixture.Dict{"cat food": {".N+z1"}}), 3)
	require.NoError(t, err)

	assert.Equal(t, []string{"cat food,.N"}, lines(&h.dlc))
	assert.Equal(t, 1, r.Refused)
	assert.Equal(t, 1, h.engine.Tracker().Compounds())
}

func TestCompoundAtEndOfText(t *testing.T) {
	h := newHarness(t, "the cat")
	_, err := h.engine.Apply(loadDict(t, "d.bin", catFood), 1)
	require.NoError(t, err)
	assert.Empty(t, lines(&h.dlc))
	assert.Equal(t, []string{"cat,.N"}, lines(&h.dlf))
}

func TestCompoundLengthBound(t *testing.T) {
	h := newHarness(t, "a b c d")
	h.engine.opts.MaxCompoundTokens = 3
	_, err := h.engine.Apply(loadDict(t, "d.bin", fixture.Dict{"a b c d": {".X"}, "a": {".X"}}), 1)
	assert.ErrorIs(t, err, dictionary.ErrDepthExceeded)
}

func TestInvalidPriority(t *testing.T) {
	h := newHarness(t, "cat")
	_, err := h.engine.Apply(loadDict(t, "d.bin", catFood), 0)
	assert.Error(t, err)
	assert.Empty(t, lines(&h.dlf))
}

// naiveCompounds walks the trie from scratch at every position, with no
// shared cache, and returns every compound line it finds.
func naiveCompounds(t *testing.T, d *dictionary.Dictionary, text fixture.Text, alph *alphabet.Alphabet) []string {
	var out []string
	var walk func(start, consumed, offset int, prefix []uint16)
	walk = func(start, consumed, offset int, prefix []uint16) {
		pos := start + consumed
		if pos >= len(text.IDs) {
			return
		}
		chars := utf16.Encode([]rune(text.Tokens[text.IDs[pos]]))
		err := d.Walk(offset, chars, prefix, alph, 0, func(next int, st dictionary.State, inflected string) error {
			if consumed >= 1 && st.Final {
				found, err := d.Lines(inflected, st.Inf)
				if err != nil {
					return err
				}
				out = append(out, found...)
			}
			walk(start, consumed+1, next, utf16.Encode([]rune(inflected)))
			return nil
		})
		require.NoError(t, err)
	}
	for start := range text.IDs {
		walk(start, 0, d.Bin.Root(), nil)
	}
	sort.Strings(out)
	return out
}

func TestCacheTransparency(t *testing.T) {
	dict := fixture.Dict{
		"a":       {".DET"},
		"a b":     {".X"},
		"a b c":   {".Y", ".Y+z1"},
		"A b":     {".W"},
		"b c":     {".Z"},
		"b c d":   {".Z+Hum"},
		"c-d":     {".V"},
		"d a b c": {".U"},
	}
	texts := []string{
		"a b c a b a b c d A b c",
		"A B C D A B",
		"b c d a b c d",
		"a",
		"c-d a b c-d",
	}
	for _, text := range texts {
		t.Run(text, func(t *testing.T) {
			h := newHarness(t, text)
			d := loadDict(t, "d.bin", dict)
			_, err := h.engine.Apply(d, 1)
			require.NoError(t, err)

			got := lines(&h.dlc)
			sort.Strings(got)
			assert.Equal(t, naiveCompounds(t, d, h.text, h.engine.opts.Alphabet), got)
		})
	}
}
