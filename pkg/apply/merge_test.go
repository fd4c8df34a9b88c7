package apply

import (
	"bytes"
	"testing"

	"github.com/bastiangx/dicoserve/internal/fixture"
	"github.com/bastiangx/dicoserve/pkg/locate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseList(t *testing.T, records ...string) *locate.List {
	t.Helper()
	l, err := locate.Parse(append([]string{"#M"}, records...))
	require.NoError(t, err)
	return l
}

func TestMergeTagSequence(t *testing.T) {
	h := newHarness(t, "the cat food is good")
	r, err := h.engine.Merge(parseList(t, "2.0.0 3.0.0 /TAG"), "concord.ind", 1)
	require.NoError(t, err)

	assert.Equal(t, KindMerge, r.Kind)
	assert.Equal(t, 1, r.TagSequences)
	assert.Empty(t, lines(&h.dlf))
	assert.Empty(t, lines(&h.dlc))

	var buf bytes.Buffer
	require.NoError(t, locate.WriteTagIndex(&buf, h.engine.Tags()))
	assert.Equal(t, "#T\n2.0.0 3.0.0 TAG\n", buf.String())

	tr := h.engine.Tracker()
	assert.True(t, tr.IsTagged(h.id(t, "cat")))
	assert.True(t, tr.IsTagged(h.id(t, " ")))
	assert.False(t, tr.IsTagged(h.id(t, "food")))
	assert.False(t, tr.IsPartOfWord(h.id(t, "cat")))

	_, unknown := h.engine.Classify()
	assert.Contains(t, unknown.Words, "cat")
	assert.NotContains(t, unknown.Untagged, "cat")
}

func TestMergeTagSequenceDedup(t *testing.T) {
	h := newHarness(t, "the cat food")
	_, err := h.engine.Merge(parseList(t, "2 4 /A"), "a.ind", 2)
	require.NoError(t, err)
	r, err := h.engine.Merge(parseList(t, "2 4 /B", "0 0 /C"), "b.ind", 3)
	require.NoError(t, err)

	assert.Equal(t, 1, r.Refused)
	assert.Equal(t, 1, r.TagSequences)
	require.Len(t, h.engine.Tags(), 2)
	assert.Equal(t, "/A", h.engine.Tags()[0].Output)
}

func TestMergeDropsUnknownForms(t *testing.T) {
	h := newHarness(t, "the cat food")
	r, err := h.engine.Merge(parseList(t, "0 0 dog,.N", "0 2 dog food,.N"), "concord.ind", 1)
	require.NoError(t, err)

	assert.Equal(t, 2, r.Dropped)
	assert.Empty(t, lines(&h.dlf))
	assert.Empty(t, lines(&h.dlc))
	assert.Empty(t, lines(&h.morpho))
	tr := h.engine.Tracker()
	for id := 0; id < tr.Len(); id++ {
		assert.False(t, tr.IsPartOfWord(id))
	}
}

func TestMergeEntries(t *testing.T) {
	h := newHarness(t, "the cat food")
	r, err := h.engine.Merge(parseList(t,
		"2 2 cat,.N",
		"2 4 cat food,.N",
		"0 0 no comma",
		"1 1 /",
		"3 3",
	), "concord.ind", 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"cat,.N"}, lines(&h.dlf))
	assert.Equal(t, []string{"cat food,.N"}, lines(&h.dlc))
	assert.Equal(t, []string{"cat,.N", "cat food,.N"}, lines(&h.morpho))
	assert.Equal(t, 1, r.SimpleLines)
	assert.Equal(t, 1, r.CompoundLines)
	assert.Equal(t, 2, r.Malformed)

	tr := h.engine.Tracker()
	assert.Equal(t, 1, tr.SimplePriority(h.id(t, "cat")))
	assert.True(t, tr.IsPartOfWord(h.id(t, "food")))
	assert.Equal(t, 1, tr.Compounds())
}

func TestMergeRespectsDictionaryClaims(t *testing.T) {
	h := newHarness(t, "the cat food")
	_, err := h.engine.Apply(loadDict(t, "d.bin", fixture.Dict{"cat": {".N"}, "cat food": {".N"}}), 1)
	require.NoError(t, err)

	r, err := h.engine.Merge(parseList(t, "2 2 cat,chat.N", "2 4 cat food,.N+z1"), "concord.ind", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Refused)
	assert.Equal(t, []string{"cat,.N"}, lines(&h.dlf))
	assert.Equal(t, []string{"cat food,.N"}, lines(&h.dlc))

	r, err = h.engine.Merge(parseList(t, "2 2 cat,.N+z1"), "concord.ind", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, r.SimpleLines)
}

func TestMergeWithoutMorphoExport(t *testing.T) {
	h := newHarness(t, "cat")
	h.engine.out.Morpho = nil
	_, err := h.engine.Merge(parseList(t, "0 0 cat,.N"), "concord.ind", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"cat,.N"}, lines(&h.dlf))
	assert.Empty(t, lines(&h.morpho))
}
