package tokens

import (
	"path/filepath"
	"testing"

	"github.com/bastiangx/dicoserve/internal/fixture"
	"github.com/bastiangx/dicoserve/pkg/alphabet"
	"github.com/bastiangx/dicoserve/pkg/textio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable(t *testing.T) {
	table, err := NewTable([]string{"the", " ", "cat", "{S}", "catfood", "."})
	require.NoError(t, err)

	assert.Equal(t, 6, table.Len())
	assert.Equal(t, "cat", table.Token(2))
	assert.Equal(t, 3, table.Sentence)
	assert.Equal(t, 1, table.Space)
	assert.Equal(t, -1, table.Stop)

	id, ok := table.ID("the")
	assert.True(t, ok)
	assert.Equal(t, 0, id)

	// only exact forms resolve
	_, ok = table.ID("ca")
	assert.False(t, ok)
	_, ok = table.ID("The")
	assert.False(t, ok)
	_, ok = table.ID("")
	assert.False(t, ok)
}

func TestNewTableInvalid(t *testing.T) {
	_, err := NewTable([]string{"a", "b", "a"})
	assert.ErrorIs(t, err, ErrInvalidTokens)
	_, err = NewTable([]string{"a", ""})
	assert.ErrorIs(t, err, ErrInvalidTokens)
}

func TestVisitPrefix(t *testing.T) {
	table, err := NewTable([]string{"the", "cat", "catfood", "car", "dog"})
	require.NoError(t, err)

	var found []string
	require.NoError(t, table.VisitPrefix("ca", func(token string, id int) error {
		assert.Equal(t, token, table.Token(id))
		found = append(found, token)
		return nil
	}))
	assert.ElementsMatch(t, []string{"cat", "catfood", "car"}, found)
}

func TestSequence(t *testing.T) {
	alph := alphabet.Unicode()
	table, err := NewTable([]string{"pomme", " ", "de", "terre", "-", "arc"})
	require.NoError(t, err)

	seq, ok := table.Sequence("pomme de terre", alph)
	require.True(t, ok)
	assert.Equal(t, []int{0, 1, 2, 1, 3}, seq)

	_, ok = table.Sequence("arc-en-ciel", alph)
	assert.False(t, ok)
	_, ok = table.Sequence("", alph)
	assert.False(t, ok)
}

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()
	text := fixture.NewText("the", " ", "cat", " ", "the")
	snt, err := text.Write(dir, "corpus", textio.UTF16LE)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "corpus.snt"), snt)

	table, err := LoadTable(filepath.Join(dir, "corpus_snt", "tokens.txt"), textio.UTF16LE)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, 1, table.Space)

	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, textio.WriteLines(bad, textio.UTF8, []string{"0000000003", "a", "b"}))
	_, err = LoadTable(bad, textio.UTF8)
	assert.ErrorIs(t, err, ErrInvalidTokens)

	require.NoError(t, textio.WriteLines(bad, textio.UTF8, []string{"three"}))
	_, err = LoadTable(bad, textio.UTF8)
	assert.ErrorIs(t, err, ErrInvalidTokens)
}
