package dictionary

import (
	"path/filepath"
	"testing"

	"github.com/bastiangx/dicoserve/pkg/textio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInf(t *testing.T) {
	codes, err := ParseInf([]string{"0000000002", ".N", "1.N:fp,.V\\,x", ""})
	require.NoError(t, err)
	assert.Equal(t, 2, codes.Len())

	line, err := codes.Line(0)
	require.NoError(t, err)
	assert.Equal(t, []string{".N"}, line)

	line, err = codes.Line(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.N:fp", ".V\\,x"}, line)

	_, err = codes.Line(2)
	assert.ErrorIs(t, err, ErrInvalidInf)
	_, err = codes.Line(-1)
	assert.ErrorIs(t, err, ErrInvalidInf)
}

func TestParseInfInvalid(t *testing.T) {
	testCases := map[string][]string{
		"empty":     nil,
		"bad count": {"two", ".N"},
		"negative":  {"-1"},
		"short":     {"0000000002", ".N"},
		"long":      {"0000000001", ".N", ".V"},
	}
	for name, lines := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseInf(lines)
			assert.ErrorIs(t, err, ErrInvalidInf)
		})
	}
}

func TestSplitCodes(t *testing.T) {
	assert.Equal(t, []string{".N", "1.V"}, SplitCodes(".N,1.V"))
	assert.Equal(t, []string{"a\\,b.N"}, SplitCodes("a\\,b.N"))
	assert.Equal(t, []string{""}, SplitCodes(""))
}

func TestLoadInf(t *testing.T) {
	for _, enc := range []textio.Encoding{textio.UTF16LE, textio.UTF8} {
		path := filepath.Join(t.TempDir(), "d.inf")
		require.NoError(t, textio.WriteLines(path, enc, []string{"0000000001", ".N:ms,1.V"}))
		codes, err := LoadInf(path, enc)
		require.NoError(t, err, enc.String())
		line, err := codes.Line(0)
		require.NoError(t, err)
		assert.Equal(t, []string{".N:ms", "1.V"}, line)
	}
}
