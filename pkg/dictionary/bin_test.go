package dictionary

import (
	"testing"

	"github.com/bastiangx/dicoserve/internal/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeader(t *testing.T) {
	h, err := ParseHeader([]byte{0, 0, 0, 10, 0x80, 0})
	require.NoError(t, err)
	assert.Equal(t, ClassicHeader, h)

	h, err = ParseHeader([]byte{1, 2, 0, 3, 0x80, 0})
	require.NoError(t, err)
	assert.Equal(t, Header{Type: 1, InfEncoding: Bin4Bytes, CharEncoding: Bin2Bytes, DestEncoding: BinVariable}, h)

	_, err = ParseHeader([]byte{0, 0})
	assert.ErrorIs(t, err, ErrInvalidBin)
	_, err = ParseHeader([]byte{2, 0, 0, 0, 0x80, 0})
	assert.ErrorIs(t, err, ErrUnsupportedBin)
	_, err = ParseHeader([]byte{1, 7, 0, 0, 0x80, 0})
	assert.ErrorIs(t, err, ErrUnsupportedBin)
}

func TestBinStates(t *testing.T) {
	d := fixture.Dict{"cat": {".N"}, "cats": {"1.N:p"}}
	b, err := NewBin(d.Bin())
	require.NoError(t, err)
	require.NoError(t, b.Validate(2))

	root, err := b.State(b.Root())
	require.NoError(t, err)
	assert.False(t, root.Final)
	assert.Equal(t, 1, root.Count)
	assert.Equal(t, -1, root.Inf)

	// walk c-a-t by hand
	off := b.Root()
	for _, c := range "cat" {
		st, err := b.State(off)
		require.NoError(t, err)
		require.Equal(t, 1, st.Count)
		tr, err := b.Transition(st.First)
		require.NoError(t, err)
		assert.Equal(t, uint16(c), tr.Char)
		off = tr.Dest
	}
	st, err := b.State(off)
	require.NoError(t, err)
	assert.True(t, st.Final)
	assert.Equal(t, 0, st.Inf)
	assert.Equal(t, 1, st.Count)
}

func TestBinValidate(t *testing.T) {
	d := fixture.Dict{"cat": {".N"}, "cats": {"1.N:p"}}
	data := d.Bin()

	b, err := NewBin(data)
	require.NoError(t, err)
	assert.ErrorIs(t, b.Validate(1), ErrInvalidBin, "INF index past the code table")

	b, err = NewBin(data[:len(data)-3])
	require.NoError(t, err)
	assert.ErrorIs(t, b.Validate(2), ErrInvalidBin, "truncated store")

	_, err = b.State(2)
	assert.ErrorIs(t, err, ErrInvalidBin, "state inside the header")
	_, err = b.State(len(data))
	assert.ErrorIs(t, err, ErrInvalidBin)
}

func TestBinEncodings(t *testing.T) {
	d := fixture.Dict{"cat": {".N"}, "été": {".A"}, "chat": {".N", "1.V"}}
	layouts := map[string][]byte{
		"classic":  d.Bin(),
		"2-2-2":    d.BinWithEncodings(fixture.Enc2, fixture.Enc2, fixture.Enc2),
		"4-4-4":    d.BinWithEncodings(fixture.Enc4, fixture.Enc4, fixture.Enc4),
		"variable": d.BinWithEncodings(fixture.EncVariable, fixture.EncVariable, fixture.Enc3),
	}
	codes, err := ParseInf(d.InfLines())
	require.NoError(t, err)

	for name, data := range layouts {
		t.Run(name, func(t *testing.T) {
			b, err := NewBin(data)
			require.NoError(t, err)
			dict, err := New("d.bin", b, codes)
			require.NoError(t, err)

			lines, err := dict.Lookup("chat", nil, 0)
			require.NoError(t, err)
			assert.Equal(t, []string{"chat,.N", "chat,cha.V"}, lines)

			lines, err = dict.Lookup("été", nil, 0)
			require.NoError(t, err)
			assert.Equal(t, []string{"été,.A"}, lines)
		})
	}
}
