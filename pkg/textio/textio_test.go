package textio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEncoding(t *testing.T) {
	testCases := map[string]Encoding{
		"":         UTF16LE,
		"utf16le":  UTF16LE,
		"UTF-16LE": UTF16LE,
		" utf8 ":   UTF8,
		"utf-8":    UTF8,
	}
	for name, want := range testCases {
		enc, err := ParseEncoding(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, enc, name)
	}
	_, err := ParseEncoding("latin1")
	assert.Error(t, err)
}

func TestWriteReadLines(t *testing.T) {
	lines := []string{"0000000002", "été,.A", "pommes de terre,pomme de terre.N:fp"}
	for _, enc := range []Encoding{UTF16LE, UTF8} {
		t.Run(enc.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "lines.txt")
			require.NoError(t, WriteLines(path, enc, lines))

			got, err := ReadLines(path, enc)
			require.NoError(t, err)
			assert.Equal(t, lines, got)
		})
	}
}

func TestUTF16HasBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bom.txt")
	require.NoError(t, WriteLines(path, UTF16LE, []string{"a"}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xfe, 'a', 0, '\n', 0}, data)

	// the BOM wins over the requested encoding
	got, err := ReadLines(path, UTF8)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
}

func TestScanLines(t *testing.T) {
	got, err := ScanLines(strings.NewReader("a\r\nb\n\nc"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "", "c"}, got)

	got, err = ScanLines(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	w, err := Create(path, UTF8)
	require.NoError(t, err)
	require.NoError(t, w.WriteLine("cat,.N"))
	_, err = w.Write([]byte("dog,.N\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "cat,.N\ndog,.N\n", string(data))
}
