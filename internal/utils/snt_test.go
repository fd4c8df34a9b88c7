package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSntPaths(t *testing.T) {
	text := filepath.Join("corpus", "novel.snt")
	assert.Equal(t, filepath.Join("corpus", "novel_snt"), SntDir(text))
	assert.Equal(t, filepath.Join("corpus", "novel_snt", "dlf"), SntFile(text, "dlf"))
	assert.Equal(t, filepath.Join("dela", "base-.inf"), CompanionPath(filepath.Join("dela", "base-.bin"), ".inf"))
	assert.Equal(t, ".bin", Extension("A/B.BIN"))
	assert.Equal(t, "a.b/c", NameWithoutExtension("a.b/c"))
}

func TestCheckDirStatus(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	res := CheckDirStatus(dir)
	assert.NoError(t, res.Error)
	assert.True(t, res.Exists)
	assert.True(t, res.Writable)
	assert.True(t, FileExists(dir))
}
