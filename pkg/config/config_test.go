package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInitConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.FileExists(t, path)

	// the written file loads back to the same values
	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), loaded)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[session]
encoding = "utf8"
export_morpho = true

[limits]
max_compound_tokens = 12

[output]
dlf = "simple.dlf"

[metrics]
textfile = "/tmp/dicoserve.prom"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "utf8", cfg.Session.Encoding)
	assert.True(t, cfg.Session.ExportMorpho)
	assert.Equal(t, 12, cfg.Limits.MaxCompoundTokens)
	assert.Equal(t, 1024, cfg.Limits.MaxTokenLength)
	assert.Equal(t, "simple.dlf", cfg.Output.DLF)
	assert.Equal(t, "dlc", cfg.Output.DLC)
	assert.Equal(t, "/tmp/dicoserve.prom", cfg.Metrics.Textfile)
}

func TestLoadConfigPartialRecovery(t *testing.T) {
	// a type error fails the typed decode; other keys are salvaged
	path := writeConfig(t, `
[session]
encoding = "utf8"

[limits]
max_token_length = "big"
max_compound_tokens = 12

[server]
dictionary_cache = 3
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "utf8", cfg.Session.Encoding)
	assert.Equal(t, 1024, cfg.Limits.MaxTokenLength)
	assert.Equal(t, 12, cfg.Limits.MaxCompoundTokens)
	assert.Equal(t, 3, cfg.Server.DictionaryCache)
}

func TestLoadConfigGarbage(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "not = [toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestNormalize(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
[limits]
max_token_length = -4

[cli]
max_word_length = 0
`))
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.Limits.MaxTokenLength)
	assert.Equal(t, 256, cfg.CLI.MaxWordLength)
}

func TestLoadConfigWithPriority(t *testing.T) {
	path := writeConfig(t, "[server]\ndictionary_cache = 2\n")
	cfg, used, err := LoadConfigWithPriority(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, 2, cfg.Server.DictionaryCache)
	assert.Equal(t, path, GetActiveConfigPath(path))
}
