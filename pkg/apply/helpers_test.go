package apply

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bastiangx/dicoserve/internal/fixture"
	"github.com/bastiangx/dicoserve/internal/logger"
	"github.com/bastiangx/dicoserve/pkg/alphabet"
	"github.com/bastiangx/dicoserve/pkg/dictionary"
	"github.com/bastiangx/dicoserve/pkg/tokens"
	"github.com/stretchr/testify/require"
)

func latin(t *testing.T) *alphabet.Alphabet {
	t.Helper()
	a, err := alphabet.Parse(strings.NewReader(strings.Join(fixture.Alphabet(), "\n")))
	require.NoError(t, err)
	return a
}

func loadDict(t *testing.T, name string, d fixture.Dict) *dictionary.Dictionary {
	t.Helper()
	bin, err := dictionary.NewBin(d.Bin())
	require.NoError(t, err)
	codes, err := dictionary.ParseInf(d.InfLines())
	require.NoError(t, err)
	dict, err := dictionary.New(name, bin, codes)
	require.NoError(t, err)
	return dict
}

type harness struct {
	text   fixture.Text
	engine *Engine
	dlf    bytes.Buffer
	dlc    bytes.Buffer
	morpho bytes.Buffer
}

func newHarness(t *testing.T, text string) *harness {
	t.Helper()
	alph := latin(t)
	h := &harness{text: fixture.NewText(alph.Tokenize(text)...)}
	table, err := tokens.NewTable(h.text.Tokens)
	require.NoError(t, err)
	h.engine = NewEngine(
		Text{Tokens: table, Stream: tokens.NewStream(h.text.IDs)},
		Outputs{DLF: &h.dlf, DLC: &h.dlc, Morpho: &h.morpho},
		Options{Alphabet: alph, Logger: logger.Discard()},
	)
	return h
}

func (h *harness) id(t *testing.T, token string) int {
	t.Helper()
	id, ok := h.engine.Text().Tokens.ID(token)
	require.True(t, ok, "token %q", token)
	return id
}

func lines(b *bytes.Buffer) []string {
	s := strings.TrimSuffix(b.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
