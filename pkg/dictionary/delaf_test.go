package dictionary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDELAF(t *testing.T) {
	e, err := ParseDELAF("mains,main.N+Conc:fp:ms/plural of main")
	require.NoError(t, err)
	assert.Equal(t, "mains", e.Inflected)
	assert.Equal(t, "main", e.Lemma)
	assert.Equal(t, "N", e.GrammaticalCode())
	assert.Equal(t, []string{"N", "Conc"}, e.Codes)
	assert.Equal(t, []string{"fp", "ms"}, e.Inflectional)
	assert.Equal(t, "plural of main", e.Comment)
	assert.Equal(t, "mains,main.N+Conc:fp:ms/plural of main", e.String())

	// empty lemma stands for the inflected form
	e, err = ParseDELAF("cat,.N")
	require.NoError(t, err)
	assert.Equal(t, "cat", e.Lemma)
	assert.Empty(t, e.Inflectional)
	assert.Equal(t, "cat,.N", e.String())

	e, err = ParseDELAF("Dr\\.,.N+Abst")
	require.NoError(t, err)
	assert.Equal(t, "Dr.", e.Inflected)
	assert.Equal(t, "Dr.", e.Lemma)
	assert.Equal(t, "Dr\\.,.N+Abst", e.String())

	// an escaped separator stays inside its code
	e, err = ParseDELAF("x,.N+a\\+b:c\\:d")
	require.NoError(t, err)
	assert.Equal(t, []string{"N", "a+b"}, e.Codes)
	assert.Equal(t, []string{"c:d"}, e.Inflectional)
}

func TestParseDELAFMalformed(t *testing.T) {
	for _, line := range []string{
		"",
		"nocomma",
		",lemma.N",
		"cat,cat",
		"cat,.",
		"cat,.:ms",
	} {
		_, err := ParseDELAF(line)
		assert.ErrorIs(t, err, ErrMalformedLine, "line %q", line)
	}
}
