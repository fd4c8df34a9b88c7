package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bastiangx/dicoserve/pkg/apply"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservePass(t *testing.T) {
	m := New()
	m.ObservePass(apply.PassReport{
		Kind:          apply.KindDictionary,
		SimpleLines:   3,
		CompoundLines: 2,
		Refused:       1,
		CacheNodes:    40,
		Elapsed:       time.Millisecond,
	}, nil)
	m.ObservePass(apply.PassReport{Kind: apply.KindMerge, Dropped: 2, Malformed: 1}, nil)
	m.ObservePass(apply.PassReport{Kind: apply.KindDictionary}, apply.ErrFileOpen)
	m.ObservePass(apply.PassReport{Kind: apply.KindDictionary}, errors.New("corrupt"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PassesTotal.WithLabelValues("dictionary", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PassesTotal.WithLabelValues("merge", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PassesTotal.WithLabelValues("dictionary", "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PassesTotal.WithLabelValues("dictionary", "failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.LinesTotal.WithLabelValues("dlf")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecordsTotal.WithLabelValues("dropped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsTotal.WithLabelValues("malformed")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveStats(apply.Stats{SimpleWords: 4, CompoundWords: 1, UnknownWords: 3})

	require.NoError(t, m.WriteTextfile(""))
	path := filepath.Join(t.TempDir(), "dicoserve.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `dicoserve_word_occurrences{class="unknown"} 3`)
}
