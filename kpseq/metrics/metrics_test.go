package metrics

import (
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/kpseq/kpseq"
	"github.com/ZanzyTHEbar/kpseq/kpseq/corpus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func set(ps ...string) []corpus.Phrase {
	out := make([]corpus.Phrase, len(ps))
	for i, p := range ps {
		out[i] = corpus.Phrase(strings.Fields(p))
	}
	return out
}

func TestScoreMicro(t *testing.T) {
	gold := map[string][]corpus.Phrase{
		"d1": set("python developer", "today"),
		"d2": set("neural network"),
	}
	pred := map[string][]corpus.Phrase{
		"d1": set("python developer", "developer", "python developer"),
		"d3": set("ignored"),
	}
	r := NewScorer(StemNone).Score(gold, pred)
	assert.Equal(t, 1, r.Correct)
	assert.Equal(t, 2, r.Predicted, "duplicates count once")
	assert.Equal(t, 3, r.Gold)
	assert.Equal(t, 2, r.Documents)
	assert.InDelta(t, 0.5, r.Precision, 1e-9)
	assert.InDelta(t, 1.0/3.0, r.Recall, 1e-9)
	assert.InDelta(t, 0.4, r.F1, 1e-9)
}

func TestScoreMacro(t *testing.T) {
	gold := map[string][]corpus.Phrase{
		"d1": set("a", "b"),
		"d2": set("c"),
	}
	pred := map[string][]corpus.Phrase{
		"d1": set("a"),
		"d2": set("x", "y"),
	}
	r := Scorer{Mode: StemNone, Average: Macro}.Score(gold, pred)
	assert.InDelta(t, 0.5, r.Precision, 1e-9)
	assert.InDelta(t, 0.25, r.Recall, 1e-9)
}

func TestStemModes(t *testing.T) {
	gold := map[string][]corpus.Phrase{"d": set("neural networks")}
	pred := map[string][]corpus.Phrase{"d": set("neural network")}

	assert.Zero(t, Precision(gold, pred, StemNone))
	assert.InDelta(t, 1.0, Precision(gold, pred, StemBoth), 1e-9)

	// results mode expects already stemmed gold
	stemmedGold := map[string][]corpus.Phrase{"d": set("neural network")}
	assert.InDelta(t, 1.0, Recall(stemmedGold, pred, StemResults), 1e-9)
	assert.Zero(t, Recall(gold, pred, StemResults))
}

func TestPerfectAndEmpty(t *testing.T) {
	gold := map[string][]corpus.Phrase{"d": set("graph", "graph theory")}
	r := NewScorer(StemNone).Score(gold, gold)
	assert.Equal(t, 1.0, r.F1)

	r = NewScorer(StemNone).Score(gold, nil)
	assert.Zero(t, r.Precision)
	assert.Zero(t, r.F1)
	assert.Zero(t, F1(0, 0))
}

func TestParseStemMode(t *testing.T) {
	for _, m := range []StemMode{StemNone, StemBoth, StemResults} {
		got, err := ParseStemMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseStemMode("lemma")
	assert.ErrorIs(t, err, kpseq.ErrConfiguration)
}

func TestParseAveraging(t *testing.T) {
	got, err := ParseAveraging("Macro")
	require.NoError(t, err)
	assert.Equal(t, Macro, got)
	got, err = ParseAveraging("")
	require.NoError(t, err)
	assert.Equal(t, Micro, got)
	_, err = ParseAveraging("weighted")
	assert.ErrorIs(t, err, kpseq.ErrConfiguration)
}
