package filter

import (
	"errors"
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/kpseq/kpseq/corpus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lexicon = map[string]string{
	"neural": "JJ", "network": "NN", "networks": "NNS", "deep": "JJ", "learning": "VBG",
	"trained": "VBN", "model": "NN", "runs": "VBZ", "quickly": "RB", "the": "DT",
	"graph": "NN", "of": "IN",
}

// fakeTagger tags from a fixed lexicon and counts calls.
type fakeTagger struct{ calls int }

func (f *fakeTagger) Tag(tokens []string) ([]string, error) {
	f.calls++
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		tag, ok := lexicon[tok]
		if !ok {
			return nil, errors.New("unknown word " + tok)
		}
		out[i] = tag
	}
	return out, nil
}

func p(s string) corpus.Phrase { return corpus.Phrase(strings.Fields(s)) }

func TestMatchTags(t *testing.T) {
	tests := []struct {
		tags []string
		want bool
	}{
		{[]string{"NN"}, true},
		{[]string{"JJ", "NNS"}, true},
		{[]string{"VBG", "VBN", "JJR", "NNP"}, true},
		{[]string{"JJ"}, false},
		{[]string{"NN", "VBG"}, false},
		{[]string{"NN", "IN", "NN"}, false},
		{nil, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchTags(tt.tags), "%v", tt.tags)
	}
}

func TestValidShape(t *testing.T) {
	assert.True(t, ValidShape(p("support vector machine")))
	assert.True(t, ValidShape(p("k-means")))
	assert.False(t, ValidShape(p("the network")))
	assert.False(t, ValidShape(p("network of")))
	assert.False(t, ValidShape(p("graph ;")))
	assert.False(t, ValidShape(nil))
}

func TestPatternFilterNeverAdds(t *testing.T) {
	tagger := &fakeTagger{}
	f := NewPatternFilter(tagger)

	in := []corpus.Phrase{
		p("neural networks"),
		p("runs quickly"),
		p("deep learning model"),
		p("trained"),
		p("the graph"),
		p("unknown words"),
		p("neural networks"),
	}
	got := f.Filter(in)
	require.Len(t, got, 3)
	assert.Equal(t, "neural networks", got[0].String())
	assert.Equal(t, "deep learning model", got[1].String())
	assert.Equal(t, "neural networks", got[2].String())

	// "the graph" fails on shape before tagging; the repeat is served from cache
	assert.Equal(t, 5, tagger.calls)
}

func TestFilterAll(t *testing.T) {
	f := NewPatternFilter(&fakeTagger{})
	out := f.FilterAll(map[string][]corpus.Phrase{
		"d1": {p("graph"), p("quickly")},
		"d2": nil,
	})
	assert.Len(t, out["d1"], 1)
	assert.Empty(t, out["d2"])
}

func TestAlign(t *testing.T) {
	tags, err := align([]string{"state-of-the-art", "model"},
		[]string{"state", "-", "of", "-", "the", "-", "art", "model"},
		[]string{"NN", "HYPH", "IN", "HYPH", "DT", "HYPH", "NN", "NN"})
	require.NoError(t, err)
	assert.Equal(t, []string{"NN", "NN"}, tags)

	tags, err = align([]string{"''", "x"}, []string{"\"", "x"}, []string{"``", "NN"})
	require.NoError(t, err)
	assert.Equal(t, []string{"``", "NN"}, tags)

	_, err = align([]string{"ab"}, []string{"a", "c"}, []string{"NN", "NN"})
	assert.Error(t, err)
}

func TestTaggerFunc(t *testing.T) {
	f := NewPatternFilter(TaggerFunc(func(tokens []string) ([]string, error) {
		return []string{"NN"}, nil
	}))
	// tag count mismatch rejects the phrase
	assert.False(t, f.Valid(p("two words")))
	assert.True(t, f.Valid(p("word")))
}
