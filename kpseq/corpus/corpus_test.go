package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/kpseq/kpseq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestWordTokenizer(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Deep learning, again.", []string{"deep", "learning", ",", "again", "."}},
		{"state-of-the-art don't", []string{"state-of-the-art", "don't"}},
		{"  ", nil},
		{"version 2.0 (beta)", []string{"version", "2.0", "(", "beta", ")"}},
	}
	tok := NewWordTokenizer(true)
	for _, tt := range tests {
		got, err := tok.Tokenize(tt.text)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.text)
	}

	keep, err := NewWordTokenizer(false).Tokenize("Graph")
	require.NoError(t, err)
	assert.Equal(t, []string{"Graph"}, keep)
}

func TestTokenizeAllDropsEmpty(t *testing.T) {
	got, err := TokenizeAll(NewWordTokenizer(true), []string{"Neural Nets", "", "   ", "svm"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "neural nets", got[0].String())
	assert.Equal(t, "svm", got[1].String())
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "train.jsonl", strings.Join([]string{
		`{"key":"a","text":"Neural networks learn","keyphrases":["neural networks"]}`,
		``,
		`{"text":"svm beats trees","keyphrases":["SVM"]}`,
	}, "\n"))
	writeFile(t, dir, "test.jsonl",
		`{"key":"s","tokens":["already","split"],"answer_tokens":[["already"],[]]}`+"\n")

	var calls []int
	c, err := LoadDir(dir, nil, NewWordTokenizer(true), LoadOptions{
		Progress: func(split Split, done, total int) {
			if split == Train {
				calls = append(calls, done*10+total)
			}
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []Split{Train, Test}, c.Present())
	_, ok := c.Get(Validation)
	assert.False(t, ok)

	train, _ := c.Get(Train)
	assert.Equal(t, []string{"a", "train-3"}, train.Keys())
	assert.Equal(t, []string{"neural", "networks", "learn"}, train.Documents[0].Tokens)
	assert.Equal(t, "svm", train.Answers["train-3"][0].String())
	assert.Equal(t, []int{12, 22}, calls)

	test, _ := c.Get(Test)
	assert.Equal(t, []string{"already", "split"}, test.Documents[0].Tokens)
	require.Len(t, test.Answers["s"], 1)

	assert.Equal(t, [][]string{{"neural", "networks", "learn"}, {"svm", "beats", "trees"}, {"already", "split"}}, c.Documents())
}

func TestLoadDirErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "train.jsonl", `{"key":"a","text":"x","keyphrases":[]}`+"\n")

	_, err := LoadDir(dir, nil, NewWordTokenizer(true), LoadOptions{})
	assert.ErrorIs(t, err, kpseq.ErrMissingSplit)

	writeFile(t, dir, "test.jsonl", "{not json\n")
	_, err = LoadDir(dir, nil, NewWordTokenizer(true), LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test.jsonl:1")

	_, err = LoadDir(dir, map[Split]string{Train: "train.jsonl"}, NewWordTokenizer(true), LoadOptions{})
	assert.ErrorIs(t, err, kpseq.ErrConfiguration)
}

func TestValidate(t *testing.T) {
	good := func() Corpus {
		train := NewDataset()
		train.Add("a", []string{"x"}, nil)
		test := NewDataset()
		test.Add("b", []string{"y"}, []Phrase{{"y"}})
		return Corpus{Train: train, Test: test}
	}
	require.NoError(t, good().Validate())

	c := good()
	c[Test].Add("b", []string{"z"}, nil)
	assert.ErrorIs(t, c.Validate(), kpseq.ErrConfiguration)

	c = good()
	c[Train].Answers["ghost"] = nil
	assert.ErrorIs(t, c.Validate(), kpseq.ErrConfiguration)

	c = good()
	c[Train].Documents = append(c[Train].Documents, Document{Key: "orphan"})
	assert.ErrorIs(t, c.Validate(), kpseq.ErrConfiguration)

	c = good()
	c[Test] = nil
	assert.ErrorIs(t, c.Validate(), kpseq.ErrMissingSplit)
}

func TestParseSplit(t *testing.T) {
	for name, want := range map[string]Split{"train": Train, " TEST ": Test, "val": Validation, "dev": Validation, "validation": Validation} {
		got, err := ParseSplit(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseSplit("holdout")
	assert.Error(t, err)
}

func TestStemDataset(t *testing.T) {
	ds := NewDataset()
	ds.Add("a", []string{"recurrent", "networks", "labels"}, []Phrase{{"recurr", "network"}})

	stemmed := StemDataset(ds, SnowballStemmer{})
	assert.Equal(t, []string{"recurr", "network", "label"}, stemmed.Documents[0].Tokens)
	assert.Equal(t, []string{"recurrent", "networks", "labels"}, ds.Documents[0].Tokens, "source untouched")
	assert.Equal(t, ds.Answers, stemmed.Answers)

	upper := StemDataset(ds, StemFunc(strings.ToUpper))
	assert.Equal(t, "RECURRENT NETWORKS LABELS", Phrase(upper.Documents[0].Tokens).String())
}

func TestPhraseClone(t *testing.T) {
	p := Phrase{"a", "b"}
	c := p.Clone()
	c[0] = "z"
	assert.Equal(t, "a b", p.String())
	assert.Equal(t, "z b", c.String())
}
