package vocab

import (
	"bytes"
	"testing"

	"github.com/ZanzyTHEbar/kpseq/kpseq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocs() [][]string {
	return [][]string{
		{"b", "a", "c", "a"},
		{"d", "c", "a"},
		{"e", "b"},
	}
}

func TestFitOrdersByFrequencyThenFirstSeen(t *testing.T) {
	v, err := Fit(sampleDocs(), 100)
	require.NoError(t, err)

	// a:3, b:2, c:2 (b seen before c), d:1, e:1
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, v.Words())
	for want, tok := range []string{"a", "b", "c", "d", "e"} {
		idx, ok := v.Index(tok)
		require.True(t, ok)
		assert.Equal(t, want+1, idx, tok)
	}
	assert.Equal(t, 3, v.Count(1))
}

func TestFitIsDeterministic(t *testing.T) {
	v1, err := Fit(sampleDocs(), 10)
	require.NoError(t, err)
	v2, err := Fit(sampleDocs(), 10)
	require.NoError(t, err)

	assert.Equal(t, v1.Words(), v2.Words())
	for _, w := range v1.Words() {
		i1, _ := v1.Index(w)
		i2, _ := v2.Index(w)
		assert.Equal(t, i1, i2)
	}
}

func TestFitRejectsBadInput(t *testing.T) {
	_, err := Fit(sampleDocs(), 0)
	require.Error(t, err)
	assert.True(t, kpseq.IsConfigurationError(err))

	_, err = Fit(nil, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, kpseq.ErrEmptyCorpus)

	_, err = Fit([][]string{{}, {}}, 10)
	assert.ErrorIs(t, err, kpseq.ErrEmptyCorpus)
}

func TestNumWordsAndCap(t *testing.T) {
	v, err := Fit(sampleDocs(), 3)
	require.NoError(t, err)

	// the mapping keeps every token, the cap only limits encoding
	assert.Equal(t, 5, v.Len())
	assert.Equal(t, 3, v.NumWords())
	assert.Equal(t, []int{1, 2, 0, 0, 0}, v.Encode([]string{"a", "b", "c", "e", "zzz"}))

	big, err := Fit(sampleDocs(), 1000)
	require.NoError(t, err)
	assert.Equal(t, 6, big.NumWords())
}

func TestEncodePadded(t *testing.T) {
	v, err := Fit(sampleDocs(), 100)
	require.NoError(t, err)

	long := []string{"a", "b", "c", "d", "e"}
	assert.Equal(t, []int{1, 2, 3}, v.EncodePadded(long, 3))
	assert.Equal(t, []int{5, 4, 0, 0}, v.EncodePadded([]string{"e", "d"}, 4))
	assert.Equal(t, []int{0, 0}, v.EncodePadded(nil, 2))
	assert.Len(t, v.EncodeAll([][]string{long, {"a"}}, 4), 2)
}

func TestPadDoesNotAlias(t *testing.T) {
	in := []int{1, 2, 3}
	out := Pad(in, 3)
	out[0] = 9
	assert.Equal(t, 1, in[0])
}

func TestWithPrefix(t *testing.T) {
	v, err := Fit([][]string{{"python", "pyramid", "java", "py"}}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"py", "pyramid", "python"}, v.WithPrefix("py"))
	assert.Empty(t, v.WithPrefix("rust"))
}

func TestWriteAndReadVocabulary(t *testing.T) {
	v, err := Fit(sampleDocs(), 4)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = v.WriteTo(&buf)
	require.NoError(t, err)

	restored, err := ReadVocabulary(&buf, 4)
	require.NoError(t, err)
	assert.Equal(t, v.Words(), restored.Words())
	assert.Equal(t, v.NumWords(), restored.NumWords())
	assert.Equal(t, v.Encode([]string{"c", "d", "e"}), restored.Encode([]string{"c", "d", "e"}))
}

func TestReadVocabularyRejectsDuplicates(t *testing.T) {
	_, err := ReadVocabulary(bytes.NewBufferString("a\t2\na\t1\n"), 10)
	require.Error(t, err)
	assert.True(t, kpseq.IsConfigurationError(err))
}
