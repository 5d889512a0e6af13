package filter

import (
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"
)

// POSTagger assigns one Penn Treebank tag to each token of a phrase.
type POSTagger interface {
	Tag(tokens []string) ([]string, error)
}

// TaggerFunc adapts a function to POSTagger.
type TaggerFunc func(tokens []string) ([]string, error)

func (f TaggerFunc) Tag(tokens []string) ([]string, error) { return f(tokens) }

// ProseTagger tags with the averaged perceptron model bundled in prose.
type ProseTagger struct{}

func NewProseTagger() *ProseTagger { return &ProseTagger{} }

// Tag re-tokenizes the joined phrase with prose and maps its tokens back onto ours. When prose
// splits one of our tokens ("state-of-the-art"), the token takes the tag of its last piece.
func (ProseTagger) Tag(tokens []string) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	doc, err := prose.NewDocument(strings.Join(tokens, " "),
		prose.WithSegmentation(false),
		prose.WithExtraction(false))
	if err != nil {
		return nil, fmt.Errorf("tag %q: %w", strings.Join(tokens, " "), err)
	}
	pieces := doc.Tokens()
	texts := make([]string, len(pieces))
	tags := make([]string, len(pieces))
	for i, p := range pieces {
		texts[i] = p.Text
		tags[i] = p.Tag
	}
	return align(tokens, texts, tags)
}

// align assigns each token the tag of the last piece that completes it.
func align(tokens, texts, tags []string) ([]string, error) {
	out := make([]string, len(tokens))
	j := 0
	for i, tok := range tokens {
		var buf strings.Builder
		for j < len(texts) && buf.Len() < len(tok) {
			buf.WriteString(texts[j])
			out[i] = tags[j]
			j++
		}
		if buf.String() != tok {
			if len(texts) == len(tokens) {
				return append(out[:0], tags...), nil
			}
			return nil, fmt.Errorf("cannot align tagger output %q with %q", texts, tokens)
		}
	}
	return out, nil
}
