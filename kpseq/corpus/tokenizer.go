package corpus

import (
	"regexp"
	"strings"
)

// Tokenizer splits raw text into word tokens. Core code trusts its output as-is.
type Tokenizer interface {
	Tokenize(text string) ([]string, error)
}

// TokenizeAll tokenizes every keyphrase string of an answer list, dropping empty results.
func TokenizeAll(tok Tokenizer, answers []string) ([]Phrase, error) {
	out := make([]Phrase, 0, len(answers))
	for _, a := range answers {
		tokens, err := tok.Tokenize(a)
		if err != nil {
			return nil, err
		}
		if len(tokens) == 0 {
			continue
		}
		out = append(out, Phrase(tokens))
	}
	return out, nil
}

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:[-'.][\p{L}\p{N}]+)*|[^\p{L}\p{N}\s]`)

// WordTokenizer splits on letters/digits with inner hyphens and apostrophes kept,
// emitting each punctuation rune as its own token.
type WordTokenizer struct {
	lower bool
}

// NewWordTokenizer returns the fallback tokenizer used when no WordPiece vocabulary is configured.
func NewWordTokenizer(lowercase bool) *WordTokenizer {
	return &WordTokenizer{lower: lowercase}
}

func (w *WordTokenizer) Tokenize(text string) ([]string, error) {
	if w.lower {
		text = strings.ToLower(text)
	}
	return wordPattern.FindAllString(text, -1), nil
}
