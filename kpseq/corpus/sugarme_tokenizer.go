package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/model/wordpiece"
	"github.com/sugarme/tokenizer/normalizer"
	"github.com/sugarme/tokenizer/pretokenizer"
)

// SugarTokenizer wraps a sugarme BERT pipeline (normalizer, pre-tokenizer, WordPiece)
// and regroups sub-word pieces into whole words so downstream labels stay word aligned.
type SugarTokenizer struct {
	t     *tk.Tokenizer
	lower bool
}

// NewSugarTokenizer loads a WordPiece vocab.txt. vocabPath may be the file or its directory.
func NewSugarTokenizer(vocabPath string, lowercase bool) (*SugarTokenizer, error) {
	if fi, err := os.Stat(vocabPath); err == nil && fi.IsDir() {
		vocabPath = filepath.Join(vocabPath, "vocab.txt")
	}
	if _, err := os.Stat(vocabPath); err != nil {
		return nil, fmt.Errorf("wordpiece vocab: %w", err)
	}
	wp, err := wordpiece.NewWordPieceFromFile(vocabPath, "[UNK]")
	if err != nil {
		return nil, fmt.Errorf("load wordpiece vocab %s: %w", vocabPath, err)
	}

	t := tk.NewTokenizer(wp)
	t.WithNormalizer(normalizer.NewBertNormalizer(true, true, true, lowercase))
	t.WithPreTokenizer(pretokenizer.NewBertPreTokenizer())
	return &SugarTokenizer{t: t, lower: lowercase}, nil
}

func (s *SugarTokenizer) Tokenize(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	enc, err := s.t.Encode(tk.NewSingleEncodeInput(tk.NewInputSequence(text)), false)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	pieces := enc.GetTokens()
	words := enc.GetWords()
	offsets := enc.GetOffsets()

	var out []string
	var cur strings.Builder
	start, end := -1, -1
	lastWord := -1

	flush := func() {
		if cur.Len() == 0 && start < 0 {
			return
		}
		word := cur.String()
		// prefer the original surface form; pieces lose text for [UNK]
		if start >= 0 && end <= len(text) && start < end {
			if surface := text[start:end]; utf8.ValidString(surface) {
				word = surface
				if s.lower {
					word = strings.ToLower(word)
				}
			}
		}
		if word != "" {
			out = append(out, word)
		}
		cur.Reset()
		start, end = -1, -1
	}

	for i, piece := range pieces {
		w := -1
		if i < len(words) {
			w = words[i]
		}
		if w < 0 {
			continue
		}
		if w != lastWord {
			flush()
			lastWord = w
		}
		cur.WriteString(strings.TrimPrefix(piece, "##"))
		if i < len(offsets) && len(offsets[i]) == 2 {
			if start < 0 {
				start = offsets[i][0]
			}
			end = offsets[i][1]
		}
	}
	flush()
	return out, nil
}
