package corpus

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/kpseq/kpseq"
)

// record is one line of a JSONL corpus file. Tokens, when present, bypass the tokenizer.
type record struct {
	Key        string     `json:"key"`
	Text       string     `json:"text"`
	Tokens     []string   `json:"tokens,omitempty"`
	Keyphrases []string   `json:"keyphrases"`
	Answers    [][]string `json:"answer_tokens,omitempty"`
}

// LoadOptions tune corpus loading.
type LoadOptions struct {
	// Progress is called after each document is tokenized.
	Progress func(split Split, done, total int)
}

// DefaultFiles maps splits to the file names looked up by LoadDir.
var DefaultFiles = map[Split]string{
	Train:      "train.jsonl",
	Test:       "test.jsonl",
	Validation: "validation.jsonl",
}

// LoadDir reads every split file found in folder. A missing validation file leaves the split absent;
// a missing train or test file is a configuration error.
func LoadDir(folder string, files map[Split]string, tok Tokenizer, opts LoadOptions) (Corpus, error) {
	if files == nil {
		files = DefaultFiles
	}
	c := make(Corpus, len(Splits))
	for _, s := range Splits {
		name, ok := files[s]
		if !ok || name == "" {
			if s.Required() {
				return nil, kpseq.NewConfigurationError("dataset.files", "no file configured for split %q", s).Wrap(kpseq.ErrMissingSplit)
			}
			continue
		}
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(folder, name)
		}
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) && !s.Required() {
				continue
			}
			return nil, kpseq.NewConfigurationError("dataset.folder", "split %q: %v", s, err).Wrap(kpseq.ErrMissingSplit)
		}
		ds, err := LoadJSONL(path, s, tok, opts)
		if err != nil {
			return nil, err
		}
		c[s] = ds
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadJSONL reads a line-oriented corpus file and tokenizes documents and keyphrases.
func LoadJSONL(path string, split Split, tok Tokenizer, opts LoadOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus file: %w", err)
	}
	defer f.Close()

	var records []record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var r record
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		if r.Key == "" {
			r.Key = fmt.Sprintf("%s-%d", split, line)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}

	ds := NewDataset()
	for i, r := range records {
		tokens := r.Tokens
		if tokens == nil {
			if tokens, err = tok.Tokenize(r.Text); err != nil {
				return nil, fmt.Errorf("tokenize document %q: %w", r.Key, err)
			}
		}
		var answers []Phrase
		if len(r.Answers) > 0 {
			for _, a := range r.Answers {
				if len(a) > 0 {
					answers = append(answers, Phrase(a))
				}
			}
		} else if answers, err = TokenizeAll(tok, r.Keyphrases); err != nil {
			return nil, fmt.Errorf("tokenize keyphrases of %q: %w", r.Key, err)
		}
		ds.Add(r.Key, tokens, answers)
		if opts.Progress != nil {
			opts.Progress(split, i+1, len(records))
		}
	}
	return ds, nil
}
