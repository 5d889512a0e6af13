package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/kpseq/kpseq/corpus"
)

type candidateRecord struct {
	Key        string   `json:"key"`
	Candidates []string `json:"candidates"`
}

// ReadCandidates reads one {"key", "candidates": [...]} object per line and tokenizes every
// candidate with tok. Candidates that tokenize to nothing are dropped.
func ReadCandidates(r io.Reader, tok corpus.Tokenizer) (Candidates, error) {
	out := make(Candidates)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var rec candidateRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if rec.Key == "" {
			return nil, fmt.Errorf("line %d: missing key", line)
		}
		phrases, err := corpus.TokenizeAll(tok, rec.Candidates)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out[rec.Key] = append(out[rec.Key], phrases...)
	}
	return out, scanner.Err()
}

// LoadCandidates reads a candidates file written in the ReadCandidates format.
func LoadCandidates(path string, tok corpus.Tokenizer) (Candidates, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := ReadCandidates(f, tok)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
