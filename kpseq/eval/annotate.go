package eval

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/kpseq/kpseq/corpus"
)

// AnnotationType is the brat entity type written for every keyphrase.
const AnnotationType = "KEYPHRASE-NOTYPES"

// Annotation is one brat text-bound entity over a document's space-joined tokens.
type Annotation struct {
	ID    int
	Start int
	End   int
	Text  string
}

func (a Annotation) String() string {
	return fmt.Sprintf("T%d\t%s %d %d\t%s", a.ID, AnnotationType, a.Start, a.End, a.Text)
}

// Annotate locates every occurrence of each distinct phrase in tokens. Offsets are character
// offsets into strings.Join(tokens, " ").
func Annotate(tokens []string, phrases []corpus.Phrase) []Annotation {
	offsets := make([]int, len(tokens)+1)
	for i, tok := range tokens {
		offsets[i+1] = offsets[i] + len(tok) + 1
	}

	var out []Annotation
	seen := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		key := p.String()
		if len(p) == 0 {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		for i := 0; i+len(p) <= len(tokens); i++ {
			if !matches(tokens[i:i+len(p)], p) {
				continue
			}
			out = append(out, Annotation{
				ID:    len(out) + 1,
				Start: offsets[i],
				End:   offsets[i+len(p)] - 1,
				Text:  key,
			})
		}
	}
	return out
}

func matches(window []string, p corpus.Phrase) bool {
	for i := range p {
		if window[i] != p[i] {
			return false
		}
	}
	return true
}

// WriteAnnotations writes <key>.txt with the space-joined tokens and <key>.ann with the brat
// annotations of predicted for every document of ds.
func WriteAnnotations(dir string, ds *corpus.Dataset, predicted map[string][]corpus.Phrase) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, doc := range ds.Documents {
		base := filepath.Join(dir, doc.Key)
		if err := os.WriteFile(base+".txt", []byte(strings.Join(doc.Tokens, " ")), 0o644); err != nil {
			return err
		}
		if err := writeAnn(base+".ann", Annotate(doc.Tokens, predicted[doc.Key])); err != nil {
			return fmt.Errorf("annotate %s: %w", doc.Key, err)
		}
	}
	return nil
}

func writeAnn(path string, anns []Annotation) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, a := range anns {
		if _, err := fmt.Fprintln(w, a.String()); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}
