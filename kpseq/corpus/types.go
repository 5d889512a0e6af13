package corpus

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/kpseq/kpseq"
)

// Phrase is an ordered run of tokens, either a gold keyphrase or a prediction.
type Phrase []string

// String joins the tokens with single spaces.
func (p Phrase) String() string { return strings.Join(p, " ") }

// Clone returns a copy that does not share the backing array.
func (p Phrase) Clone() Phrase {
	out := make(Phrase, len(p))
	copy(out, p)
	return out
}

// Document is a tokenized document identified by a corpus-unique key.
type Document struct {
	Key    string   `json:"key"`
	Tokens []string `json:"tokens"`
}

// Dataset holds one split: documents in load order plus the gold keyphrases per document key.
type Dataset struct {
	Documents []Document
	Answers   map[string][]Phrase
}

// NewDataset returns an empty dataset ready for Add.
func NewDataset() *Dataset {
	return &Dataset{Answers: make(map[string][]Phrase)}
}

// Add appends a document and its gold keyphrases.
func (d *Dataset) Add(key string, tokens []string, answers []Phrase) {
	d.Documents = append(d.Documents, Document{Key: key, Tokens: tokens})
	d.Answers[key] = answers
}

// Len returns the number of documents.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Documents)
}

// Keys returns document keys in load order.
func (d *Dataset) Keys() []string {
	keys := make([]string, len(d.Documents))
	for i, doc := range d.Documents {
		keys[i] = doc.Key
	}
	return keys
}

// Tokens returns the token lists in load order. The slices are shared with the dataset.
func (d *Dataset) Tokens() [][]string {
	out := make([][]string, len(d.Documents))
	for i, doc := range d.Documents {
		out[i] = doc.Tokens
	}
	return out
}

// AnswerList returns gold keyphrases aligned with Documents.
func (d *Dataset) AnswerList() [][]Phrase {
	out := make([][]Phrase, len(d.Documents))
	for i, doc := range d.Documents {
		out[i] = d.Answers[doc.Key]
	}
	return out
}

// Split names one partition of a corpus.
type Split string

const (
	Train      Split = "train"
	Test       Split = "test"
	Validation Split = "validation"
)

// Splits lists every split in canonical order. Vocabulary first-seen order follows it.
var Splits = []Split{Train, Test, Validation}

// Required reports whether the split must be present for a corpus to be usable.
func (s Split) Required() bool { return s == Train || s == Test }

// ParseSplit converts a name into a Split.
func ParseSplit(name string) (Split, error) {
	switch Split(strings.ToLower(strings.TrimSpace(name))) {
	case Train:
		return Train, nil
	case Test:
		return Test, nil
	case Validation, "val", "dev":
		return Validation, nil
	}
	return "", fmt.Errorf("unknown split %q", name)
}

// Corpus maps each present split to its dataset. An absent key means the split is absent.
type Corpus map[Split]*Dataset

// Get returns the dataset for split when present.
func (c Corpus) Get(s Split) (*Dataset, bool) {
	ds, ok := c[s]
	if !ok || ds == nil {
		return nil, false
	}
	return ds, true
}

// Present returns the present splits in canonical order.
func (c Corpus) Present() []Split {
	var out []Split
	for _, s := range Splits {
		if _, ok := c.Get(s); ok {
			out = append(out, s)
		}
	}
	return out
}

// Documents returns the token lists of every present split in canonical order.
func (c Corpus) Documents() [][]string {
	var out [][]string
	for _, s := range c.Present() {
		ds, _ := c.Get(s)
		out = append(out, ds.Tokens()...)
	}
	return out
}

// Validate checks split presence and that documents and answers pair up one to one.
func (c Corpus) Validate() error {
	for _, s := range Splits {
		ds, ok := c.Get(s)
		if !ok {
			if s.Required() {
				return kpseq.NewConfigurationError("corpus", "split %q is required", s).Wrap(kpseq.ErrMissingSplit)
			}
			continue
		}
		seen := make(map[string]struct{}, len(ds.Documents))
		for _, doc := range ds.Documents {
			if _, dup := seen[doc.Key]; dup {
				return kpseq.NewConfigurationError("corpus", "split %q has duplicate document key %q", s, doc.Key)
			}
			seen[doc.Key] = struct{}{}
			if _, ok := ds.Answers[doc.Key]; !ok {
				return kpseq.NewConfigurationError("corpus", "split %q: document %q has no answer entry", s, doc.Key)
			}
		}
		for key := range ds.Answers {
			if _, ok := seen[key]; !ok {
				return kpseq.NewConfigurationError("corpus", "split %q: answers for unknown document %q", s, key)
			}
		}
	}
	return nil
}

// GoldSet returns the gold keyphrases of a dataset keyed by document.
func (d *Dataset) GoldSet() map[string][]Phrase {
	out := make(map[string][]Phrase, len(d.Answers))
	for k, v := range d.Answers {
		out[k] = v
	}
	return out
}
