package corpus

import (
	"github.com/kljensen/snowball/english"
)

// Stemmer normalizes a token to its root form.
type Stemmer interface {
	Stem(token string) string
}

// SnowballStemmer is the English Snowball (Porter2) stemmer.
type SnowballStemmer struct{}

func (SnowballStemmer) Stem(token string) string {
	return english.Stem(token, true)
}

// StemFunc adapts a plain function to Stemmer.
type StemFunc func(string) string

func (f StemFunc) Stem(token string) string { return f(token) }

// StemPhrase returns a stemmed copy of p.
func StemPhrase(p Phrase, s Stemmer) Phrase {
	out := make(Phrase, len(p))
	for i, t := range p {
		out[i] = s.Stem(t)
	}
	return out
}

// StemDataset returns a copy of ds whose document tokens are stemmed.
// Answers are shared unchanged: this is used when gold keyphrases ship already stemmed.
func StemDataset(ds *Dataset, s Stemmer) *Dataset {
	out := &Dataset{
		Documents: make([]Document, len(ds.Documents)),
		Answers:   ds.Answers,
	}
	for i, doc := range ds.Documents {
		out.Documents[i] = Document{Key: doc.Key, Tokens: StemPhrase(doc.Tokens, s)}
	}
	return out
}
