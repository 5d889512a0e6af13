package embedding

import (
	"strings"

	"github.com/ZanzyTHEbar/kpseq/kpseq"
)

// Source supplies pretrained word vectors of a fixed dimension. A missing word is a normal case.
type Source interface {
	Dimensions() int
	Vector(word string) ([]float32, bool)
}

// NewSource selects a vector source by kind: "file" (GloVe-style text file at path),
// "hash" (deterministic development vectors) or "none" (every word missing).
// For "file", only words accepted by wanted are kept; a nil wanted keeps everything.
func NewSource(kind string, path string, dims int, wanted func(string) bool) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "file", "glove", "text":
		return LoadTextVectors(path, dims, wanted)
	case "hash", "dev":
		return NewHashSource(dims), nil
	case "none", "":
		return NewMapSource(dims), nil
	default:
		return nil, kpseq.NewConfigurationError("embeddings.source", "unknown source %q", kind)
	}
}

// MapSource is an in-memory word to vector table.
type MapSource struct {
	dims    int
	vectors map[string][]float32
}

// NewMapSource returns an empty table of the given dimension.
func NewMapSource(dims int) *MapSource {
	return &MapSource{dims: dims, vectors: make(map[string][]float32)}
}

func (m *MapSource) Dimensions() int { return m.dims }

// Set stores vec for word, fitted to the table dimension.
func (m *MapSource) Set(word string, vec []float32) {
	m.vectors[word] = AdjustToDims(vec, m.dims)
}

func (m *MapSource) Vector(word string) ([]float32, bool) {
	v, ok := m.vectors[word]
	return v, ok
}

// Len returns the number of words held.
func (m *MapSource) Len() int { return len(m.vectors) }
