package labeling

import (
	roaring "github.com/RoaringBitmap/roaring"
)

// positions maps each distinct token of a document to the bitmap of offsets where it occurs.
type positions map[string]*roaring.Bitmap

func indexPositions(tokens []string) positions {
	p := make(positions, len(tokens))
	for i, tok := range tokens {
		bm, ok := p[tok]
		if !ok {
			bm = roaring.New()
			p[tok] = bm
		}
		bm.Add(uint32(i))
	}
	return p
}

// of returns the ascending offsets of tok.
func (p positions) of(tok string) []uint32 {
	bm, ok := p[tok]
	if !ok {
		return nil
	}
	return bm.ToArray()
}

// occurrences returns the start offsets where phrase matches tokens in full.
// A phrase running past the end of the document never matches.
func (p positions) occurrences(tokens []string, phrase []string) []int {
	if len(phrase) == 0 || len(phrase) > len(tokens) {
		return nil
	}
	var out []int
	for _, start := range p.of(phrase[0]) {
		idx := int(start)
		if idx+len(phrase) > len(tokens) {
			break
		}
		if matchesAt(tokens, phrase, idx) {
			out = append(out, idx)
		}
	}
	return out
}

func matchesAt(tokens []string, phrase []string, idx int) bool {
	for i := 1; i < len(phrase); i++ {
		if tokens[idx+i] != phrase[i] {
			return false
		}
	}
	return true
}
