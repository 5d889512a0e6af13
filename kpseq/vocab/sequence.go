package vocab

// Pad normalizes seq to exactly maxLen entries: tail truncation, then zero padding at the end.
// The result never aliases seq.
func Pad(seq []int, maxLen int) []int {
	if maxLen < 0 {
		maxLen = 0
	}
	out := make([]int, maxLen)
	copy(out, seq)
	return out
}

// EncodePadded encodes tokens and pads or truncates them to maxLen.
func (v *Vocabulary) EncodePadded(tokens []string, maxLen int) []int {
	if len(tokens) > maxLen {
		tokens = tokens[:maxLen]
	}
	return Pad(v.Encode(tokens), maxLen)
}

// EncodeAll encodes and pads a batch of documents.
func (v *Vocabulary) EncodeAll(docs [][]string, maxLen int) [][]int {
	out := make([][]int, len(docs))
	for i, doc := range docs {
		out[i] = v.EncodePadded(doc, maxLen)
	}
	return out
}
