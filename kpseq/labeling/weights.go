package labeling

// BalancedSampleWeights gives every position of padded label sequences the weight
// n / (classes * count[label]), where n is the total number of positions and classes the
// number of distinct labels seen. Rare keyphrase labels thereby outweigh padding and outside.
func BalancedSampleWeights(labels [][]int) [][]float64 {
	counts := make(map[int]int)
	n := 0
	for _, seq := range labels {
		for _, l := range seq {
			counts[l]++
			n++
		}
	}
	weightOf := make(map[int]float64, len(counts))
	for l, c := range counts {
		weightOf[l] = float64(n) / (float64(len(counts)) * float64(c))
	}

	out := make([][]float64, len(labels))
	for i, seq := range labels {
		row := make([]float64, len(seq))
		for t, l := range seq {
			row[t] = weightOf[l]
		}
		out[i] = row
	}
	return out
}
