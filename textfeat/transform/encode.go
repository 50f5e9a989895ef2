package transform

// padSequences brings a sequence of embedding vectors to exactly maxLen
// entries: shorter sequences get zero vectors of length dim appended,
// longer sequences are truncated to the first maxLen entries. Only one
// of the two branches runs, decided by a count <= maxLen test.
func padSequences(seqs [][]float32, maxLen, dim int) [][]float32 {
	if len(seqs) <= maxLen {
		for len(seqs) < maxLen {
			seqs = append(seqs, make([]float32, dim))
		}
		return seqs
	}
	return seqs[:maxLen]
}

// flatten lays out an L x E matrix as L*E scalars in row-major order.
func flatten(seqs [][]float32, dim int) []float32 {
	out := make([]float32, 0, len(seqs)*dim)
	for _, v := range seqs {
		out = append(out, v...)
	}
	return out
}
