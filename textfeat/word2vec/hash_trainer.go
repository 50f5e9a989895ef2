package word2vec

import (
	"context"
	"crypto/sha256"

	"gonum.org/v1/gonum/floats"
)

// HashTrainer derives a deterministic vector for every distinct corpus
// word from its sha256 digest. It stands in for a real word-embedding
// estimator where one is not available: vectors carry no semantic
// signal but are stable across runs and processes.
type HashTrainer struct {
	dim       int
	normalize bool
}

func NewHashTrainer(dim int) *HashTrainer {
	if dim <= 0 {
		dim = 100
	}
	return &HashTrainer{dim: dim}
}

// WithNormalize enables L2 normalization of each word vector.
func (h *HashTrainer) WithNormalize(on bool) *HashTrainer {
	h.normalize = on
	return h
}

func (h *HashTrainer) Dimensions() int { return h.dim }

func (h *HashTrainer) Fit(ctx context.Context, corpus [][]string) (*Vocabulary, error) {
	words := distinctWords(corpus)
	vectors := make(map[string][]float32, len(words)+1)
	for _, w := range words {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		vectors[w] = h.wordVector(w)
	}
	return NewVocabulary(h.dim, vectors), nil
}

func (h *HashTrainer) wordVector(word string) []float32 {
	sum := sha256.Sum256([]byte(word))
	vec := make([]float32, h.dim)
	// repeat hash bytes to fill dims
	for j := 0; j < h.dim; j++ {
		b := sum[j%len(sum)]
		vec[j] = (float32(int(b)) - 128.0) / 128.0
	}
	if h.normalize {
		v64 := make([]float64, h.dim)
		for j, x := range vec {
			v64[j] = float64(x)
		}
		if n := floats.Norm(v64, 2); n > 0 {
			floats.Scale(1/n, v64)
			for j, x := range v64 {
				vec[j] = float32(x)
			}
		}
	}
	return vec
}
