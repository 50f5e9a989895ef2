package word2vec

import (
	"context"
	"strings"
)

// Trainer learns a word-to-vector mapping from a tokenized corpus.
// Every observed word receives a vector, however rare (a minimum
// occurrence threshold of 1).
type Trainer interface {
	Dimensions() int
	Fit(ctx context.Context, corpus [][]string) (*Vocabulary, error)
}

// NewTrainer selects a trainer backend by name (e.g., "hash", "onnx").
// modelPath is used by model-backed trainers. Unknown backends fall
// back to the deterministic hash-based trainer.
func NewTrainer(backend string, dim int, modelPath string) Trainer {
	if dim <= 0 {
		dim = 100
	}
	name := strings.ToLower(strings.TrimSpace(backend))
	switch name {
	case "hash", "", "dev":
		return NewHashTrainer(dim)
	default:
		if strings.HasPrefix(name, "onnx") {
			return newONNXTrainer(dim, modelPath)
		}
		return NewHashTrainer(dim)
	}
}

// distinctWords collects the unique words of a tokenized corpus in
// first-seen order.
func distinctWords(corpus [][]string) []string {
	seen := make(map[string]struct{})
	var words []string
	for _, doc := range corpus {
		for _, w := range doc {
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			words = append(words, w)
		}
	}
	return words
}
