package word2vec

// UnkToken is the reserved fallback entry present in every trained
// vocabulary. Its vector is all zeros.
const UnkToken = "unk"

// Vocabulary maps words to fixed-length embedding vectors. It is built
// once per transform invocation, immutable afterward, and shared
// read-only with parallel workers.
type Vocabulary struct {
	dim     int
	vectors map[string][]float32
}

// NewVocabulary wraps trained word vectors, normalizing each entry to
// dim components and inserting the reserved "unk" zero vector. The
// input map is owned by the vocabulary after this call.
func NewVocabulary(dim int, vectors map[string][]float32) *Vocabulary {
	if vectors == nil {
		vectors = make(map[string][]float32, 1)
	}
	for w, v := range vectors {
		vectors[w] = AdjustToDims(v, dim)
	}
	vectors[UnkToken] = make([]float32, dim)
	return &Vocabulary{dim: dim, vectors: vectors}
}

// Dim returns the embedding vector length.
func (v *Vocabulary) Dim() int { return v.dim }

// Size returns the word count, including the "unk" entry.
func (v *Vocabulary) Size() int { return len(v.vectors) }

// Lookup returns the vector for word, if present.
func (v *Vocabulary) Lookup(word string) ([]float32, bool) {
	vec, ok := v.vectors[word]
	return vec, ok
}

// Unk returns the reserved zero vector.
func (v *Vocabulary) Unk() []float32 { return v.vectors[UnkToken] }
