package transform

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"gonum.org/v1/gonum/floats"

	internal "github.com/quillfeed/textfeat/textfeat"
	"github.com/quillfeed/textfeat/textfeat/config"
	"github.com/quillfeed/textfeat/textfeat/dataset"
)

// SparseVector is a sparse term-frequency vector as parallel arrays of
// bucket indices (sorted ascending) and their values.
type SparseVector struct {
	Indices []uint32  `json:"indices"`
	Values  []float64 `json:"values"`
}

// HashingTF maps a free-text column to a fixed-size term-frequency
// vector using the hashing trick: each whitespace token is hashed
// (fnv-1a) into one of NumFeatures buckets and counted. Binary mode
// records presence instead of counts; Normalize applies L2 scaling.
type HashingTF struct {
	InputCol    string
	OutputCol   string
	NumFeatures int
	Binary      bool
	Normalize   bool
	Sparse      bool
	Workers     int
}

// NewHashingTF builds a transformer from configuration.
func NewHashingTF(cfg config.HashingConfig) (*HashingTF, error) {
	h := &HashingTF{
		InputCol:    cfg.InputCol,
		OutputCol:   cfg.OutputCol,
		NumFeatures: cfg.NumFeatures,
		Binary:      cfg.Binary,
		Normalize:   cfg.Normalize,
	}
	if h.InputCol == "" {
		return nil, fmt.Errorf("inputCol is required")
	}
	if h.OutputCol == "" {
		return nil, fmt.Errorf("outputCol is required")
	}
	if h.NumFeatures <= 0 {
		h.NumFeatures = internal.DefaultNumFeatures
	}
	return h, nil
}

// Transform derives a new dataset with the hashed feature column.
func (h *HashingTF) Transform(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, error) {
	inIdx, err := ds.ColumnIndex(h.InputCol)
	if err != nil {
		return nil, err
	}
	mapped := ds
	if h.Workers > 0 {
		mapped = ds.WithWorkers(h.Workers)
	}
	return mapped.WithColumns(ctx,
		[]string{h.OutputCol},
		func(ctx context.Context, row dataset.Row) ([]any, error) {
			text, ok := row[inIdx].(string)
			if !ok {
				return nil, fmt.Errorf("column %q: expected string, got %T", h.InputCol, row[inIdx])
			}
			if h.Sparse {
				return []any{h.featuresSparse(text)}, nil
			}
			return []any{h.features(text)}, nil
		})
}

// bucket hashes one token into [0, NumFeatures).
func (h *HashingTF) bucket(word string) uint32 {
	hs := fnv.New32a()
	hs.Write([]byte(word))
	return hs.Sum32() % uint32(h.NumFeatures)
}

// features computes the dense term-frequency vector for one document.
func (h *HashingTF) features(text string) []float64 {
	vec := make([]float64, h.NumFeatures)
	for _, word := range strings.Fields(text) {
		idx := h.bucket(word)
		if h.Binary {
			vec[idx] = 1.0
		} else {
			vec[idx]++
		}
	}
	if h.Normalize {
		if n := floats.Norm(vec, 2); n > 0 {
			floats.Scale(1/n, vec)
		}
	}
	return vec
}

// featuresSparse computes the sparse representation: occupied bucket
// indices tracked in a roaring bitmap for ordered, deduplicated output.
func (h *HashingTF) featuresSparse(text string) SparseVector {
	counts := make(map[uint32]float64)
	occupied := roaring.New()
	for _, word := range strings.Fields(text) {
		idx := h.bucket(word)
		occupied.Add(idx)
		if h.Binary {
			counts[idx] = 1.0
		} else {
			counts[idx]++
		}
	}
	indices := occupied.ToArray()
	values := make([]float64, len(indices))
	for i, idx := range indices {
		values[i] = counts[idx]
	}
	if h.Normalize {
		if n := floats.Norm(values, 2); n > 0 {
			floats.Scale(1/n, values)
		}
	}
	return SparseVector{Indices: indices, Values: values}
}
