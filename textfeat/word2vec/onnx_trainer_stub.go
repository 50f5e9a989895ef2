//go:build !onnx
// +build !onnx

package word2vec

import (
	"context"
	"fmt"
)

// onnxTrainer is a stub used when built without the "onnx" build tag.
type onnxTrainer struct{ dim int }

func newONNXTrainer(dim int, modelPath string) Trainer { return &onnxTrainer{dim: dim} }

func (t *onnxTrainer) Dimensions() int { return t.dim }

func (t *onnxTrainer) Fit(ctx context.Context, corpus [][]string) (*Vocabulary, error) {
	return nil, fmt.Errorf("onnx trainer not available: build with -tags onnx and provide a supported model")
}
