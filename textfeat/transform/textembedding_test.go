package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillfeed/textfeat/textfeat/config"
	"github.com/quillfeed/textfeat/textfeat/dataset"
	"github.com/quillfeed/textfeat/textfeat/word2vec"
)

// fixedTrainer returns a prebuilt vocabulary regardless of corpus, so
// encoder behavior can be checked against known vectors.
type fixedTrainer struct {
	dim     int
	vectors map[string][]float32
}

func (f *fixedTrainer) Dimensions() int { return f.dim }

func (f *fixedTrainer) Fit(ctx context.Context, corpus [][]string) (*word2vec.Vocabulary, error) {
	vectors := make(map[string][]float32, len(f.vectors))
	for w, v := range f.vectors {
		vectors[w] = v
	}
	return word2vec.NewVocabulary(f.dim, vectors), nil
}

func catDogTrainer() *fixedTrainer {
	return &fixedTrainer{
		dim: 4,
		vectors: map[string][]float32{
			"cat": {1, 0, 0, 0},
			"dog": {0, 1, 0, 0},
		},
	}
}

func textDS(t *testing.T, texts ...string) *dataset.Dataset {
	t.Helper()
	rows := make([]dataset.Row, len(texts))
	for i, s := range texts {
		rows[i] = dataset.Row{s}
	}
	ds, err := dataset.New([]string{"text"}, rows)
	require.NoError(t, err)
	return ds
}

func embeddingCfg(seqLen, embSize int) config.EmbeddingConfig {
	return config.EmbeddingConfig{
		InputCol:       "text",
		OutputCol:      "features",
		EmbeddingSize:  embSize,
		SequenceLength: seqLen,
	}
}

func matrixAt(t *testing.T, ds *dataset.Dataset, row int) [][]float32 {
	t.Helper()
	v, err := ds.Value(row, "features")
	require.NoError(t, err)
	m, ok := v.([][]float32)
	require.True(t, ok, "features should be a matrix, got %T", v)
	return m
}

func TestEncodePaddingShortSequence(t *testing.T) {
	tr, err := NewTextEmbedding(embeddingCfg(3, 4), nil, catDogTrainer())
	require.NoError(t, err)

	// "bird" is not in the vocabulary and is dropped, not mapped to unk
	out, err := tr.Transform(context.Background(), textDS(t, "cat dog bird"))
	require.NoError(t, err)

	m := matrixAt(t, out, 0)
	assert.Equal(t, [][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 0, 0},
	}, m)
}

func TestEncodeTruncationLongSequence(t *testing.T) {
	tr, err := NewTextEmbedding(embeddingCfg(3, 4), nil, catDogTrainer())
	require.NoError(t, err)

	out, err := tr.Transform(context.Background(), textDS(t, "cat dog cat dog"))
	require.NoError(t, err)

	m := matrixAt(t, out, 0)
	assert.Equal(t, [][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{1, 0, 0, 0},
	}, m, "first L vectors, order preserved, no padding")
}

func TestEncodeAllTokensUnknown(t *testing.T) {
	tr, err := NewTextEmbedding(embeddingCfg(2, 4), nil, catDogTrainer())
	require.NoError(t, err)

	out, err := tr.Transform(context.Background(), textDS(t, "bird fish"))
	require.NoError(t, err)

	m := matrixAt(t, out, 0)
	assert.Equal(t, [][]float32{
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}, m, "all dropped tokens leave a fully padded sequence")
}

func TestEncodeMapToUnkPolicy(t *testing.T) {
	cfg := embeddingCfg(3, 4)
	cfg.UnknownPolicy = "unk"
	tr, err := NewTextEmbedding(cfg, nil, catDogTrainer())
	require.NoError(t, err)

	out, err := tr.Transform(context.Background(), textDS(t, "cat bird dog"))
	require.NoError(t, err)

	m := matrixAt(t, out, 0)
	assert.Equal(t, [][]float32{
		{1, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 1, 0, 0},
	}, m, "unknown token keeps its position as the unk zero vector")
}

func TestFlatOutputRowMajor(t *testing.T) {
	cfg := config.EmbeddingConfig{
		InputCol:       "text",
		OutputCol:      "features",
		EmbeddingSize:  2,
		SequenceLength: 4,
		OutputMode:     "flat",
	}
	tr, err := NewTextEmbedding(cfg, nil, &fixedTrainer{
		dim: 2,
		vectors: map[string][]float32{
			"a": {1, 2},
			"b": {3, 4},
		},
	})
	require.NoError(t, err)

	out, err := tr.Transform(context.Background(), textDS(t, "a b"))
	require.NoError(t, err)

	v, err := out.Value(0, "features")
	require.NoError(t, err)
	flat, ok := v.([]float32)
	require.True(t, ok, "flat mode should produce a []float32, got %T", v)
	assert.Equal(t, []float32{1, 2, 3, 4, 0, 0, 0, 0}, flat)
}

func TestAnnotationColumns(t *testing.T) {
	tr, err := NewTextEmbedding(embeddingCfg(3, 4), nil, catDogTrainer())
	require.NoError(t, err)

	out, err := tr.Transform(context.Background(), textDS(t, "cat", "dog", "bird"))
	require.NoError(t, err)

	assert.True(t, out.HasColumn(VocabSizeCol))
	assert.True(t, out.HasColumn(EmbeddingSizeCol))

	for i := 0; i < out.Len(); i++ {
		vs, err := out.Value(i, VocabSizeCol)
		require.NoError(t, err)
		assert.Equal(t, 3, vs, "2 trained words plus unk, identical on every row")

		es, err := out.Value(i, EmbeddingSizeCol)
		require.NoError(t, err)
		assert.Equal(t, 4, es)
	}
}

func TestTransformIdempotent(t *testing.T) {
	tr, err := NewTextEmbedding(embeddingCfg(3, 4), nil, catDogTrainer())
	require.NoError(t, err)

	ds := textDS(t, "cat dog bird", "dog dog dog dog")

	out1, err := tr.Transform(context.Background(), ds)
	require.NoError(t, err)
	out2, err := tr.Transform(context.Background(), ds)
	require.NoError(t, err)

	for i := 0; i < out1.Len(); i++ {
		assert.Equal(t, matrixAt(t, out1, i), matrixAt(t, out2, i))
	}
}

func TestTransformDefaults(t *testing.T) {
	tr, err := NewTextEmbedding(config.EmbeddingConfig{InputCol: "text", OutputCol: "features"}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 100, tr.EmbeddingSize)
	assert.Equal(t, 64, tr.SequenceLength)
	assert.Equal(t, OutputMatrix, tr.OutputMode)
	assert.Equal(t, DropUnknown, tr.UnknownPolicy)
	require.NotNil(t, tr.Segmenter)
	require.NotNil(t, tr.Trainer)

	out, err := tr.Transform(context.Background(), textDS(t, "hello world"))
	require.NoError(t, err)

	m := matrixAt(t, out, 0)
	require.Len(t, m, 64)
	for _, vec := range m {
		assert.Len(t, vec, 100)
	}
}

func TestTransformConfigValidation(t *testing.T) {
	_, err := NewTextEmbedding(config.EmbeddingConfig{OutputCol: "f"}, nil, nil)
	assert.Error(t, err)

	_, err = NewTextEmbedding(config.EmbeddingConfig{InputCol: "t"}, nil, nil)
	assert.Error(t, err)

	cfg := embeddingCfg(3, 4)
	cfg.OutputMode = "cube"
	_, err = NewTextEmbedding(cfg, nil, nil)
	assert.Error(t, err)

	cfg = embeddingCfg(3, 4)
	cfg.UnknownPolicy = "explode"
	_, err = NewTextEmbedding(cfg, nil, nil)
	assert.Error(t, err)
}

func TestTransformMissingColumn(t *testing.T) {
	tr, err := NewTextEmbedding(embeddingCfg(3, 4), nil, catDogTrainer())
	require.NoError(t, err)

	ds, err := dataset.New([]string{"other"}, []dataset.Row{{"x"}})
	require.NoError(t, err)

	_, err = tr.Transform(context.Background(), ds)
	assert.Error(t, err)
}
