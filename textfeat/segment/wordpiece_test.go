package segment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordPieceMissingVocab(t *testing.T) {
	_, err := NewWordPiece(filepath.Join(t.TempDir(), "vocab.txt"))
	assert.Error(t, err)
}

func TestWordPieceCut(t *testing.T) {
	dir := t.TempDir()
	vocab := "[UNK]\n[CLS]\n[SEP]\nhello\nworld\n"
	vocabPath := filepath.Join(dir, "vocab.txt")
	require.NoError(t, os.WriteFile(vocabPath, []byte(vocab), 0o644))

	// A directory also resolves to its vocab.txt
	wp, err := NewWordPiece(dir)
	require.NoError(t, err)

	tokens, err := wp.Cut("Hello world")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "world"}, tokens, "bert normalizer lowercases before lookup")

	tokens, err = wp.Cut("hello mars")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "[UNK]"}, tokens)
}
