package segment

import (
	"fmt"
	"os"
	"path/filepath"

	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/model/wordpiece"
	"github.com/sugarme/tokenizer/normalizer"
	"github.com/sugarme/tokenizer/pretokenizer"
)

// WordPiece wraps sugarme/tokenizer WordPiece (BERT-style), emitting
// surface token strings for downstream vocabulary training.
type WordPiece struct {
	t *tk.Tokenizer
}

// NewWordPiece loads vocab.txt and builds a WordPiece segmenter.
// vocabPath may point at the vocab file directly or at its directory.
func NewWordPiece(vocabPath string) (*WordPiece, error) {
	if vocabPath == "" {
		return nil, fmt.Errorf("%w: wordpiece requires vocabPath", ErrUnsupported)
	}
	if fi, err := os.Stat(vocabPath); err == nil && fi.IsDir() {
		vocabPath = filepath.Join(vocabPath, "vocab.txt")
	}
	wp, err := wordpiece.NewWordPieceFromFile(vocabPath, "[UNK]")
	if err != nil {
		return nil, fmt.Errorf("failed to load wordpiece vocab %s: %w", vocabPath, err)
	}

	t := tk.NewTokenizer(wp)
	t.WithNormalizer(normalizer.NewBertNormalizer(true, true, true, true))
	t.WithPreTokenizer(pretokenizer.NewBertPreTokenizer())
	return &WordPiece{t: t}, nil
}

func (w *WordPiece) Cut(text string) ([]string, error) {
	enc, err := w.t.Encode(tk.NewSingleEncodeInput(tk.NewInputSequence(text)), false)
	if err != nil {
		return nil, err
	}
	return enc.GetTokens(), nil
}
