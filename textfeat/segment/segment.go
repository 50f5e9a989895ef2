package segment

import (
	"fmt"
)

// Segmenter converts raw text into an ordered sequence of word tokens.
// Implementations are injected into transformers rather than reached
// through process-global library state, and must be safe for concurrent
// use by parallel row workers.
type Segmenter interface {
	Cut(text string) ([]string, error)
}

// Config holds the dictionary bundle for segmenter backends that load
// a custom vocabulary.
type Config struct {
	DicDir      string
	DicZipName  string
	AutoExtract bool
	VocabPath   string
}

// ErrUnsupported indicates the segmenter could not be initialized
var ErrUnsupported = fmt.Errorf("unsupported segmenter configuration")

// New selects a segmenter backend by name.
func New(backend string, cfg Config) (Segmenter, error) {
	switch backend {
	case "", "whitespace":
		return Whitespace{}, nil
	case "dict":
		return NewDict(cfg), nil
	case "wordpiece":
		return NewWordPiece(cfg.VocabPath)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrUnsupported, backend)
	}
}
