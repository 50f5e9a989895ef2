package segment

import "strings"

// Whitespace splits text on whitespace runs. It is the default corpus
// tokenizer and the tokenizer used on the encode side of the embedding
// transformer.
type Whitespace struct{}

func (Whitespace) Cut(text string) ([]string, error) {
	return strings.Fields(text), nil
}
