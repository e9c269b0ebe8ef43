// Package tokenizer provides BPE token budgeting for OpenAI models.
package tokenizer

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// DefaultEncoding is used for models tiktoken does not know.
const DefaultEncoding = "cl100k_base"

// DefaultMaxTokens is used for models missing from ModelMaxTokens.
const DefaultMaxTokens = 2048

// ModelMaxTokens maps known models to their maximum input tokens.
var ModelMaxTokens = map[string]int{
	"text-embedding-ada-002":      8191,
	"text-embedding-3-small":      8191,
	"text-embedding-3-large":      8191,
	"text-similarity-ada-001":     2046,
	"text-search-ada-doc-001":     2046,
	"text-search-ada-query-001":   2046,
	"text-similarity-babbage-001": 2046,
	"text-similarity-curie-001":   2046,
	"text-similarity-davinci-001": 2046,
}

func init() {
	// Ranks ship with the binary; nothing is fetched at runtime.
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Tokenizer counts and splits text by model tokens.
type Tokenizer interface {
	CountTokens(text string) int
	MaxTokens() int
	Chunk(text string, maxTokens int) []string
}

// Tiktoken is a Tokenizer backed by the model's BPE encoding.
type Tiktoken struct {
	enc       *tiktoken.Tiktoken
	maxTokens int
}

// New returns a tokenizer for model. A non-positive maxTokens falls back to
// the table entry for model, then DefaultMaxTokens.
func New(model string, maxTokens int) (*Tiktoken, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(DefaultEncoding)
		if err != nil {
			return nil, fmt.Errorf("load %s encoding: %w", DefaultEncoding, err)
		}
	}

	if maxTokens <= 0 {
		maxTokens = ModelMaxTokens[model]
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Tiktoken{enc: enc, maxTokens: maxTokens}, nil
}

func (t *Tiktoken) encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// CountTokens returns the number of tokens in text.
func (t *Tiktoken) CountTokens(text string) int {
	return len(t.encode(text))
}

// MaxTokens returns the model's input budget.
func (t *Tiktoken) MaxTokens() int {
	return t.maxTokens
}

// Chunk splits text into pieces of at most maxTokens tokens each. Cuts fall
// on token boundaries that are also rune boundaries, so joining the chunks
// gives back text byte for byte. A non-positive maxTokens uses MaxTokens.
func (t *Tiktoken) Chunk(text string, maxTokens int) []string {
	if maxTokens <= 0 {
		maxTokens = t.maxTokens
	}
	tokens := t.encode(text)
	if len(tokens) <= maxTokens {
		return []string{text}
	}

	// offsets[i] is the byte position in text where token i starts.
	offsets := make([]int, len(tokens)+1)
	for i, tok := range tokens {
		offsets[i+1] = offsets[i] + len(t.enc.Decode([]int{tok}))
	}
	if offsets[len(tokens)] != len(text) {
		// Decoding was lossy; fall back to rune windows sized by the budget.
		return chunkRunes(text, maxTokens)
	}

	atRune := func(i int) bool {
		return i == len(tokens) || utf8.RuneStart(text[offsets[i]])
	}

	var chunks []string
	for start := 0; start < len(tokens); {
		end := min(start+maxTokens, len(tokens))
		for end > start+1 && !atRune(end) {
			end--
		}
		// A single token ending mid-rune; extend to the next rune start.
		for !atRune(end) {
			end++
		}
		chunks = append(chunks, text[offsets[start]:offsets[end]])
		start = end
	}
	return chunks
}

func chunkRunes(text string, n int) []string {
	var chunks []string
	for len(text) > 0 {
		i, count := 0, 0
		for i < len(text) && count < n {
			_, size := utf8.DecodeRuneInString(text[i:])
			i += size
			count++
		}
		chunks = append(chunks, text[:i])
		text = text[i:]
	}
	return chunks
}
