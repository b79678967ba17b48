package ragmark

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/teilomillet/gollm"
)

// UnknownAnswer is the fixed reply the generator gives when the retrieved
// context does not contain the information needed to answer. Downstream error
// classification relies on matching this exact string.
const UnknownAnswer = "I don't know"

// DefaultContextTokenBudget caps how many tokens of retrieved context are
// packed into the generation prompt.
const DefaultContextTokenBudget = 3000

// Generator produces an answer to a query given retrieved context chunks.
type Generator interface {
	Generate(ctx context.Context, query string, contextChunks []string) (string, error)
}

// LLMGenerator implements Generator on top of a gollm language model. Context
// chunks are packed into the prompt up to a token budget measured with
// tiktoken; chunks beyond the budget are dropped in rank order.
type LLMGenerator struct {
	llm         gollm.LLM
	encoder     *tiktoken.Tiktoken
	tokenBudget int
}

// GeneratorOption configures an LLMGenerator.
type GeneratorOption func(*LLMGenerator)

// WithContextTokenBudget overrides the default context token budget.
func WithContextTokenBudget(budget int) GeneratorOption {
	return func(g *LLMGenerator) {
		if budget > 0 {
			g.tokenBudget = budget
		}
	}
}

// NewLLMGenerator wraps a gollm model as an answer generator.
func NewLLMGenerator(llm gollm.LLM, opts ...GeneratorOption) (*LLMGenerator, error) {
	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}

	g := &LLMGenerator{
		llm:         llm,
		encoder:     encoder,
		tokenBudget: DefaultContextTokenBudget,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate builds a grounded prompt from the context chunks and asks the
// model. The model is instructed to reply with UnknownAnswer when the context
// is insufficient, so hallucination analysis can separate abstention from
// fabrication. A lexical groundedness check replaces answers sharing no
// content words with the context by UnknownAnswer.
func (g *LLMGenerator) Generate(ctx context.Context, query string, contextChunks []string) (string, error) {
	prompt := g.buildPrompt(query, contextChunks)

	response, err := g.llm.Generate(ctx, gollm.NewPrompt(prompt))
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	answer := strings.TrimSpace(response)
	if answer == "" {
		return UnknownAnswer, nil
	}
	if !grounded(answer, contextChunks) {
		Debug("discarding ungrounded answer", "query", query)
		return UnknownAnswer, nil
	}
	return answer, nil
}

// grounded reports whether any content word of the answer (longer than three
// runes) occurs in the context. Abstentions and very short answers pass
// unchecked.
func grounded(answer string, contextChunks []string) bool {
	if strings.Contains(answer, UnknownAnswer) {
		return true
	}
	words := strings.Fields(strings.ToLower(answer))
	if len(words) < 3 {
		return true
	}

	contextText := strings.ToLower(strings.Join(contextChunks, " "))
	for _, word := range words {
		if len(word) > 3 && strings.Contains(contextText, word) {
			return true
		}
	}
	return false
}

func (g *LLMGenerator) buildPrompt(query string, contextChunks []string) string {
	var b strings.Builder
	b.WriteString("Answer the question using only the context below. ")
	b.WriteString("If the context does not contain the information needed, reply exactly: ")
	b.WriteString(UnknownAnswer)
	b.WriteString("\n\nContext:\n")

	budget := g.tokenBudget
	for _, chunk := range contextChunks {
		cost := len(g.encoder.Encode(chunk, nil, nil))
		if cost > budget {
			break
		}
		budget -= cost
		b.WriteString(chunk)
		b.WriteString("\n\n")
	}

	b.WriteString("Question: ")
	b.WriteString(query)
	b.WriteString("\nAnswer:")
	return b.String()
}

// CountTokens reports the token length of a text under the generator's
// tokenizer. Useful for sizing corpora against the context budget.
func (g *LLMGenerator) CountTokens(text string) int {
	return len(g.encoder.Encode(text, nil, nil))
}
