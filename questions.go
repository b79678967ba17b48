package ragmark

import (
	"context"
	"fmt"
	"strings"

	"github.com/teilomillet/gollm"

	"github.com/teilomillet/ragmark/rag"
)

// categoryInstructions steers question generation toward the reasoning style
// each category is meant to test.
var categoryInstructions = map[QuestionCategory]string{
	CategoryFactual:     "Ask for a specific fact stated directly in the passage.",
	CategoryComparative: "Ask a question that requires comparing two things mentioned in the passage.",
	CategoryInferential: "Ask a question whose answer must be inferred from, not quoted in, the passage.",
	CategoryMultiHop:    "Ask a question that requires combining two separate statements from the passage.",
}

// QuestionGenerator builds QA evaluation datasets from corpus documents with
// a language model.
type QuestionGenerator struct {
	llm gollm.LLM
}

// NewQuestionGenerator wraps a gollm model as a dataset generator.
func NewQuestionGenerator(llm gollm.LLM) *QuestionGenerator {
	return &QuestionGenerator{llm: llm}
}

// Generate produces one question/answer pair of the given category from a
// document. The ground-truth source is the document's own source ID, which
// makes generated items directly usable for retrieval-accuracy metrics.
func (g *QuestionGenerator) Generate(ctx context.Context, doc rag.Document, category QuestionCategory) (QAItem, error) {
	instruction, ok := categoryInstructions[category]
	if !ok {
		return QAItem{}, fmt.Errorf("unknown question category: %s", category)
	}

	prompt := fmt.Sprintf(
		"Read the passage and write one question with its answer.\n%s\n\nPassage:\n%s\n\nReply in exactly this format:\nQuestion: ...\nAnswer: ...",
		instruction, doc.Content,
	)

	response, err := g.llm.Generate(ctx, gollm.NewPrompt(prompt))
	if err != nil {
		return QAItem{}, fmt.Errorf("question generation failed: %w", err)
	}

	question, answer, err := parseQuestionResponse(response)
	if err != nil {
		return QAItem{}, fmt.Errorf("malformed generation for source %s: %w", doc.SourceID, err)
	}

	return QAItem{
		Question:          question,
		GroundTruth:       answer,
		GroundTruthSource: doc.SourceID,
		Category:          category,
	}, nil
}

// GenerateDataset walks the documents round-robin over all categories until
// it has produced count items. Malformed generations are skipped with a
// warning rather than aborting the whole dataset build.
func (g *QuestionGenerator) GenerateDataset(ctx context.Context, docs []rag.Document, count int) ([]QAItem, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("cannot generate questions from an empty corpus")
	}

	maxAttempts := 3 * count
	items := make([]QAItem, 0, count)
	for i := 0; len(items) < count && i < maxAttempts; i++ {
		doc := docs[i%len(docs)]
		category := QuestionCategories[i%len(QuestionCategories)]

		item, err := g.Generate(ctx, doc, category)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			Warn("skipping failed question generation", "source", doc.SourceID, "error", err)
			continue
		}
		items = append(items, item)
	}
	if len(items) < count {
		return items, fmt.Errorf("generated %d of %d requested questions", len(items), count)
	}
	return items, nil
}

func parseQuestionResponse(response string) (string, string, error) {
	var question, answer string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Question:"):
			question = strings.TrimSpace(strings.TrimPrefix(line, "Question:"))
		case strings.HasPrefix(line, "Answer:"):
			answer = strings.TrimSpace(strings.TrimPrefix(line, "Answer:"))
		}
	}
	if question == "" || answer == "" {
		return "", "", fmt.Errorf("response missing Question/Answer lines")
	}
	return question, answer, nil
}
