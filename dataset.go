package ragmark

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/teilomillet/ragmark/rag"
)

// QAItem is one entry of an evaluation dataset: a question, the reference
// answer, the source document it came from and the reasoning category.
type QAItem struct {
	Question          string           `json:"question"`
	GroundTruth       string           `json:"ground_truth"`
	GroundTruthSource string           `json:"url"`
	Category          QuestionCategory `json:"category"`
}

// LoadQADataset reads a JSON array of QAItems from disk.
func LoadQADataset(path string) ([]QAItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read QA dataset %s: %w", path, err)
	}

	var items []QAItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse QA dataset %s: %w", path, err)
	}
	return items, nil
}

// SaveQADataset writes the items as indented JSON, for generated datasets.
func SaveQADataset(path string, items []QAItem) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode QA dataset: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write QA dataset %s: %w", path, err)
	}
	return nil
}

// LoadCorpus reads a JSON array of pre-chunked corpus documents. Each entry
// carries a chunk ID, the chunk text and the URL of the source document.
func LoadCorpus(path string) ([]rag.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus %s: %w", path, err)
	}

	var docs []rag.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse corpus %s: %w", path, err)
	}

	for i, doc := range docs {
		if doc.Content == "" {
			return nil, fmt.Errorf("corpus %s: document %d has empty text", path, i)
		}
	}
	return docs, nil
}
