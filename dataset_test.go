package ragmark

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQADatasetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qa.json")
	items := []QAItem{
		{Question: "q1", GroundTruth: "g1", GroundTruthSource: "https://example.com/a", Category: CategoryFactual},
		{Question: "q2", GroundTruth: "g2", GroundTruthSource: "https://example.com/b", Category: CategoryMultiHop},
	}

	require.NoError(t, SaveQADataset(path, items))

	loaded, err := LoadQADataset(path)
	require.NoError(t, err)
	assert.Equal(t, items, loaded)
}

func TestLoadQADatasetMissingFile(t *testing.T) {
	_, err := LoadQADataset(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoadCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	payload := `[
		{"chunk_id": "1", "text": "first chunk", "url": "https://example.com/doc"},
		{"chunk_id": "2", "text": "second chunk", "url": "https://example.com/doc"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	docs, err := LoadCorpus(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "first chunk", docs[0].Content)
	assert.Equal(t, "https://example.com/doc", docs[0].SourceID)
}

func TestLoadCorpusRejectsEmptyText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"chunk_id": "1", "text": ""}]`), 0o644))

	_, err := LoadCorpus(path)
	assert.Error(t, err)
}
