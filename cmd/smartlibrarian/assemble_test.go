package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AdelinaPatlatii/SmartLibrarian/internal/config"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/embedding"
)

const testCorpus = `## Title: The Hobbit
O poveste plină de aventuri în care Bilbo Baggins pornește într-o călătorie
neașteptată. Tema principală este prietenia și curajul.

## Title: 1984
O poveste distopică despre o societate supravegheată. Winston caută adevărul
și libertatea. Partidul rescrie trecutul.
`

// offlineConfig is a default config rewired to run without any backend:
// TF-IDF embedder, in-memory index, corpus from a temp file.
func offlineConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "books.txt")
	require.NoError(t, os.WriteFile(path, []byte(testCorpus), 0o644))
	cfg.Corpus.Path = path
	cfg.Embedder.Type = "tfidf"
	cfg.Index.Type = "memory"
	return cfg
}

func TestBuildEmbedderSwitch(t *testing.T) {
	cfg := offlineConfig(t)

	emb, err := buildEmbedder(cfg)
	require.NoError(t, err)
	assert.Equal(t, "tfidf", emb.Name())

	cfg.Embedder.Type = "word2vec"
	_, err = buildEmbedder(cfg)
	assert.ErrorContains(t, err, "unknown embedder type")
}

func TestBuildIndexSwitch(t *testing.T) {
	cfg := offlineConfig(t)
	emb := embedding.NewTFIDFEmbedder()

	idx, err := buildIndex(cfg, emb)
	require.NoError(t, err)
	assert.NotNil(t, idx)

	cfg.Index.Type = "qdrant"
	cfg.Index.Qdrant = nil
	_, err = buildIndex(cfg, emb)
	assert.ErrorContains(t, err, "not configured")

	cfg.Index.Type = "pinecone"
	_, err = buildIndex(cfg, emb)
	assert.ErrorContains(t, err, "unknown index type")
}

func TestBuildBookIndex(t *testing.T) {
	cfg := offlineConfig(t)

	core, err := buildBookIndex(cfg)
	require.NoError(t, err)

	assert.Equal(t, 2, core.library.Len())
	assert.Len(t, core.docs, 2, "one document per book without chunking")
	assert.Equal(t, "The Hobbit", core.docs[0].Metadata["title"])
	assert.NotEmpty(t, core.digest)
}

func TestBuildBookIndexChunked(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Index.ChunkSentences = 1
	cfg.Index.ChunkOverlap = 0

	core, err := buildBookIndex(cfg)
	require.NoError(t, err)
	assert.Greater(t, len(core.docs), 2, "sentence chunks outnumber books")
	assert.Equal(t, "The Hobbit#0", core.docs[0].ID)
}

func TestBuildBookIndexMissingCorpus(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Corpus.Path = filepath.Join(t.TempDir(), "missing.txt")

	_, err := buildBookIndex(cfg)
	require.Error(t, err)
}

func TestBuildAssistantOffline(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	cfg := offlineConfig(t)

	assistant, err := buildAssistant(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	assert.Len(t, assistant.Books(), 2)
	assert.NotEmpty(t, assistant.Digest())
}

func TestBuildAssistantUnknownChatMode(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	cfg := offlineConfig(t)
	cfg.Chat.Mode = "agentic"

	_, err := buildAssistant(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "unknown chat mode")
}
