package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdelinaPatlatii/SmartLibrarian/internal/chunker"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/domain"
)

type fakeIndex struct {
	count int
	added []Document
}

func (f *fakeIndex) Add(ctx context.Context, docs []Document) error {
	f.added = append(f.added, docs...)
	return nil
}
func (f *fakeIndex) Query(ctx context.Context, text string, topK int) ([]Hit, error) {
	return nil, nil
}
func (f *fakeIndex) Count(ctx context.Context) (int, error) { return f.count, nil }
func (f *fakeIndex) Clear(ctx context.Context) error        { f.added = nil; return nil }

type fakeEmbedder struct {
	prepared []string
}

func (f *fakeEmbedder) Name() string { return "fake" }
func (f *fakeEmbedder) Prepare(corpus []string) error {
	f.prepared = corpus
	return nil
}
func (f *fakeEmbedder) Dimension() int { return 1 }
func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return []float64{float64(len(text))}, nil
}

func TestBuildDocumentsWholeBooks(t *testing.T) {
	books := []domain.Book{
		{Title: "The Hobbit", Summary: "O poveste plină de aventuri."},
		{Title: "1984", Summary: "O poveste distopică."},
	}
	docs := BuildDocuments(books, nil)
	require.Len(t, docs, 2)
	assert.Equal(t, "The Hobbit", docs[0].ID)
	assert.Equal(t, "O poveste plină de aventuri.", docs[0].Text)
	assert.Equal(t, "The Hobbit", docs[0].Metadata["title"])
	assert.Equal(t, "1984", docs[1].ID)
}

func TestBuildDocumentsChunked(t *testing.T) {
	books := []domain.Book{
		{Title: "Don Quixote", Summary: "Prima. A doua. A treia."},
	}
	docs := BuildDocuments(books, chunker.NewSentenceChunker(2, 0))
	require.Len(t, docs, 2)
	assert.Equal(t, "Don Quixote#0", docs[0].ID)
	assert.Equal(t, "Prima. A doua.", docs[0].Text)
	assert.Equal(t, "Don Quixote", docs[0].Metadata["title"])
	assert.Equal(t, "0", docs[0].Metadata["chunk"])
	assert.Equal(t, "Don Quixote#1", docs[1].ID)
	assert.Equal(t, "A treia.", docs[1].Text)
}

func TestEnsureSeededAddsWhenEmpty(t *testing.T) {
	idx := &fakeIndex{}
	emb := &fakeEmbedder{}
	docs := BuildDocuments([]domain.Book{{Title: "Jane Eyre", Summary: "Drumul unei fete orfane."}}, nil)

	added, err := EnsureSeeded(context.Background(), idx, emb, docs)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Len(t, idx.added, 1)
	assert.Equal(t, []string{"Drumul unei fete orfane."}, emb.prepared)
}

func TestEnsureSeededSkipsWhenPopulated(t *testing.T) {
	idx := &fakeIndex{count: 7}
	emb := &fakeEmbedder{}
	docs := BuildDocuments([]domain.Book{{Title: "Jane Eyre", Summary: "Drumul unei fete orfane."}}, nil)

	added, err := EnsureSeeded(context.Background(), idx, emb, docs)
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Empty(t, idx.added)
	// the embedder is still prepared so queries can embed consistently
	assert.NotEmpty(t, emb.prepared)
}

func TestEmbedAllPreservesOrder(t *testing.T) {
	docs := []Document{
		{ID: "a", Text: "x"},
		{ID: "b", Text: "xxx"},
		{ID: "c", Text: "xx"},
	}
	vecs, err := EmbedAll(context.Background(), &fakeEmbedder{}, docs)
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, []float64{1}, vecs[0])
	assert.Equal(t, []float64{3}, vecs[1])
	assert.Equal(t, []float64{2}, vecs[2])
}
