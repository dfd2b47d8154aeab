package vectorindex

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/AdelinaPatlatii/SmartLibrarian/internal/chunker"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/domain"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/embedding"
)

// embedConcurrency bounds parallel embedding calls during seeding; remote
// embedders turn every document into a network round-trip.
const embedConcurrency = 4

// BuildDocuments converts books into indexable documents. With a nil chunker
// each book becomes one document identified by its title; otherwise each
// sentence window becomes a document identified as "<title>#<n>". The book
// title always travels in metadata.
func BuildDocuments(books []domain.Book, split *chunker.SentenceChunker) []Document {
	var docs []Document
	for _, b := range books {
		if split == nil {
			docs = append(docs, Document{
				ID:       b.Title,
				Text:     b.Summary,
				Metadata: map[string]string{"title": b.Title},
			})
			continue
		}
		for _, ch := range split.Split(b.Title, b.Summary) {
			docs = append(docs, Document{
				ID:   fmt.Sprintf("%s#%d", b.Title, ch.Index),
				Text: ch.Text,
				Metadata: map[string]string{
					"title": b.Title,
					"chunk": strconv.Itoa(ch.Index),
				},
			})
		}
	}
	return docs
}

// EnsureSeeded prepares the embedder on the document texts and adds them to
// the index unless it already holds points (a persistent backend survives
// restarts). Returns how many documents were added.
func EnsureSeeded(ctx context.Context, idx Index, emb embedding.Embedder, docs []Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	if err := emb.Prepare(texts); err != nil {
		return 0, fmt.Errorf("prepare embedder: %w", err)
	}
	n, err := idx.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count index points: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	if err := idx.Add(ctx, docs); err != nil {
		return 0, fmt.Errorf("seed index: %w", err)
	}
	return len(docs), nil
}

// EmbedAll embeds every document text with bounded concurrency, preserving
// document order.
func EmbedAll(ctx context.Context, emb embedding.Embedder, docs []Document) ([][]float64, error) {
	vecs := make([][]float64, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for i := range docs {
		i := i // per-iteration copy; the go directive predates Go 1.22 loop scoping
		g.Go(func() error {
			v, err := emb.Embed(gctx, docs[i].Text)
			if err != nil {
				return fmt.Errorf("embed %q: %w", docs[i].ID, err)
			}
			vecs[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vecs, nil
}
