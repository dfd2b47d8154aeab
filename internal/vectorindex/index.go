package vectorindex

import "context"

// Document is an indexable item: the text that gets embedded, plus identity
// and metadata carried back with every hit.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// Hit is one nearest-neighbor match. Smaller distance = closer.
type Hit struct {
	ID       string
	Document string
	Metadata map[string]string
	Distance float64
}

// Index is the semantic search port. The embedding function is bound at
// construction, so Query embeds the text itself.
type Index interface {
	Add(ctx context.Context, docs []Document) error
	Query(ctx context.Context, text string, topK int) ([]Hit, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}
