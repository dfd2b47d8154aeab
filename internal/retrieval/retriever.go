package retrieval

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/AdelinaPatlatii/SmartLibrarian/internal/domain"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/vectorindex"
)

const (
	defaultTopK       = 5
	defaultSnippetLen = 220
)

// Retriever turns a user query into an ordered list of candidate books by
// querying the semantic index. It never re-ranks: hits keep the index order.
type Retriever struct {
	index      vectorindex.Index
	topK       int
	snippetLen int
	logger     *zap.Logger
}

func New(index vectorindex.Index, topK, snippetLen int, logger *zap.Logger) *Retriever {
	if topK <= 0 {
		topK = defaultTopK
	}
	if snippetLen <= 0 {
		snippetLen = defaultSnippetLen
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{index: index, topK: topK, snippetLen: snippetLen, logger: logger}
}

// Retrieve returns up to topK candidates for the query. The title comes from
// hit metadata and falls back to the hit id; several hits for the same title
// (a chunked index) collapse into the first one. An empty result is a valid
// outcome, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]domain.Candidate, error) {
	hits, err := r.index.Query(ctx, query, r.topK)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	seen := make(map[string]struct{}, len(hits))
	candidates := make([]domain.Candidate, 0, len(hits))
	for _, h := range hits {
		title := h.Metadata["title"]
		if title == "" {
			title = h.ID
		}
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}
		dist := h.Distance
		candidates = append(candidates, domain.Candidate{
			Title:    title,
			Snippet:  snippet(h.Document, r.snippetLen),
			Distance: &dist,
			ID:       h.ID,
		})
	}
	r.logger.Debug("retrieved candidates",
		zap.String("query", query),
		zap.Int("hits", len(hits)),
		zap.Int("candidates", len(candidates)))
	return candidates, nil
}

// snippet builds a compact one-line preview: newlines collapse to spaces and
// text longer than maxLen runes is cut with a trailing "...".
func snippet(text string, maxLen int) string {
	if text == "" {
		return ""
	}
	oneLine := strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	runes := []rune(oneLine)
	if len(runes) <= maxLen {
		return oneLine
	}
	cut := strings.TrimRightFunc(string(runes[:maxLen]), unicode.IsSpace)
	return cut + "..."
}
