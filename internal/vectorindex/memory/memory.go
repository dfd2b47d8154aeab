package memory

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/AdelinaPatlatii/SmartLibrarian/internal/embedding"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/vectorindex"
)

// Index is an in-memory vector index using brute-force cosine similarity.
// Queries that embed to the zero vector (out-of-vocabulary input with a local
// embedder) fall back to lexical overlap scoring so the search still answers.
type Index struct {
	emb embedding.Embedder

	mu      sync.RWMutex
	vectors [][]float64
	docs    []vectorindex.Document
}

var _ vectorindex.Index = (*Index)(nil)

func New(emb embedding.Embedder) *Index {
	return &Index{emb: emb}
}

func (s *Index) Add(ctx context.Context, docs []vectorindex.Document) error {
	vecs, err := vectorindex.EmbedAll(ctx, s.emb, docs)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.vectors) > 0 {
		dim := len(s.vectors[0])
		for _, v := range vecs {
			if len(v) != dim {
				return errors.New("vector dimension mismatch")
			}
		}
	}
	s.docs = append(s.docs, docs...)
	s.vectors = append(s.vectors, vecs...)
	return nil
}

func (s *Index) Query(ctx context.Context, text string, topK int) ([]vectorindex.Hit, error) {
	if topK <= 0 {
		topK = 5
	}
	vec, err := s.emb.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if isZero(vec) {
		return s.lexical(text, topK), nil
	}
	// cosine similarity; stored and query vectors are L2-normalized
	scores := make([]float64, len(s.vectors))
	allZero := true
	for i := range s.vectors {
		scores[i] = dot(s.vectors[i], vec)
		if scores[i] > 1e-9 {
			allZero = false
		}
	}
	if allZero {
		return s.lexical(text, topK), nil
	}
	return s.rank(scores, topK), nil
}

func (s *Index) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}

func (s *Index) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = nil
	s.docs = nil
	return nil
}

// rank converts similarity scores into hits ordered by ascending distance.
func (s *Index) rank(scores []float64, topK int) []vectorindex.Hit {
	idxs := make([]int, len(scores))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })
	if topK > len(idxs) {
		topK = len(idxs)
	}
	hits := make([]vectorindex.Hit, 0, topK)
	for _, j := range idxs[:topK] {
		hits = append(hits, vectorindex.Hit{
			ID:       s.docs[j].ID,
			Document: s.docs[j].Text,
			Metadata: s.docs[j].Metadata,
			Distance: 1 - scores[j],
		})
	}
	return hits
}

// lexical scores documents by token-set overlap (Ochiai coefficient) and
// maps the overlap onto the same distance scale as the cosine path.
func (s *Index) lexical(query string, topK int) []vectorindex.Hit {
	qset := tokenSet(query)
	scores := make([]float64, len(s.docs))
	for i, d := range s.docs {
		scores[i] = overlapOchiai(qset, d.Text)
	}
	return s.rank(scores, topK)
}

var wordPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

func tokenSet(s string) map[string]struct{} {
	tokens := wordPattern.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// overlapOchiai is |A∩B| / sqrt(|A|*|B|) over unique tokens.
func overlapOchiai(qset map[string]struct{}, text string) float64 {
	if len(qset) == 0 {
		return 0
	}
	seen := tokenSet(text)
	if len(seen) == 0 {
		return 0
	}
	inter := 0
	for t := range seen {
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(qset))*float64(len(seen)))
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func isZero(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
