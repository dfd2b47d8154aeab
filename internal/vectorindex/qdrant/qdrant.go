package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/AdelinaPatlatii/SmartLibrarian/internal/embedding"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/vectorindex"
)

// pointNamespace makes point ids a pure function of the document id, so
// re-seeding the same corpus overwrites points instead of duplicating them.
var pointNamespace = uuid.MustParse("8a6e0804-2bd0-4672-b79d-d97027f9071a")

// Index is a minimal REST client to Qdrant with the embedding function bound
// at construction. The collection is created on first Add, cosine distance.
type Index struct {
	url        string
	apiKey     string
	collection string
	emb        embedding.Embedder
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

var _ vectorindex.Index = (*Index)(nil)

func New(cfg Config, emb embedding.Embedder) *Index {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "books"
	}
	return &Index{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: collection,
		emb:        emb,
		client:     &http.Client{Timeout: timeout},
	}
}

func (s *Index) Add(ctx context.Context, docs []vectorindex.Document) error {
	if len(docs) == 0 {
		return nil
	}
	vecs, err := vectorindex.EmbedAll(ctx, s.emb, docs)
	if err != nil {
		return err
	}
	if err := s.ensureCollection(ctx, len(vecs[0])); err != nil {
		return err
	}
	points := make([]map[string]any, len(docs))
	for i, d := range docs {
		points[i] = map[string]any{
			"id":     uuid.NewSHA1(pointNamespace, []byte(d.ID)).String(),
			"vector": vecs[i],
			"payload": map[string]any{
				"doc_id":   d.ID,
				"text":     d.Text,
				"metadata": d.Metadata,
			},
		}
	}
	body := map[string]any{"points": points}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body, nil)
}

func (s *Index) Query(ctx context.Context, text string, topK int) ([]vectorindex.Hit, error) {
	if topK <= 0 {
		topK = 5
	}
	vec, err := s.emb.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	req := map[string]any{
		"vector":       vec,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64         `json:"score"`
			Payload json.RawMessage `json:"payload"`
		} `json:"result"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection), req, &resp); err != nil {
		return nil, err
	}
	hits := make([]vectorindex.Hit, 0, len(resp.Result))
	for _, r := range resp.Result {
		var payload struct {
			DocID    string            `json:"doc_id"`
			Text     string            `json:"text"`
			Metadata map[string]string `json:"metadata"`
		}
		if len(r.Payload) > 0 {
			if err := json.Unmarshal(r.Payload, &payload); err != nil {
				return nil, fmt.Errorf("decode qdrant payload: %w", err)
			}
		}
		// qdrant reports cosine similarity; convert to distance
		hits = append(hits, vectorindex.Hit{
			ID:       payload.DocID,
			Document: payload.Text,
			Metadata: payload.Metadata,
			Distance: 1 - r.Score,
		})
	}
	return hits, nil
}

func (s *Index) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/count", s.url, s.collection), map[string]any{"exact": true}, &resp)
	if err != nil {
		// a missing collection simply holds no points yet
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return 0, nil
		}
		return 0, err
	}
	return resp.Result.Count, nil
}

// Clear drops the collection; it is recreated on the next Add.
func (s *Index) Clear(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/collections/%s", s.url, s.collection), nil)
	if err != nil {
		return err
	}
	s.auth(req)
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return &statusError{op: "DELETE", url: req.URL.String(), code: resp.StatusCode, status: resp.Status}
	}
	return nil
}

func (s *Index) ensureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	// 409 means the collection already exists, which is fine
	err := s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body, nil)
	var se *statusError
	if errors.As(err, &se) && se.code == http.StatusConflict {
		return nil
	}
	return err
}

type statusError struct {
	op     string
	url    string
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant %s %s failed: %s", e.op, e.url, e.status)
}

func (s *Index) auth(req *http.Request) {
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
}

func (s *Index) putJSON(ctx context.Context, url string, body, out any) error {
	return s.doJSON(ctx, http.MethodPut, url, body, out)
}

func (s *Index) postJSON(ctx context.Context, url string, body, out any) error {
	return s.doJSON(ctx, http.MethodPost, url, body, out)
}

func (s *Index) doJSON(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	s.auth(req)
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &statusError{op: method, url: url, code: resp.StatusCode, status: resp.Status}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
