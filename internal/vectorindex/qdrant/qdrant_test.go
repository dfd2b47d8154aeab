package qdrant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdelinaPatlatii/SmartLibrarian/internal/vectorindex"
)

type stubEmbedder struct{ vec []float64 }

func (s stubEmbedder) Name() string                  { return "stub" }
func (s stubEmbedder) Prepare(corpus []string) error { return nil }
func (s stubEmbedder) Dimension() int                { return len(s.vec) }
func (s stubEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return s.vec, nil
}

func TestAddCreatesCollectionAndUpserts(t *testing.T) {
	var createBody, upsertBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/books" && r.URL.RawQuery == "":
			createBody, _ = io.ReadAll(r.Body)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/books/points":
			upsertBody, _ = io.ReadAll(r.Body)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
		_, _ = w.Write([]byte(`{"result":{}}`))
	}))
	defer srv.Close()

	idx := New(Config{URL: srv.URL, APIKey: "secret", Collection: "books", Timeout: 5 * time.Second},
		stubEmbedder{vec: []float64{0.1, 0.2}})

	docs := []vectorindex.Document{
		{ID: "The Hobbit", Text: "o poveste plină de aventuri", Metadata: map[string]string{"title": "The Hobbit"}},
	}
	require.NoError(t, idx.Add(context.Background(), docs))

	var create struct {
		Vectors struct {
			Size     int    `json:"size"`
			Distance string `json:"distance"`
		} `json:"vectors"`
	}
	require.NoError(t, json.Unmarshal(createBody, &create))
	assert.Equal(t, 2, create.Vectors.Size)
	assert.Equal(t, "Cosine", create.Vectors.Distance)

	var upsert struct {
		Points []struct {
			ID      string    `json:"id"`
			Vector  []float64 `json:"vector"`
			Payload struct {
				DocID    string            `json:"doc_id"`
				Text     string            `json:"text"`
				Metadata map[string]string `json:"metadata"`
			} `json:"payload"`
		} `json:"points"`
	}
	require.NoError(t, json.Unmarshal(upsertBody, &upsert))
	require.Len(t, upsert.Points, 1)
	p := upsert.Points[0]
	assert.Equal(t, uuid.NewSHA1(pointNamespace, []byte("The Hobbit")).String(), p.ID)
	assert.Equal(t, []float64{0.1, 0.2}, p.Vector)
	assert.Equal(t, "The Hobbit", p.Payload.DocID)
	assert.Equal(t, "o poveste plină de aventuri", p.Payload.Text)
	assert.Equal(t, "The Hobbit", p.Payload.Metadata["title"])
}

func TestQueryConvertsScoreToDistance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/books/points/search", r.URL.Path)
		var req struct {
			Vector      []float64 `json:"vector"`
			Limit       int       `json:"limit"`
			WithPayload bool      `json:"with_payload"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 3, req.Limit)
		assert.True(t, req.WithPayload)
		_, _ = w.Write([]byte(`{"result":[
			{"score":0.92,"payload":{"doc_id":"1984","text":"distopie","metadata":{"title":"1984"}}},
			{"score":0.31,"payload":{"doc_id":"Jane Eyre","text":"guvernantă","metadata":{"title":"Jane Eyre"}}}
		]}`))
	}))
	defer srv.Close()

	idx := New(Config{URL: srv.URL, Collection: "books"}, stubEmbedder{vec: []float64{1}})
	hits, err := idx.Query(context.Background(), "libertate", 3)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "1984", hits[0].ID)
	assert.InDelta(t, 0.08, hits[0].Distance, 1e-9)
	assert.Equal(t, "Jane Eyre", hits[1].Metadata["title"])
	assert.InDelta(t, 0.69, hits[1].Distance, 1e-9)
}

func TestCountMissingCollectionIsZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	idx := New(Config{URL: srv.URL, Collection: "books"}, stubEmbedder{vec: []float64{1}})
	n, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/books/points/count", r.URL.Path)
		_, _ = w.Write([]byte(`{"result":{"count":10}}`))
	}))
	defer srv.Close()

	idx := New(Config{URL: srv.URL, Collection: "books"}, stubEmbedder{vec: []float64{1}})
	n, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}
