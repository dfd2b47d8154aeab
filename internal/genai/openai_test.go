package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string) *OpenAIClient {
	t.Helper()
	t.Setenv("TEST_OPENAI_KEY", "sk-test")
	c, err := NewOpenAIClient(OpenAIConfig{
		BaseURL:   baseURL,
		APIKeyEnv: "TEST_OPENAI_KEY",
		Timeout:   5 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestCompleteText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		var req struct {
			Model       string        `json:"model"`
			Temperature float64       `json:"temperature"`
			Messages    []wireMessage `json:"messages"`
			Tools       []any         `json:"tools"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		assert.InDelta(t, 0.7, req.Temperature, 1e-9)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, RoleSystem, req.Messages[0].Role)
		assert.Empty(t, req.Tools, "no tools offered, none sent")

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Îți recomand The Hobbit."}}]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(t, srv.URL).Complete(context.Background(), Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "ești un asistent literar"},
			{Role: RoleUser, Content: "vreau o aventură"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Îți recomand The Hobbit.", got.Text)
	assert.Nil(t, got.ToolCall)
}

func TestCompleteMarshalsToolsAndParsesToolCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Tools []struct {
				Type     string `json:"type"`
				Function struct {
					Name       string         `json:"name"`
					Parameters map[string]any `json:"parameters"`
				} `json:"function"`
			} `json:"tools"`
			ToolChoice string `json:"tool_choice"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Tools, 1)
		assert.Equal(t, "function", req.Tools[0].Type)
		assert.Equal(t, "get_full_summary", req.Tools[0].Function.Name)
		assert.Equal(t, "object", req.Tools[0].Function.Parameters["type"])
		assert.Equal(t, "auto", req.ToolChoice)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":null,"tool_calls":[
			{"id":"call_1","type":"function","function":{"name":"get_full_summary","arguments":"{\"title\":\"The Hobbit\"}"}},
			{"id":"call_2","type":"function","function":{"name":"get_full_summary","arguments":"{\"title\":\"1984\"}"}}
		]}}]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(t, srv.URL).Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "x"}},
		Tools: []ToolDef{{
			Name:        "get_full_summary",
			Description: "Return the full summary for an exact book title.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"title": map[string]any{"type": "string"}},
			},
		}},
	})
	require.NoError(t, err)
	assert.Empty(t, got.Text)
	require.NotNil(t, got.ToolCall)
	assert.Equal(t, "call_1", got.ToolCall.ID, "only the first tool call is kept")
	assert.Equal(t, "get_full_summary", got.ToolCall.Name)
	assert.JSONEq(t, `{"title":"The Hobbit"}`, got.ToolCall.Arguments)
}

func TestCompleteRoundTripsToolTurns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []wireMessage `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 4)
		assert.Equal(t, RoleAssistant, req.Messages[2].Role)
		require.Len(t, req.Messages[2].ToolCalls, 1)
		assert.Equal(t, "call_1", req.Messages[2].ToolCalls[0].ID)
		assert.Equal(t, RoleTool, req.Messages[3].Role)
		assert.Equal(t, "call_1", req.Messages[3].ToolCallID)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"final"}}]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(t, srv.URL).Complete(context.Background(), Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "s"},
			{Role: RoleUser, Content: "u"},
			{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "call_1", Name: "get_full_summary", Arguments: `{"title":"X"}`}}},
			{Role: RoleTool, Content: "rezumatul", ToolCallID: "call_1"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "final", got.Text)
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(t, srv.URL).Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCompleteFailsFastOnBadRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "x"}},
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
