package media

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesize(t *testing.T) {
	audio := []byte{0x49, 0x44, 0x33, 0x04, 0x00}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/audio/speech", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini-tts", req["model"])
		assert.Equal(t, "alloy", req["voice"])
		assert.Equal(t, "Îți recomand The Hobbit.", req["input"])
		assert.Equal(t, "mp3", req["response_format"])

		_, _ = w.Write(audio)
	}))
	defer srv.Close()

	t.Setenv("TEST_OPENAI_KEY", "sk-test")
	c, err := NewSpeechClient(SpeechConfig{BaseURL: srv.URL, APIKeyEnv: "TEST_OPENAI_KEY"})
	require.NoError(t, err)
	assert.Equal(t, "mp3", c.Format())

	got, err := c.Synthesize(context.Background(), "Îți recomand The Hobbit.")
	require.NoError(t, err)
	assert.Equal(t, audio, got)
}

func TestSynthesizeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	t.Setenv("TEST_OPENAI_KEY", "sk-test")
	c, err := NewSpeechClient(SpeechConfig{BaseURL: srv.URL, APIKeyEnv: "TEST_OPENAI_KEY"})
	require.NoError(t, err)

	_, err = c.Synthesize(context.Background(), "text")
	require.Error(t, err)
}

func TestNewSpeechClientMissingKey(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "")
	_, err := NewSpeechClient(SpeechConfig{APIKeyEnv: "TEST_OPENAI_KEY"})
	require.Error(t, err)
}
