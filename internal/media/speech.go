package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// SpeechConfig configures the text-to-speech client. The API key is read
// from the environment variable named by APIKeyEnv.
type SpeechConfig struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Voice     string
	Format    string
	Timeout   time.Duration
}

// SpeechClient synthesizes narration audio via an OpenAI-compatible
// /audio/speech endpoint.
type SpeechClient struct {
	baseURL string
	apiKey  string
	model   string
	voice   string
	format  string
	client  *http.Client
}

var _ Synthesizer = (*SpeechClient)(nil)

func NewSpeechClient(cfg SpeechConfig) (*SpeechClient, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini-tts"
	}
	if cfg.Voice == "" {
		cfg.Voice = "alloy"
	}
	if cfg.Format == "" {
		cfg.Format = "mp3"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 120 * time.Second
	}
	return &SpeechClient{
		baseURL: cfg.BaseURL,
		apiKey:  key,
		model:   cfg.Model,
		voice:   cfg.Voice,
		format:  cfg.Format,
		client:  &http.Client{Timeout: t},
	}, nil
}

// Format reports the audio container the client produces, e.g. "mp3".
func (c *SpeechClient) Format() string { return c.format }

func (c *SpeechClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(map[string]any{
		"model":           c.model,
		"voice":           c.voice,
		"input":           text,
		"response_format": c.format,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("speech synthesis failed: %s", resp.Status)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read speech audio: %w", err)
	}
	return audio, nil
}
