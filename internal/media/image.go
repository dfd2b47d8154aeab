package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"
)

// ImageConfig configures the illustration client. The API key is read from
// the environment variable named by APIKeyEnv.
type ImageConfig struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Size      string
	Timeout   time.Duration
}

// ImageClient renders cover illustrations via an OpenAI-compatible
// /images/generations endpoint. The endpoint returns base64 PNG data.
type ImageClient struct {
	baseURL string
	apiKey  string
	model   string
	size    string
	client  *http.Client
}

var _ ImageGenerator = (*ImageClient)(nil)

func NewImageClient(cfg ImageConfig) (*ImageClient, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-image-1"
	}
	if cfg.Size == "" {
		cfg.Size = "1024x1024"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 120 * time.Second
	}
	return &ImageClient{
		baseURL: cfg.BaseURL,
		apiKey:  key,
		model:   cfg.Model,
		size:    cfg.Size,
		client:  &http.Client{Timeout: t},
	}, nil
}

func (c *ImageClient) Generate(ctx context.Context, prompt string) ([]byte, error) {
	body, err := json.Marshal(map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"size":   c.size,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image generation request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("image generation failed: %s", resp.Status)
	}

	var out struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode image response: %w", err)
	}
	if len(out.Data) == 0 || out.Data[0].B64JSON == "" {
		return nil, errors.New("image response has no data")
	}
	img, err := base64.StdEncoding.DecodeString(out.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	return img, nil
}
