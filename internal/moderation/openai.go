package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"
)

// classifierInstructions tells the model how to judge a message. The output
// shape is forced separately through a strict JSON schema.
const classifierInstructions = "Determine if the user input violates any of these categories: " +
	"violence, sexual, self_harm, offensive. " +
	"The 'offensive' category includes profanity, slurs, hate/harassment, " +
	"demeaning insults, or otherwise abusive/derogatory language. " +
	"If violating, set is_violating=true, provide the best-fitting category " +
	"and a brief explanation. If not, set is_violating=false."

// OpenAIClassifier asks an OpenAI-compatible chat model for a compliance
// verdict, constrained to the verdict schema via structured outputs.
type OpenAIClassifier struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// OpenAIConfig configures the classifier. The API key is read from the
// environment variable named by APIKeyEnv.
type OpenAIConfig struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

var _ Classifier = (*OpenAIClassifier)(nil)

func NewOpenAIClassifier(cfg OpenAIConfig) (*OpenAIClassifier, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-2024-08-06"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	return &OpenAIClassifier{
		baseURL: cfg.BaseURL,
		apiKey:  key,
		model:   cfg.Model,
		client:  &http.Client{Timeout: t},
	}, nil
}

func verdictSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"is_violating": map[string]any{"type": "boolean"},
			"category": map[string]any{
				"type": []string{"string", "null"},
				"enum": []string{"violence", "sexual", "self_harm", "offensive"},
			},
			"explanation_if_violating": map[string]any{
				"type": []string{"string", "null"},
			},
		},
		"required":             []string{"is_violating", "category", "explanation_if_violating"},
		"additionalProperties": false,
	}
}

// Classify sends the message for classification and parses the verdict.
func (c *OpenAIClassifier) Classify(ctx context.Context, message string) (Verdict, error) {
	body := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": classifierInstructions},
			{"role": "user", "content": message},
		},
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "content_compliance",
				"strict": true,
				"schema": verdictSchema(),
			},
		},
	}
	data, err := json.Marshal(body)
	if err != nil {
		return Verdict{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return Verdict{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return Verdict{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return Verdict{}, fmt.Errorf("moderation request failed: %s", resp.Status)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
				Refusal string `json:"refusal"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Verdict{}, fmt.Errorf("decode moderation response: %w", err)
	}
	if len(out.Choices) == 0 {
		return Verdict{}, errors.New("moderation response has no choices")
	}
	if out.Choices[0].Message.Refusal != "" {
		return Verdict{}, fmt.Errorf("model refused to classify: %s", out.Choices[0].Message.Refusal)
	}

	var parsed struct {
		IsViolating bool    `json:"is_violating"`
		Category    *string `json:"category"`
		Explanation *string `json:"explanation_if_violating"`
	}
	if err := json.Unmarshal([]byte(out.Choices[0].Message.Content), &parsed); err != nil {
		return Verdict{}, fmt.Errorf("decode verdict: %w", err)
	}
	verdict := Verdict{Violating: parsed.IsViolating}
	if parsed.IsViolating {
		if parsed.Category != nil {
			verdict.Category = Category(*parsed.Category)
		}
		if parsed.Explanation != nil {
			verdict.Explanation = *parsed.Explanation
		}
	}
	return verdict, nil
}
