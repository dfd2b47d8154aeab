// Package config loads the application configuration from YAML, falling
// back to a default set that runs against the public OpenAI API.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// OpenAIConfig holds the credentials shared by every OpenAI-compatible
// backend. The key itself is never stored in the file, only the name of the
// environment variable that carries it.
type OpenAIConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// CorpusConfig points at the summaries file and controls the startup digest.
type CorpusConfig struct {
	Path            string `yaml:"path"`
	DigestSentences int    `yaml:"digest_sentences"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type        string `yaml:"type"`
	Model       string `yaml:"model,omitempty"`
	TimeoutSecs int    `yaml:"timeout_secs,omitempty"`
}

// IndexConfig selects the vector index. Setting chunk_sentences > 0 splits
// each summary into overlapping sentence windows before indexing; the
// default indexes each summary whole.
type IndexConfig struct {
	Type           string        `yaml:"type"`
	ChunkSentences int           `yaml:"chunk_sentences"`
	ChunkOverlap   int           `yaml:"chunk_overlap"`
	Qdrant         *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector index.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RetrievalConfig bounds the candidate list handed to the recommender.
type RetrievalConfig struct {
	TopK          int `yaml:"top_k"`
	SnippetMaxLen int `yaml:"snippet_max_len"`
}

// ChatConfig configures the recommendation backend. Mode "tools" lets the
// backend request full summaries during generation; "direct" disables that.
type ChatConfig struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	Mode        string  `yaml:"mode"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// ModerationConfig configures the content-policy classifier.
type ModerationConfig struct {
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// SpeechConfig configures text-to-speech generation.
type SpeechConfig struct {
	Model  string `yaml:"model"`
	Voice  string `yaml:"voice"`
	Format string `yaml:"format"`
}

// ImageConfig configures cover illustration generation.
type ImageConfig struct {
	Model string `yaml:"model"`
	Size  string `yaml:"size"`
}

// TranscriptionConfig configures speech-to-text.
type TranscriptionConfig struct {
	Model string `yaml:"model"`
}

// MediaConfig groups the side-effect generators and where their files land.
type MediaConfig struct {
	Dir            string              `yaml:"dir"`
	JobTimeoutSecs int                 `yaml:"job_timeout_secs"`
	Speech         SpeechConfig        `yaml:"speech"`
	Image          ImageConfig         `yaml:"image"`
	Transcription  TranscriptionConfig `yaml:"transcription"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Address     string   `yaml:"address"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Index      IndexConfig      `yaml:"index"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Chat       ChatConfig       `yaml:"chat"`
	Moderation ModerationConfig `yaml:"moderation"`
	Media      MediaConfig      `yaml:"media"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then the user config directory.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath := DefaultUserConfigPath()
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultUserConfigPath is where LoadDefault looks for, and writes, the
// per-user configuration.
func DefaultUserConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "smartlibrarian", "config.yaml")
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Corpus:   CorpusConfig{Path: "books_summaries.txt", DigestSentences: 3},
		Embedder: EmbedderConfig{Type: "openai"},
		Index:    IndexConfig{Type: "memory"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.OpenAI.APIKeyEnv == "" {
		cfg.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Corpus.Path == "" {
		cfg.Corpus.Path = "books_summaries.txt"
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "openai"
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.Model == "" {
			cfg.Embedder.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.TimeoutSecs == 0 {
			cfg.Embedder.TimeoutSecs = 30
		}
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = "memory"
	}
	if cfg.Index.ChunkSentences > 0 && cfg.Index.ChunkOverlap == 0 {
		cfg.Index.ChunkOverlap = 1
	}
	if cfg.Index.Type == "qdrant" {
		if cfg.Index.Qdrant == nil {
			cfg.Index.Qdrant = &QdrantConfig{}
		}
		if cfg.Index.Qdrant.URL == "" {
			cfg.Index.Qdrant.URL = "http://localhost:6333"
		}
		if cfg.Index.Qdrant.Collection == "" {
			cfg.Index.Qdrant.Collection = "books"
		}
		if cfg.Index.Qdrant.TimeoutSecs == 0 {
			cfg.Index.Qdrant.TimeoutSecs = 15
		}
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.SnippetMaxLen == 0 {
		cfg.Retrieval.SnippetMaxLen = 220
	}
	if cfg.Chat.Model == "" {
		cfg.Chat.Model = "gpt-4o-mini"
	}
	if cfg.Chat.Temperature == 0 {
		cfg.Chat.Temperature = 0.7
	}
	if cfg.Chat.Mode == "" {
		cfg.Chat.Mode = "tools"
	}
	if cfg.Chat.TimeoutSecs == 0 {
		cfg.Chat.TimeoutSecs = 60
	}
	if cfg.Moderation.Model == "" {
		cfg.Moderation.Model = "gpt-4o-2024-08-06"
	}
	if cfg.Moderation.TimeoutSecs == 0 {
		cfg.Moderation.TimeoutSecs = 30
	}
	if cfg.Media.Dir == "" {
		cfg.Media.Dir = "static"
	}
	if cfg.Media.JobTimeoutSecs == 0 {
		cfg.Media.JobTimeoutSecs = 120
	}
	if cfg.Media.Speech.Model == "" {
		cfg.Media.Speech.Model = "gpt-4o-mini-tts"
	}
	if cfg.Media.Speech.Voice == "" {
		cfg.Media.Speech.Voice = "alloy"
	}
	if cfg.Media.Speech.Format == "" {
		cfg.Media.Speech.Format = "mp3"
	}
	if cfg.Media.Image.Model == "" {
		cfg.Media.Image.Model = "gpt-image-1"
	}
	if cfg.Media.Image.Size == "" {
		cfg.Media.Image.Size = "1024x1024"
	}
	if cfg.Media.Transcription.Model == "" {
		cfg.Media.Transcription.Model = "whisper-1"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":2050"
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
			"http://localhost:2050",
			"http://127.0.0.1:2050",
		}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
