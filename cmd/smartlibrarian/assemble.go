package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AdelinaPatlatii/SmartLibrarian/internal/chunker"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/config"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/corpus"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/embedding"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/genai"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/jobs"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/librarian"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/media"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/moderation"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/recommend"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/retrieval"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/summarizer"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/vectorindex"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/vectorindex/memory"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/vectorindex/qdrant"
)

// bookIndex bundles the loaded corpus with the vector index built for it.
// The index command stops here; the chat front ends assemble the rest of the
// pipeline on top with buildAssistant.
type bookIndex struct {
	library *corpus.Library
	digest  string
	emb     embedding.Embedder
	index   vectorindex.Index
	docs    []vectorindex.Document
}

func buildBookIndex(cfg *config.AppConfig) (*bookIndex, error) {
	library, err := corpus.LoadFile(cfg.Corpus.Path)
	if err != nil {
		return nil, err
	}
	if library.Len() == 0 {
		return nil, fmt.Errorf("no books found in %s", cfg.Corpus.Path)
	}

	emb, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	index, err := buildIndex(cfg, emb)
	if err != nil {
		return nil, err
	}

	var split *chunker.SentenceChunker
	if cfg.Index.ChunkSentences > 0 {
		split = chunker.NewSentenceChunker(cfg.Index.ChunkSentences, cfg.Index.ChunkOverlap)
	}

	digest := ""
	if cfg.Corpus.DigestSentences > 0 {
		var all strings.Builder
		for _, b := range library.Books() {
			all.WriteString(b.Summary)
			all.WriteString("\n")
		}
		digest, err = summarizer.NewFrequencySummarizer().Summarize(all.String(), cfg.Corpus.DigestSentences)
		if err != nil {
			return nil, fmt.Errorf("digest corpus: %w", err)
		}
	}

	return &bookIndex{
		library: library,
		digest:  digest,
		emb:     emb,
		index:   index,
		docs:    vectorindex.BuildDocuments(library.Books(), split),
	}, nil
}

func buildEmbedder(cfg *config.AppConfig) (embedding.Embedder, error) {
	switch cfg.Embedder.Type {
	case "tfidf":
		return embedding.NewTFIDFEmbedder(), nil
	case "openai":
		return embedding.NewOpenAIClient(embedding.OpenAIConfig{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.Model,
			Timeout:   seconds(cfg.Embedder.TimeoutSecs),
		})
	default:
		return nil, fmt.Errorf("unknown embedder type %q", cfg.Embedder.Type)
	}
}

func buildIndex(cfg *config.AppConfig, emb embedding.Embedder) (vectorindex.Index, error) {
	switch cfg.Index.Type {
	case "memory":
		return memory.New(emb), nil
	case "qdrant":
		q := cfg.Index.Qdrant
		if q == nil {
			return nil, errors.New("qdrant index selected but not configured")
		}
		return qdrant.New(qdrant.Config{
			URL:        q.URL,
			APIKey:     q.APIKey,
			Collection: q.Collection,
			Timeout:    seconds(q.TimeoutSecs),
		}, emb), nil
	default:
		return nil, fmt.Errorf("unknown index type %q", cfg.Index.Type)
	}
}

// buildAssistant assembles the full pipeline: corpus and index, moderation
// gate, retriever, recommender, media backends and the job dispatcher. The
// index is seeded here unless the backend already holds points.
func buildAssistant(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*librarian.Assistant, error) {
	core, err := buildBookIndex(cfg)
	if err != nil {
		return nil, err
	}
	added, err := vectorindex.EnsureSeeded(ctx, core.index, core.emb, core.docs)
	if err != nil {
		return nil, err
	}
	logger.Info("corpus loaded",
		zap.Int("books", core.library.Len()),
		zap.Int("indexed", added),
		zap.String("embedder", core.emb.Name()),
		zap.String("index", cfg.Index.Type))

	classifier, err := moderation.NewOpenAIClassifier(moderation.OpenAIConfig{
		BaseURL:   cfg.OpenAI.BaseURL,
		APIKeyEnv: cfg.OpenAI.APIKeyEnv,
		Model:     cfg.Moderation.Model,
		Timeout:   seconds(cfg.Moderation.TimeoutSecs),
	})
	if err != nil {
		return nil, fmt.Errorf("moderation classifier: %w", err)
	}

	completer, err := genai.NewOpenAIClient(genai.OpenAIConfig{
		BaseURL:     cfg.OpenAI.BaseURL,
		APIKeyEnv:   cfg.OpenAI.APIKeyEnv,
		Model:       cfg.Chat.Model,
		Temperature: cfg.Chat.Temperature,
		Timeout:     seconds(cfg.Chat.TimeoutSecs),
	})
	if err != nil {
		return nil, fmt.Errorf("chat backend: %w", err)
	}
	var useTools bool
	switch cfg.Chat.Mode {
	case "tools":
		useTools = true
	case "direct":
	default:
		return nil, fmt.Errorf("unknown chat mode %q", cfg.Chat.Mode)
	}

	speech, err := media.NewSpeechClient(media.SpeechConfig{
		BaseURL:   cfg.OpenAI.BaseURL,
		APIKeyEnv: cfg.OpenAI.APIKeyEnv,
		Model:     cfg.Media.Speech.Model,
		Voice:     cfg.Media.Speech.Voice,
		Format:    cfg.Media.Speech.Format,
		Timeout:   seconds(cfg.Media.JobTimeoutSecs),
	})
	if err != nil {
		return nil, fmt.Errorf("speech backend: %w", err)
	}
	images, err := media.NewImageClient(media.ImageConfig{
		BaseURL:   cfg.OpenAI.BaseURL,
		APIKeyEnv: cfg.OpenAI.APIKeyEnv,
		Model:     cfg.Media.Image.Model,
		Size:      cfg.Media.Image.Size,
		Timeout:   seconds(cfg.Media.JobTimeoutSecs),
	})
	if err != nil {
		return nil, fmt.Errorf("image backend: %w", err)
	}
	transcriber, err := media.NewTranscriptionClient(media.TranscriptionConfig{
		BaseURL:   cfg.OpenAI.BaseURL,
		APIKeyEnv: cfg.OpenAI.APIKeyEnv,
		Model:     cfg.Media.Transcription.Model,
		Timeout:   seconds(cfg.Media.JobTimeoutSecs),
	})
	if err != nil {
		return nil, fmt.Errorf("transcription backend: %w", err)
	}

	return librarian.New(librarian.Deps{
		Gate:        moderation.NewGate(classifier, logger),
		Retriever:   retrieval.New(core.index, cfg.Retrieval.TopK, cfg.Retrieval.SnippetMaxLen, logger),
		Recommender: recommend.New(completer, core.library, useTools, logger),
		Dispatcher:  jobs.NewDispatcher(speech, images, cfg.Media.Dir, seconds(cfg.Media.JobTimeoutSecs), logger),
		Transcriber: transcriber,
		Library:     core.library,
		Digest:      core.digest,
		Logger:      logger,
	}), nil
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }
