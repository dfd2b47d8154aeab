// Package librarian is the service boundary front ends talk to: one Chat
// call runs the whole moderation, retrieval and recommendation chain, and
// media side effects are dispatched without blocking the answer.
package librarian

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/AdelinaPatlatii/SmartLibrarian/internal/corpus"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/domain"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/jobs"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/media"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/moderation"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/recommend"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/retrieval"
)

// Reply is the outcome of one chat turn. When Blocked is set the query was
// rejected by moderation and Answer carries the fixed warning; otherwise
// Answer is the narrative plus the full summary of the resolved book.
type Reply struct {
	Answer    string
	Blocked   bool
	Narrative string
	Title     string
	Summary   string
}

// Deps are the assembled pipeline stages. Transcriber and Dispatcher are
// optional; the corresponding operations report themselves unavailable.
type Deps struct {
	Gate        *moderation.Gate
	Retriever   *retrieval.Retriever
	Recommender *recommend.Recommender
	Dispatcher  *jobs.Dispatcher
	Transcriber media.Transcriber
	Library     *corpus.Library
	Digest      string
	Logger      *zap.Logger
}

type Assistant struct {
	gate        *moderation.Gate
	retriever   *retrieval.Retriever
	recommender *recommend.Recommender
	dispatcher  *jobs.Dispatcher
	transcriber media.Transcriber
	library     *corpus.Library
	digest      string
	logger      *zap.Logger
}

func New(deps Deps) *Assistant {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{
		gate:        deps.Gate,
		retriever:   deps.Retriever,
		recommender: deps.Recommender,
		dispatcher:  deps.Dispatcher,
		transcriber: deps.Transcriber,
		library:     deps.Library,
		digest:      deps.Digest,
		logger:      logger,
	}
}

// Chat answers one user query: moderation first, then retrieval, then a
// single recommendation round. A violating query short-circuits before any
// retrieval or generation work.
func (a *Assistant) Chat(ctx context.Context, query string) (Reply, error) {
	verdict, err := a.gate.Check(ctx, query)
	if err != nil {
		return Reply{}, err
	}
	if verdict.Violating {
		a.logger.Info("query rejected by moderation", zap.String("category", string(verdict.Category)))
		return Reply{Answer: moderation.Warning, Blocked: true}, nil
	}

	candidates, err := a.retriever.Retrieve(ctx, query)
	if err != nil {
		return Reply{}, err
	}
	result, err := a.recommender.Recommend(ctx, query, candidates)
	if err != nil {
		return Reply{}, err
	}
	return Reply{
		Answer:    composeAnswer(result),
		Narrative: result.Narrative,
		Title:     result.Title,
		Summary:   result.Summary,
	}, nil
}

func composeAnswer(res recommend.Result) string {
	if res.Title == "" || res.Summary == "" {
		return res.Narrative
	}
	return fmt.Sprintf("%s\n\nRezumat complet pentru „%s”:\n%s", res.Narrative, res.Title, res.Summary)
}

// DispatchSpeech narrates text in the background. The audio file lands in
// the media directory under a name derived from title.
func (a *Assistant) DispatchSpeech(text, title string) {
	if a.dispatcher == nil {
		a.logger.Warn("speech requested but no dispatcher configured")
		return
	}
	a.dispatcher.Dispatch(jobs.KindSpeech, title, text)
}

// DispatchImage renders a cover illustration for the book in the background.
func (a *Assistant) DispatchImage(title, summary string) {
	if a.dispatcher == nil {
		a.logger.Warn("image requested but no dispatcher configured")
		return
	}
	a.dispatcher.Dispatch(jobs.KindImage, title, summary)
}

// Transcribe converts recorded audio to text so it can be fed back into Chat.
func (a *Assistant) Transcribe(ctx context.Context, audio io.Reader, filename, language string) (string, error) {
	if a.transcriber == nil {
		return "", errors.New("no transcription backend configured")
	}
	return a.transcriber.Transcribe(ctx, audio, filename, language)
}

// Drain waits for in-flight media jobs, bounded by ctx.
func (a *Assistant) Drain(ctx context.Context) error {
	if a.dispatcher == nil {
		return nil
	}
	return a.dispatcher.Drain(ctx)
}

// Books lists the loaded corpus in file order.
func (a *Assistant) Books() []domain.Book { return a.library.Books() }

// SummaryByTitle exposes the canonical summary lookup to front ends.
func (a *Assistant) SummaryByTitle(title string) (string, bool) {
	return a.library.SummaryByTitle(title)
}

// Digest is the one-paragraph corpus overview computed at startup; empty
// when digesting was disabled.
func (a *Assistant) Digest() string { return a.digest }
