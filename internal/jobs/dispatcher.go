// Package jobs runs speech and image generation as fire-and-forget
// background work so the textual answer is never delayed by media calls.
package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AdelinaPatlatii/SmartLibrarian/internal/media"
)

// Kind selects what a dispatched job produces.
type Kind string

const (
	KindSpeech Kind = "speech"
	KindImage  Kind = "image"
)

const defaultJobTimeout = 2 * time.Minute

// OutputName is the media-directory file name a job of this kind writes for
// the given title. Deterministic, so regenerating replaces the old file.
func OutputName(kind Kind, title string) string {
	base := media.SafeName(title)
	if base == "" {
		base = "default"
	}
	if kind == KindImage {
		return base + ".png"
	}
	return base + ".mp3"
}

// Dispatcher launches one goroutine per job. Jobs carry their own detached
// context; failures are logged and never retried, and there is no way to
// cancel a job once dispatched.
type Dispatcher struct {
	speech  media.Synthesizer
	images  media.ImageGenerator
	dir     string
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

func NewDispatcher(speech media.Synthesizer, images media.ImageGenerator, dir string, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	return &Dispatcher{speech: speech, images: images, dir: dir, timeout: timeout, logger: logger}
}

// Dispatch starts the job and returns immediately. For speech jobs text is
// the narration to read aloud; for image jobs it is the book summary the
// cover prompt is built from.
func (d *Dispatcher) Dispatch(kind Kind, title, text string) {
	log := d.logger.With(
		zap.String("job_id", uuid.NewString()),
		zap.String("kind", string(kind)),
		zap.String("title", title),
	)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error("media job panicked", zap.Any("panic", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		path, err := d.run(ctx, kind, title, text)
		if err != nil {
			log.Warn("media job failed", zap.Error(err))
			return
		}
		log.Info("media job finished", zap.String("path", path))
	}()
}

func (d *Dispatcher) run(ctx context.Context, kind Kind, title, text string) (string, error) {
	var data []byte
	var err error
	switch kind {
	case KindSpeech:
		if d.speech == nil {
			return "", fmt.Errorf("no speech backend configured")
		}
		data, err = d.speech.Synthesize(ctx, text)
	case KindImage:
		if d.images == nil {
			return "", fmt.Errorf("no image backend configured")
		}
		data, err = d.images.Generate(ctx, media.BuildCoverPrompt(title, text))
	default:
		return "", fmt.Errorf("unknown job kind %q", kind)
	}
	if err != nil {
		return "", err
	}
	return d.write(OutputName(kind, title), data)
}

func (d *Dispatcher) write(name string, data []byte) (string, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(d.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Drain waits for in-flight jobs until ctx expires. Jobs keep running
// either way; a timeout only stops the wait.
func (d *Dispatcher) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
