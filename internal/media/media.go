// Package media generates speech audio and cover illustrations for
// recommended books through OpenAI-compatible endpoints, and transcribes
// user audio back to text.
package media

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Synthesizer converts narrative text to audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// ImageGenerator renders an illustration for a prompt.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Transcriber converts spoken audio to text. The filename carries the
// format extension; language is an optional ISO-639-1 hint.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename, language string) (string, error)
}

var fileNameReplacer = strings.NewReplacer(" ", "_", "/", "_", "\\", "_")

// SafeName derives the on-disk base name for a title: trimmed, lowercased,
// with spaces and slashes replaced by underscores. Deterministic, so a
// regenerated cover or narration overwrites the previous one.
func SafeName(title string) string {
	return strings.ToLower(fileNameReplacer.Replace(strings.TrimSpace(title)))
}

// BuildCoverPrompt renders the fixed cover-illustration prompt for a book.
func BuildCoverPrompt(title, summary string) string {
	return fmt.Sprintf(
		"Ilustrație reprezentativă pentru cartea „%s”. "+
			"Teme și elemente-cheie: %s "+
			"Imagine clară, expresivă, potrivită ca o copertă modernă. "+
			"Fără text pe imagine, focalizare compozițională bună.",
		title, summary)
}
