package chunker

import (
	"regexp"
	"strings"
)

// Chunk is one sentence-window slice of a source text. SourceID is the
// identity of the text it was cut from (a book title in this application).
type Chunk struct {
	SourceID string
	Text     string
	Index    int
}

// SentenceChunker splits text into sentence-based chunks with overlap.
// It controls the granularity of what gets embedded into the vector index.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
	splitter          *regexp.Regexp
}

func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
		splitter:          regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

// Split cuts text into chunks. Text without sentence boundaries becomes a
// single chunk; empty text yields none.
func (c *SentenceChunker) Split(sourceID, text string) []Chunk {
	sentences := c.splitter.FindAllString(text, -1)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		sentences = []string{trimmed}
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}
	var chunks []Chunk
	i := 0
	idx := 0
	for i < len(sentences) {
		end := i + c.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		chunks = append(chunks, Chunk{
			SourceID: sourceID,
			Text:     strings.Join(sentences[i:end], " "),
			Index:    idx,
		})
		if end == len(sentences) {
			break
		}
		i = end - c.overlapSentences
		idx++
	}
	return chunks
}
