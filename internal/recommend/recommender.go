// Package recommend turns a moderated query and its retrieved candidates
// into a single book recommendation backed by the canonical summary store.
package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/AdelinaPatlatii/SmartLibrarian/internal/domain"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/genai"
)

// ErrGeneration marks failures of the generative backend. A failed call is
// surfaced to the caller; no substitute narrative is ever invented.
var ErrGeneration = errors.New("recommendation generation failed")

// FailureNarrative is the reply when the backend asks for a tool this
// orchestrator does not provide. Nothing is executed in that case.
const FailureNarrative = "Îmi pare rău, nu am putut genera o recomandare pentru această cerere."

const (
	toolName = "get_full_summary"

	systemPrompt = "You are a helpful literary assistant. " +
		"Your output MUST be in the same language as the user input in user_query. " +
		"You receive the user's request and a list of candidate books. " +
		"Choose one and explain briefly (2–4 reasons)."
)

// SummaryStore resolves canonical summaries by exact title.
type SummaryStore interface {
	SummaryByTitle(title string) (string, bool)
}

// Result carries the backend narrative untouched plus the resolved choice.
// Title and Summary are empty only when no candidates were passed; otherwise
// Title is always one of the candidates' titles and Summary its stored text.
type Result struct {
	Narrative string
	Title     string
	Summary   string
}

type Recommender struct {
	completer genai.Completer
	library   SummaryStore
	useTools  bool
	logger    *zap.Logger
}

func New(completer genai.Completer, library SummaryStore, useTools bool, logger *zap.Logger) *Recommender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recommender{completer: completer, library: library, useTools: useTools, logger: logger}
}

// Recommend runs one generation round over the candidates. When tools are
// enabled and candidates exist, the backend may request get_full_summary;
// that request is honored at most once, followed by exactly one more
// generation call for the final narrative.
func (r *Recommender) Recommend(ctx context.Context, query string, candidates []domain.Candidate) (Result, error) {
	messages := buildMessages(query, candidates)
	req := genai.Request{Messages: messages}
	offerTools := r.useTools && len(candidates) > 0
	if offerTools {
		req.Tools = []genai.ToolDef{summaryTool()}
	}

	completion, err := r.completer.Complete(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	narrative := completion.Text
	var fetchedTitle, fetchedSummary string
	var fetched bool
	if offerTools && completion.ToolCall != nil {
		call := *completion.ToolCall
		if call.Name != toolName {
			r.logger.Warn("backend requested unsupported tool", zap.String("tool", call.Name))
			narrative = FailureNarrative
		} else {
			title := titleArgument(call.Arguments)
			toolResult, ok := r.library.SummaryByTitle(title)
			if !ok {
				toolResult = fmt.Sprintf("Cartea %s nu există.", title)
			}
			r.logger.Debug("honoring summary tool call",
				zap.String("title", title),
				zap.Bool("found", ok))
			messages = append(messages,
				genai.Message{Role: genai.RoleAssistant, ToolCalls: []genai.ToolCall{call}},
				genai.Message{Role: genai.RoleTool, Content: toolResult, ToolCallID: call.ID},
			)
			followUp, err := r.completer.Complete(ctx, genai.Request{Messages: messages, Tools: req.Tools})
			if err != nil {
				return Result{}, fmt.Errorf("%w: %v", ErrGeneration, err)
			}
			// Only the first tool call per orchestration is honored; a
			// repeat request in the follow-up yields whatever text came
			// with it.
			narrative = followUp.Text
			if ok {
				fetchedTitle, fetchedSummary, fetched = title, toolResult, true
			}
		}
	}

	res := Result{Narrative: narrative}
	res.Title = resolveTitle(narrative, candidates)
	if res.Title == "" {
		return res, nil
	}
	if fetched && fetchedTitle == res.Title {
		res.Summary = fetchedSummary
	} else if summary, ok := r.library.SummaryByTitle(res.Title); ok {
		res.Summary = summary
	}
	return res, nil
}

// resolveTitle picks the recommended candidate from the narrative: the first
// candidate (in retrieval order) whose title occurs case-insensitively in the
// text wins, else the top candidate. Empty candidate list resolves to "".
func resolveTitle(narrative string, candidates []domain.Candidate) string {
	if len(candidates) == 0 {
		return ""
	}
	lower := strings.ToLower(narrative)
	for _, c := range candidates {
		if c.Title != "" && strings.Contains(lower, strings.ToLower(c.Title)) {
			return c.Title
		}
	}
	return candidates[0].Title
}

func buildMessages(query string, candidates []domain.Candidate) []genai.Message {
	lines := make([]string, 0, len(candidates))
	for _, c := range candidates {
		lines = append(lines, fmt.Sprintf("- %s: %s", c.Title, c.Snippet))
	}
	var user strings.Builder
	fmt.Fprintf(&user, "Cerere: %s\n\n", query)
	user.WriteString("Candidați:\n")
	user.WriteString(strings.Join(lines, "\n"))
	user.WriteString("\n\nAlege cea mai potrivită carte și explică pe scurt de ce.")
	return []genai.Message{
		{Role: genai.RoleSystem, Content: systemPrompt},
		{Role: genai.RoleUser, Content: user.String()},
	}
}

func summaryTool() genai.ToolDef {
	return genai.ToolDef{
		Name:        toolName,
		Description: "Return the full summary for an exact book title.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title": map[string]any{
					"type":        "string",
					"description": "Exact book title (e.g., 'The Hobbit').",
				},
			},
			"required":             []string{"title"},
			"additionalProperties": false,
		},
	}
}

func titleArgument(raw string) string {
	var args struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return ""
	}
	return args.Title
}
