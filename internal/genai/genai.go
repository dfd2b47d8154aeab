package genai

import "context"

// Chat roles understood by the completion backends.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one chat turn. ToolCalls is set on assistant turns that request
// a tool; ToolCallID links a tool-result turn to the request it answers.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolCall is a backend request to invoke a named tool. Arguments is the raw
// JSON object produced by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolDef describes one callable tool offered to the backend. Parameters is
// a JSON schema object.
type ToolDef struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is a single generation call.
type Request struct {
	Messages []Message
	Tools    []ToolDef
}

// Completion is the backend's reply: generated text plus at most one tool
// call. When the model asks for several tools, only the first is kept.
type Completion struct {
	Text     string
	ToolCall *ToolCall
}

// Completer is the generation port.
type Completer interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}
