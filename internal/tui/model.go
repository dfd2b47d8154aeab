// Package tui is the interactive chat front end: a conversation transcript,
// an input line, and key bindings for the media side effects.
package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/AdelinaPatlatii/SmartLibrarian/internal/domain"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/jobs"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/librarian"
)

// Assistant is the TUI-facing subset of the librarian service.
type Assistant interface {
	Chat(ctx context.Context, query string) (librarian.Reply, error)
	DispatchSpeech(text, title string)
	DispatchImage(title, summary string)
	Transcribe(ctx context.Context, audio io.Reader, filename, language string) (string, error)
	Books() []domain.Book
	Digest() string
}

const requestTimeout = 2 * time.Minute

type turn struct {
	you  bool
	text string
}

type replyMsg struct {
	query string
	reply librarian.Reply
	err   error
}

type transcriptMsg struct {
	text string
	err  error
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	assistant Assistant
	input     textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	history   []turn
	lastReply *librarian.Reply
	status    string
	busy      bool
	ready     bool
}

// New creates a new chat model instance.
func New(assistant Assistant) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask for a book recommendation and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = statusStyle
	vp := viewport.New(0, 0)
	return Model{
		assistant: assistant,
		input:     ti,
		viewport:  vp,
		spinner:   sp,
		status:    "Enter to ask. ctrl+s narrates, ctrl+g draws a cover, :stt <file> dictates, esc quits.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and completion events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, qh := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + digest, status, input frame, spacer
		vh := msg.Height - reserved - th
		if vh < 3 {
			vh = 3
		}
		fw, _ := transcriptBoxStyle.GetFrameSize()
		m.viewport.Width = max(20, msg.Width-fw)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			return m.submit()
		case "ctrl+s":
			if m.lastReply != nil {
				m.assistant.DispatchSpeech(m.lastReply.Answer, m.lastReply.Title)
				m.status = fmt.Sprintf("Narration started, writing %s.", jobs.OutputName(jobs.KindSpeech, m.lastReply.Title))
				return m, nil
			}
		case "ctrl+g":
			if m.lastReply != nil && m.lastReply.Title != "" && m.lastReply.Summary != "" {
				m.assistant.DispatchImage(m.lastReply.Title, m.lastReply.Summary)
				m.status = fmt.Sprintf("Cover illustration started for %q.", m.lastReply.Title)
				return m, nil
			}
		case "pgup":
			m.viewport.HalfViewUp()
			return m, nil
		case "pgdown":
			m.viewport.HalfViewDown()
			return m, nil
		}

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case replyMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.history = append(m.history, turn{you: true, text: msg.query}, turn{text: msg.reply.Answer})
		reply := msg.reply
		if reply.Blocked {
			m.status = "Request rejected by moderation."
		} else {
			m.lastReply = &reply
			if reply.Title != "" {
				m.status = fmt.Sprintf("Recommended „%s”.", reply.Title)
			} else {
				m.status = "Done."
			}
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case transcriptMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Could not transcribe audio: " + msg.err.Error()
			return m, nil
		}
		m.input.SetValue(msg.text)
		m.input.CursorEnd()
		m.status = "Transcribed. Edit if needed and press Enter."
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	value := strings.TrimSpace(m.input.Value())
	if value == "" {
		return m, nil
	}
	if path, ok := strings.CutPrefix(value, ":stt"); ok {
		path = strings.TrimSpace(path)
		if path == "" {
			m.status = "No file provided."
			return m, nil
		}
		m.busy = true
		m.status = "Transcribing " + filepath.Base(path) + "..."
		m.input.SetValue("")
		return m, tea.Batch(m.spinner.Tick, m.transcribe(path))
	}

	m.busy = true
	m.status = "Thinking..."
	m.input.SetValue("")
	return m, tea.Batch(m.spinner.Tick, m.chat(value))
}

func (m Model) chat(query string) tea.Cmd {
	assistant := m.assistant
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		reply, err := assistant.Chat(ctx, query)
		return replyMsg{query: query, reply: reply, err: err}
	}
}

func (m Model) transcribe(path string) tea.Cmd {
	assistant := m.assistant
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return transcriptMsg{err: err}
		}
		defer f.Close()
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		text, err := assistant.Transcribe(ctx, f, filepath.Base(path), "ro")
		return transcriptMsg{text: text, err: err}
	}
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Smart Librarian")
	digest := m.assistant.Digest()
	if digest == "" {
		digest = "Ask for a book and I will pick one from the shelf."
	}
	about := digestStyle.Width(m.viewport.Width).Render(
		fmt.Sprintf("%d books · %s", len(m.assistant.Books()), digest))
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := m.status
	if m.busy {
		status = m.spinner.View() + status
	}
	return header + "\n" + about + "\n" + transcript + "\n" + input + "\n" + statusStyle.Render(status)
}

func (m Model) renderTranscript() string {
	if len(m.history) == 0 {
		return "No conversation yet."
	}
	wrap := lipgloss.NewStyle().Width(max(20, m.viewport.Width-2))
	var b strings.Builder
	for i, t := range m.history {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if t.you {
			b.WriteString(youStyle.Render("Your input:"))
		} else {
			b.WriteString(assistantStyle.Render("Assistant:"))
		}
		b.WriteString("\n")
		b.WriteString(wrap.Render(t.text))
	}
	return b.String()
}

var (
	headerStyle        = lipgloss.NewStyle().Bold(true)
	digestStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	youStyle           = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
