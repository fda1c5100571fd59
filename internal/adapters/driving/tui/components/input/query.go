// Package input provides text input components for the TUI.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
)

// MaxHistory is the number of submitted queries remembered.
const MaxHistory = 50

// QueryInput wraps a bubbles textinput with query history.
// While focused, up and down recall earlier queries.
type QueryInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int

	history []string
	// cursor indexes history while browsing; len(history) means the draft.
	cursor int
	draft  string
}

// NewQueryInput creates a focused query input.
func NewQueryInput(s *styles.Styles) *QueryInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask about your documents..."
	ti.Focus()
	ti.CharLimit = 512
	ti.Width = 50

	return &QueryInput{
		textinput: ti,
		styles:    s,
		width:     50,
	}
}

// Init starts the cursor blink.
func (q *QueryInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (q *QueryInput) Update(msg tea.Msg) (*QueryInput, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && q.Focused() {
		//nolint:exhaustive // only history keys are intercepted
		switch key.Type {
		case tea.KeyUp:
			q.recall(-1)
			return q, nil
		case tea.KeyDown:
			q.recall(1)
			return q, nil
		}
	}

	var cmd tea.Cmd
	q.textinput, cmd = q.textinput.Update(msg)
	return q, cmd
}

func (q *QueryInput) recall(step int) {
	if len(q.history) == 0 {
		return
	}
	if q.cursor == len(q.history) {
		q.draft = q.textinput.Value()
	}

	next := q.cursor + step
	if next < 0 || next > len(q.history) {
		return
	}
	q.cursor = next

	if q.cursor == len(q.history) {
		q.textinput.SetValue(q.draft)
	} else {
		q.textinput.SetValue(q.history[q.cursor])
	}
	q.textinput.CursorEnd()
}

// Submit returns the trimmed query and records it in the history.
// An empty query is returned as "" and not recorded.
func (q *QueryInput) Submit() string {
	query := strings.TrimSpace(q.textinput.Value())
	if query == "" {
		return ""
	}
	if n := len(q.history); n == 0 || q.history[n-1] != query {
		q.history = append(q.history, query)
		if len(q.history) > MaxHistory {
			q.history = q.history[len(q.history)-MaxHistory:]
		}
	}
	q.cursor = len(q.history)
	q.draft = ""
	return query
}

// History returns submitted queries, oldest first.
func (q *QueryInput) History() []string {
	return q.history
}

// View renders the input.
func (q *QueryInput) View() string {
	label := q.styles.Title.Render("Query: ")
	field := q.styles.InputField.Render(q.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// Value returns the current input value.
func (q *QueryInput) Value() string {
	return q.textinput.Value()
}

// SetValue sets the input value.
func (q *QueryInput) SetValue(value string) {
	q.textinput.SetValue(value)
}

// Focus sets focus on the input.
func (q *QueryInput) Focus() tea.Cmd {
	return q.textinput.Focus()
}

// Blur removes focus from the input.
func (q *QueryInput) Blur() {
	q.textinput.Blur()
}

// Focused returns whether the input is focused.
func (q *QueryInput) Focused() bool {
	return q.textinput.Focused()
}

// SetWidth sets the width of the input, leaving room for the label.
func (q *QueryInput) SetWidth(width int) {
	q.width = width
	q.textinput.Width = max(width-12, 20)
}

// Width returns the current width.
func (q *QueryInput) Width() int {
	return q.width
}

// Reset clears the input and leaves history browsing.
func (q *QueryInput) Reset() {
	q.textinput.Reset()
	q.cursor = len(q.history)
	q.draft = ""
}
