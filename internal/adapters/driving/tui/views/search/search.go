// Package search provides the query and ranked results view for the TUI.
package search

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// View is the search view: query input, ranked results and status bar.
// It is in input mode (typing) or results mode (navigating).
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	list      *list.ResultList
	statusbar *status.Bar

	rag  driving.RAGService
	opts domain.SearchOptions
	ctx  context.Context

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool
}

// NewView creates a new search view. opts apply to every query.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	rag driving.RAGService,
	opts domain.SearchOptions,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQueryInput(s),
		list:       list.NewResultList(s),
		statusbar:  status.NewBar(s, km),
		rag:        rag,
		opts:       opts,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the context used for searches.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		v.handleSearchCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if key.Matches(msg, v.keymap.Back) {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if key.Matches(msg, v.keymap.Search) {
			query := v.input.Submit()
			if query == "" {
				return v, nil
			}
			v.err = nil
			v.statusbar.SetState(status.StateSearching)
			v.focusInput = false
			v.input.Blur()
			return v, v.performSearch(query)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case key.Matches(msg, v.keymap.Up):
		v.list.MoveUp()
	case key.Matches(msg, v.keymap.Down):
		v.list.MoveDown()
	case key.Matches(msg, v.keymap.Expand):
		v.list.ToggleExpanded()
	case key.Matches(msg, v.keymap.NewSearch):
		v.focusInput = true
		v.input.Reset()
		return v, v.input.Focus()
	}
	return v, nil
}

// performSearch runs the query off the update loop.
func (v *View) performSearch(query string) tea.Cmd {
	rag, ctx, opts := v.rag, v.ctx, v.opts
	return func() tea.Msg {
		if rag == nil {
			return messages.ErrorOccurred{Err: ErrNoRAGService}
		}
		resp, err := rag.Search(ctx, query, opts)
		return messages.SearchCompleted{Query: query, Response: resp, Err: err}
	}
}

func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}
	if msg.Response == nil {
		v.setError(ErrNoResponse)
		return
	}
	if !msg.Response.Success {
		v.setError(&searchFailure{msg.Response.Error})
		return
	}

	v.err = nil
	v.list.SetResults(msg.Response.Results)
	v.statusbar.SetResponse(msg.Response)
	v.focusInput = false
	v.input.Blur()
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
	// Let the user edit the query and retry.
	v.focusInput = true
	v.input.Focus()
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	sections = append(sections, v.styles.Title.Render("sercha-rag"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	sections = append(sections, v.list.View(), "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	// Header, input, status and spacing take ten lines.
	v.list.SetDimensions(width, height-10)
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the current input text.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the input text.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Results returns the current ranked results.
func (v *View) Results() []domain.RankedResult {
	return v.list.Results()
}

// SelectedIndex returns the index of the selected result.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// SelectedResult returns the selected result, or nil.
func (v *View) SelectedResult() *domain.RankedResult {
	return v.list.SelectedResult()
}

// Expanded reports whether the selected passage is shown in full.
func (v *View) Expanded() bool {
	return v.list.Expanded()
}

// Strategy returns the ranking strategy of the last response.
func (v *View) Strategy() domain.RankingStrategy {
	return v.statusbar.Strategy()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Reset returns the view to an empty input.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.Reset()
	v.list.SetResults(nil)
	v.err = nil
	v.statusbar.Clear()
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
