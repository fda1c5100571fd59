// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// State represents the current search state for display.
type State string

const (
	StateReady     State = "ready"
	StateSearching State = "searching"
	StateError     State = "error"
	StateResults   State = "results"
)

// Bar displays search status and keybinding hints.
type Bar struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	state  State
	width  int

	message        string
	resultCount    int
	totalDocuments int
	strategy       domain.RankingStrategy
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := max(s.width-lipgloss.Width(left)-lipgloss.Width(right), 1)

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	switch s.state {
	case StateSearching:
		return s.styles.Muted.Render("Searching...")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render("Error: " + s.message)
		}
		return s.styles.Error.Render("Error")
	case StateResults:
		if s.totalDocuments == 0 {
			return s.styles.Warning.Render("No documents indexed")
		}
		summary := s.styles.Normal.Render(fmt.Sprintf("%d results from %d documents", s.resultCount, s.totalDocuments))
		if s.strategy != "" {
			summary += " " + s.styles.Badge.Render(s.strategy.String())
		}
		if s.message != "" {
			summary += " " + s.styles.Warning.Render(s.message)
		}
		return summary
	case StateReady:
	}
	if s.message != "" {
		return s.styles.Normal.Render(s.message)
	}
	return s.styles.Muted.Render("Ready")
}

func (s *Bar) renderRight() string {
	var bindings []key.Binding
	if s.state == StateResults && s.resultCount > 0 {
		bindings = s.keymap.ResultsHelp()
	} else {
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, h.Key+": "+h.Desc)
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetResponse shows the outcome of a search.
// The first warning, if any, becomes the message.
func (s *Bar) SetResponse(resp *domain.SearchResponse) {
	s.state = StateResults
	s.resultCount = len(resp.Results)
	s.totalDocuments = resp.TotalDocuments
	s.strategy = resp.Strategy
	s.message = ""
	if len(resp.Warnings) > 0 {
		s.message = resp.Warnings[0]
	}
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// ResultCount returns the result count of the last response.
func (s *Bar) ResultCount() int {
	return s.resultCount
}

// Strategy returns the ranking strategy of the last response.
func (s *Bar) Strategy() domain.RankingStrategy {
	return s.strategy
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Clear resets the status bar to default state.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.resultCount = 0
	s.totalDocuments = 0
	s.strategy = ""
}
