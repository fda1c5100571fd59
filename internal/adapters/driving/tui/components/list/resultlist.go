// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// ResultList displays ranked passages in a navigable list.
// The selected passage can be expanded to its full text.
type ResultList struct {
	results  []domain.RankedResult
	selected int
	expanded bool
	styles   *styles.Styles
	width    int
	height   int
}

// NewResultList creates a new result list component.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ResultList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the result list.
func (r *ResultList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the result list.
func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No results")
	}

	lines := make([]string, 0, len(r.results)+4)
	lines = append(lines, r.styles.Subtitle.Render(fmt.Sprintf("Results (%d)", len(r.results))), "")

	// Each collapsed result takes two lines.
	visible := max((r.height-4)/2, 1)
	start := 0
	if r.selected >= visible {
		start = r.selected - visible + 1
	}
	end := min(start+visible, len(r.results))

	for i := start; i < end; i++ {
		lines = append(lines, r.renderResult(i, &r.results[i]))
	}

	if r.expanded {
		if res := r.SelectedResult(); res != nil {
			passage := r.styles.Passage.Width(max(r.width-4, 20)).Render(res.Content)
			lines = append(lines, "", passage)
		}
	}

	return strings.Join(lines, "\n")
}

// renderResult formats one result as a title line and a preview line.
func (r *ResultList) renderResult(index int, result *domain.RankedResult) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	title := fmt.Sprintf("%d. %s", result.Rank, orUntitled(result.Filename))
	if result.PageNumber > 0 {
		title += fmt.Sprintf(" p.%d", result.PageNumber)
	}
	title = truncate(title, max(r.width-20, 10))

	score := r.styles.Score(result.Similarity).Render(fmt.Sprintf("%.2f", result.Similarity))

	var titleLine string
	if index == r.selected {
		titleLine = r.styles.Selected.Render(indicator+title) + "  " + score
	} else {
		titleLine = r.styles.Normal.Render(indicator+title) + "  " + score
	}

	preview := strings.Join(strings.Fields(result.Content), " ")
	preview = truncate(preview, max(r.width-6, 20))

	return titleLine + "\n" + r.styles.Muted.Render("    "+preview)
}

func orUntitled(name string) string {
	if name == "" {
		return "(untitled)"
	}
	return name
}

// truncate shortens s to at most n display cells.
func truncate(s string, n int) string {
	if lipgloss.Width(s) <= n {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > n {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

// SetResults replaces the results and selects the first.
func (r *ResultList) SetResults(results []domain.RankedResult) {
	r.results = results
	r.selected = 0
	r.expanded = false
}

// Results returns the current results.
func (r *ResultList) Results() []domain.RankedResult {
	return r.results
}

// Selected returns the index of the selected result.
func (r *ResultList) Selected() int {
	return r.selected
}

// SetSelected sets the selected index.
func (r *ResultList) SetSelected(index int) {
	if index >= 0 && index < len(r.results) {
		r.selected = index
	}
}

// SelectedResult returns the currently selected result, or nil if none.
func (r *ResultList) SelectedResult() *domain.RankedResult {
	if r.selected < 0 || r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

// ToggleExpanded shows or hides the full passage of the selection.
func (r *ResultList) ToggleExpanded() {
	r.expanded = !r.expanded && len(r.results) > 0
}

// Expanded reports whether the selected passage is shown in full.
func (r *ResultList) Expanded() bool {
	return r.expanded
}

// MoveUp moves selection up.
func (r *ResultList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *ResultList) MoveDown() {
	if r.selected < len(r.results)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of results.
func (r *ResultList) Count() int {
	return len(r.results)
}

// IsEmpty returns whether the list is empty.
func (r *ResultList) IsEmpty() bool {
	return len(r.results) == 0
}
