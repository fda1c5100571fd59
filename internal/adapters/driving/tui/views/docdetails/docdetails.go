// Package docdetails provides the document details view component for the TUI.
package docdetails

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// View shows the registry entry of one indexed document.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap

	entry        *domain.DocumentIndexEntry
	scrollOffset int
	width        int
	height       int
}

// NewView creates a new document details view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		keymap: keymap.DefaultKeyMap(),
		width:  80,
		height: 24,
	}
}

// SetDocument sets the entry to display.
func (v *View) SetDocument(entry domain.DocumentIndexEntry) {
	v.entry = &entry
	v.scrollOffset = 0
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the document details view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keymap.Up):
			if v.scrollOffset > 0 {
				v.scrollOffset--
			}
		case key.Matches(msg, v.keymap.Down):
			if v.scrollOffset < v.maxScrollOffset() {
				v.scrollOffset++
			}
		case key.Matches(msg, v.keymap.Back):
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewDocuments}
			}
		}
	}
	return v, nil
}

func (v *View) visibleLines() int {
	// Title, separator, help and padding take six lines.
	return max(v.height-6, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.lines())-v.visibleLines(), 0)
}

// lines builds "Label: value" rows for the entry.
func (v *View) lines() []string {
	if v.entry == nil {
		return nil
	}
	e := v.entry

	fields := map[string]string{}
	if e.Source.Title != "" {
		fields["Title"] = e.Source.Title
	}
	if e.Source.Author != "" {
		fields["Author"] = e.Source.Author
	}
	if e.Source.Pages > 0 {
		fields["Pages"] = fmt.Sprintf("%d", e.Source.Pages)
	}

	lines := []string{
		formatField("ID", e.DocumentID),
		formatField("Filename", e.Filename),
		formatField("Type", e.Type.String()),
		formatField("Chunks", fmt.Sprintf("%d", e.TotalChunks)),
	}
	if !e.IndexedAt.IsZero() {
		lines = append(lines, formatField("Indexed", e.IndexedAt.Local().Format("2006-01-02 15:04:05")))
	}
	if len(fields) > 0 {
		lines = append(lines, "", "Source:")
		for _, k := range slices.Sorted(maps.Keys(fields)) {
			lines = append(lines, "  "+formatField(k, fields[k]))
		}
	}
	return lines
}

func formatField(label, value string) string {
	return fmt.Sprintf("%-10s %s", label+":", value)
}

// View renders the document details view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Document Details"))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(max(v.width-4, 1), 60)))
	b.WriteString("\n\n")

	if v.entry == nil {
		b.WriteString(v.styles.Muted.Render("No document selected"))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	lines := v.lines()
	visible := v.visibleLines()
	end := min(v.scrollOffset+visible, len(lines))
	for _, line := range lines[v.scrollOffset:end] {
		label, value, ok := strings.Cut(line, ":")
		switch {
		case line == "Source:":
			b.WriteString(v.styles.Subtitle.Render(line))
		case ok:
			b.WriteString(v.styles.Subtitle.Render(label+":") + v.styles.Normal.Render(value))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] scroll  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Document returns the displayed entry, or nil.
func (v *View) Document() *domain.DocumentIndexEntry {
	return v.entry
}
