// Package documents provides the indexed documents list view for the TUI.
package documents

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// View is the documents list view.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	rag    driving.RAGService
	ctx    context.Context

	documents    []domain.DocumentIndexEntry
	selected     int
	scrollOffset int
	confirming   bool
	notice       string
	err          error
	width        int
	height       int
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, rag driving.RAGService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		keymap: keymap.DefaultKeyMap(),
		rag:    rag,
		ctx:    context.Background(),
		width:  80,
		height: 24,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the document list.
func (v *View) Init() tea.Cmd {
	return v.load()
}

func (v *View) load() tea.Cmd {
	rag, ctx := v.rag, v.ctx
	return func() tea.Msg {
		if rag == nil {
			return messages.ErrorOccurred{Err: ErrNoRAGService}
		}
		return messages.DocumentsLoaded{Documents: rag.Documents(ctx)}
	}
}

func (v *View) remove(id string) tea.Cmd {
	rag, ctx := v.rag, v.ctx
	return func() tea.Msg {
		if rag == nil {
			return messages.DocumentRemoved{DocumentID: id, Err: ErrNoRAGService}
		}
		removed, err := rag.Remove(ctx, id)
		return messages.DocumentRemoved{DocumentID: id, Removed: removed, Err: err}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.confirming {
			return v.handleConfirmKey(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.documents = msg.Documents
		v.err = nil
		v.selected = min(v.selected, max(len(v.documents)-1, 0))
		v.adjustScroll()
		return v, nil

	case messages.DocumentRemoved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		if msg.Removed {
			v.notice = "Removed " + msg.DocumentID
		} else {
			v.notice = msg.DocumentID + " was already removed"
		}
		return v, v.load()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case key.Matches(msg, v.keymap.Down):
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case key.Matches(msg, v.keymap.Select):
		if doc := v.SelectedDocument(); doc != nil {
			entry := *doc
			return v, func() tea.Msg {
				return messages.DocumentSelected{Document: entry}
			}
		}
	case key.Matches(msg, v.keymap.Remove):
		if v.SelectedDocument() != nil {
			v.confirming = true
		}
	case key.Matches(msg, v.keymap.Reload):
		v.notice = ""
		return v, v.load()
	case key.Matches(msg, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

func (v *View) handleConfirmKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	v.confirming = false
	if msg.String() != "y" {
		return v, nil
	}
	doc := v.SelectedDocument()
	if doc == nil {
		return v, nil
	}
	return v, v.remove(doc.DocumentID)
}

func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

func (v *View) visibleItemCount() int {
	// Title, notice, footer and padding take eight lines.
	return max(v.height-8, 1)
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.documents))))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}
	if v.notice != "" {
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n\n")
	}

	if len(v.documents) == 0 {
		b.WriteString(v.styles.Muted.Render("No documents indexed."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	visible := v.visibleItemCount()
	end := min(v.scrollOffset+visible, len(v.documents))
	for i := v.scrollOffset; i < end; i++ {
		b.WriteString(v.renderDocument(i, &v.documents[i]))
		b.WriteString("\n")
	}
	if len(v.documents) > visible {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", v.scrollOffset+1, end, len(v.documents))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if v.confirming {
		doc := v.SelectedDocument()
		b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Remove %s from the index? [y/N]", doc.Filename)))
	} else {
		b.WriteString(v.renderHelp())
	}
	return b.String()
}

func (v *View) renderDocument(index int, doc *domain.DocumentIndexEntry) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	name := doc.Filename
	if name == "" {
		name = doc.DocumentID
	}
	nameWidth := max(v.width/2, 12)
	if len([]rune(name)) > nameWidth {
		name = string([]rune(name)[:nameWidth-3]) + "..."
	}

	line := fmt.Sprintf("%s%-*s %-4s %4d chunks", indicator, nameWidth, name, doc.Type, doc.TotalChunks)
	if index == v.selected {
		return v.styles.Selected.Render(line)
	}
	return v.styles.Normal.Render(line)
}

func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] navigate  [enter] details  [d] remove  [r] reload  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Documents returns the current list of documents.
func (v *View) Documents() []domain.DocumentIndexEntry {
	return v.documents
}

// SelectedIndex returns the currently selected document index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDocument returns the currently selected document, or nil.
func (v *View) SelectedDocument() *domain.DocumentIndexEntry {
	if v.selected < 0 || v.selected >= len(v.documents) {
		return nil
	}
	return &v.documents[v.selected]
}

// Confirming reports whether a removal is awaiting confirmation.
func (v *View) Confirming() bool {
	return v.confirming
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
