package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// stubRAG serves a fixed document list and records removals.
type stubRAG struct {
	driving.RAGService

	docs      []domain.DocumentIndexEntry
	removed   []string
	removeErr error
}

func (s *stubRAG) Documents(context.Context) []domain.DocumentIndexEntry {
	return append([]domain.DocumentIndexEntry(nil), s.docs...)
}

func (s *stubRAG) Remove(_ context.Context, id string) (bool, error) {
	if s.removeErr != nil {
		return false, s.removeErr
	}
	for i, d := range s.docs {
		if d.DocumentID == id {
			s.docs = append(s.docs[:i], s.docs[i+1:]...)
			s.removed = append(s.removed, id)
			return true, nil
		}
	}
	return false, nil
}

func sampleDocs() []domain.DocumentIndexEntry {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return []domain.DocumentIndexEntry{
		{DocumentID: "doc-1", Filename: "billing.md", Type: domain.DocumentTypeTxt, TotalChunks: 3, IndexedAt: now},
		{DocumentID: "doc-2", Filename: "report.pdf.txt", Type: domain.DocumentTypePDF, TotalChunks: 12, IndexedAt: now},
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// loaded returns a view that has received the initial document list.
func loaded(t *testing.T, rag *stubRAG) *View {
	t.Helper()
	v := NewView(nil, rag)
	v.SetDimensions(100, 30)
	cmd := v.Init()
	require.NotNil(t, cmd)
	v.Update(cmd())
	return v
}

func TestView_InitLoadsDocuments(t *testing.T) {
	v := loaded(t, &stubRAG{docs: sampleDocs()})

	assert.Len(t, v.Documents(), 2)
	view := v.View()
	assert.Contains(t, view, "Documents (2)")
	assert.Contains(t, view, "billing.md")
	assert.Contains(t, view, "12 chunks")
}

func TestView_NoService(t *testing.T) {
	v := NewView(nil, nil)
	v.Update(v.Init()())

	assert.ErrorIs(t, v.Err(), ErrNoRAGService)
}

func TestView_Empty(t *testing.T) {
	v := loaded(t, &stubRAG{})

	assert.Nil(t, v.SelectedDocument())
	assert.Contains(t, v.View(), "No documents indexed.")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestView_NavigateAndSelect(t *testing.T) {
	v := loaded(t, &stubRAG{docs: sampleDocs()})

	v.Update(runes("j"))
	v.Update(runes("j"))
	assert.Equal(t, 1, v.SelectedIndex())

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg, ok := cmd().(messages.DocumentSelected)
	require.True(t, ok)
	assert.Equal(t, "doc-2", msg.Document.DocumentID)

	v.Update(runes("k"))
	assert.Equal(t, 0, v.SelectedIndex())
}

func TestView_RemoveConfirmed(t *testing.T) {
	rag := &stubRAG{docs: sampleDocs()}
	v := loaded(t, rag)

	v.Update(runes("d"))
	require.True(t, v.Confirming())
	assert.Contains(t, v.View(), "Remove billing.md from the index?")

	_, cmd := v.Update(runes("y"))
	require.NotNil(t, cmd)
	assert.False(t, v.Confirming())

	_, reload := v.Update(cmd())
	assert.Equal(t, []string{"doc-1"}, rag.removed)
	require.NotNil(t, reload)
	v.Update(reload())

	assert.Len(t, v.Documents(), 1)
	assert.Contains(t, v.View(), "Removed doc-1")
}

func TestView_RemoveCancelled(t *testing.T) {
	rag := &stubRAG{docs: sampleDocs()}
	v := loaded(t, rag)

	v.Update(runes("d"))
	_, cmd := v.Update(runes("n"))

	assert.Nil(t, cmd)
	assert.False(t, v.Confirming())
	assert.Empty(t, rag.removed)
}

func TestView_RemoveError(t *testing.T) {
	v := loaded(t, &stubRAG{docs: sampleDocs(), removeErr: errors.New("locked")})

	v.Update(runes("d"))
	_, cmd := v.Update(runes("y"))
	v.Update(cmd())

	assert.EqualError(t, v.Err(), "locked")
}

func TestView_SelectionClampedAfterReload(t *testing.T) {
	rag := &stubRAG{docs: sampleDocs()}
	v := loaded(t, rag)
	v.Update(runes("j"))

	rag.docs = rag.docs[:1]
	_, cmd := v.Update(runes("r"))
	v.Update(cmd())

	assert.Equal(t, 0, v.SelectedIndex())
}

func TestView_EscReturnsToMenu(t *testing.T) {
	v := loaded(t, &stubRAG{})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}
