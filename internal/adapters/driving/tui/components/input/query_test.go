package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeText(q *QueryInput, s string) {
	for _, r := range s {
		q.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestNewQueryInput(t *testing.T) {
	q := NewQueryInput(nil)

	require.NotNil(t, q)
	assert.NotNil(t, q.styles)
	assert.True(t, q.Focused())
	assert.Empty(t, q.Value())
	assert.NotNil(t, q.Init())
}

func TestQueryInput_Typing(t *testing.T) {
	q := NewQueryInput(nil)

	typeText(q, "refund policy")
	assert.Equal(t, "refund policy", q.Value())

	q.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "refund polic", q.Value())
}

func TestQueryInput_Submit(t *testing.T) {
	q := NewQueryInput(nil)

	q.SetValue("  billing cycle  ")
	assert.Equal(t, "billing cycle", q.Submit())
	assert.Equal(t, []string{"billing cycle"}, q.History())

	q.SetValue("billing cycle")
	q.Submit()
	assert.Len(t, q.History(), 1, "repeat of the last query is not recorded")

	q.SetValue("   ")
	assert.Empty(t, q.Submit())
	assert.Len(t, q.History(), 1)
}

func TestQueryInput_HistoryIsBounded(t *testing.T) {
	q := NewQueryInput(nil)
	for i := 0; i < MaxHistory+5; i++ {
		q.SetValue(string(rune('a'+i%26)) + string(rune('0'+i%10)) + string(rune('A'+i/26)))
		q.Submit()
	}
	assert.Len(t, q.History(), MaxHistory)
}

func TestQueryInput_RecallHistory(t *testing.T) {
	q := NewQueryInput(nil)
	q.SetValue("first")
	q.Submit()
	q.SetValue("second")
	q.Submit()
	q.Reset()

	typeText(q, "draft")

	q.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "second", q.Value())
	q.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "first", q.Value())
	q.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "first", q.Value(), "stays on the oldest entry")

	q.Update(tea.KeyMsg{Type: tea.KeyDown})
	q.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "draft", q.Value(), "returns to the unsent draft")
}

func TestQueryInput_RecallIgnoredWhenBlurred(t *testing.T) {
	q := NewQueryInput(nil)
	q.SetValue("first")
	q.Submit()
	q.Reset()
	q.Blur()

	q.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Empty(t, q.Value())
}

func TestQueryInput_FocusAndBlur(t *testing.T) {
	q := NewQueryInput(nil)

	q.Blur()
	assert.False(t, q.Focused())
	q.Focus()
	assert.True(t, q.Focused())
}

func TestQueryInput_SetWidth(t *testing.T) {
	q := NewQueryInput(nil)

	q.SetWidth(100)
	assert.Equal(t, 100, q.Width())
	assert.Equal(t, 88, q.textinput.Width)

	q.SetWidth(10)
	assert.Equal(t, 20, q.textinput.Width)
}

func TestQueryInput_View(t *testing.T) {
	q := NewQueryInput(nil)
	assert.Contains(t, q.View(), "Query:")
}
