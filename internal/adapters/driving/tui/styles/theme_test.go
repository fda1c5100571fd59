package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()

	require.NotNil(t, theme)
	assert.NotEmpty(t, string(theme.Primary))
	assert.NotEmpty(t, string(theme.Secondary))
	assert.NotEmpty(t, string(theme.Foreground))
	assert.NotEmpty(t, string(theme.Bar))
}

func TestDefaultTheme_AccentsAreDistinct(t *testing.T) {
	theme := DefaultTheme()

	seen := make(map[lipgloss.Color]bool)
	for _, c := range []lipgloss.Color{theme.Primary, theme.Secondary, theme.Success, theme.Warning, theme.Error} {
		assert.False(t, seen[c], "duplicate accent %s", c)
		seen[c] = true
	}
}

func TestNewStyles(t *testing.T) {
	theme := DefaultTheme()
	assert.Equal(t, theme, NewStyles(theme).Theme())

	s := NewStyles(nil)
	require.NotNil(t, s.Theme())
	assert.Equal(t, DefaultTheme(), s.Theme())
}

func TestStyles_Score(t *testing.T) {
	s := DefaultStyles()

	assert.Equal(t, s.Success, s.Score(0.92))
	assert.Equal(t, s.Success, s.Score(StrongMatch))
	assert.Equal(t, s.Warning, s.Score(0.75))
	assert.Equal(t, s.Muted, s.Score(0.3))
}
