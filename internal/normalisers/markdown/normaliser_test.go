package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestSuffixes(t *testing.T) {
	assert.Equal(t, []string{".md", ".markdown"}, New().Suffixes())
}

func TestNormalise_TitleFromHeading(t *testing.T) {
	raw := &domain.RawDocument{
		Path:    "/docs/guide.md",
		Content: []byte("Intro line\n\n# Billing Guide\n\nInvoices go out monthly."),
	}

	result, err := New().Normalise(raw)

	require.NoError(t, err)
	assert.Equal(t, "Billing Guide", result.Title)
	assert.Equal(t, "Intro line\n\nBilling Guide\n\nInvoices go out monthly.", result.Text)
}

func TestNormalise_NoHeading(t *testing.T) {
	result, err := New().Normalise(&domain.RawDocument{Content: []byte("## Sub\n\ntext")})

	require.NoError(t, err)
	assert.Empty(t, result.Title)
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"headings", "# Title\n## Section", "Title\nSection"},
		{"link keeps text", "See [the docs](https://example.com) now", "See the docs now"},
		{"image keeps alt text", "![diagram](img.png)", "diagram"},
		{"inline code keeps text", "Run `make test` first", "Run make test first"},
		{"code fence keeps body", "```go\nfmt.Println()\n```", "fmt.Println()"},
		{"bold and italic", "**bold** and *italic* and __under__", "bold and italic and under"},
		{"snake case untouched", "use max_results here", "use max_results here"},
		{"blockquote", "> quoted", "quoted"},
		{"lists", "- one\n* two\n1. three", "one\ntwo\nthree"},
		{"rule", "above\n\n---\n\nbelow", "above\n\nbelow"},
		{"crlf", "a\r\nb", "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripMarkdown(tt.input))
		})
	}
}
