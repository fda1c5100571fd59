package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		path     string
		expected domain.DocumentType
		wantErr  bool
	}{
		{path: "notes.txt", expected: domain.DocumentTypeTxt},
		{path: "server.LOG", expected: domain.DocumentTypeTxt},
		{path: "README.md", expected: domain.DocumentTypeDoc},
		{path: "guide.markdown", expected: domain.DocumentTypeDoc},
		{path: "report.doc.txt", expected: domain.DocumentTypeDoc},
		{path: "report.docx", expected: domain.DocumentTypeDoc},
		{path: "index.html", expected: domain.DocumentTypeDoc},
		{path: "/a/b/manual.pdf.txt", expected: domain.DocumentTypePDF},
		{path: "image.png", wantErr: true},
		{path: "archive.pdf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			typ, err := DetectType(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrUnsupportedType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, typ)
		})
	}
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("a.txt"))
	assert.False(t, IsSupported(".hidden.txt"))
	assert.False(t, IsSupported("binary.exe"))
}

func TestDocumentID(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")

	assert.Equal(t, DocumentID(a), DocumentID(a))
	assert.NotEqual(t, DocumentID(a), DocumentID(filepath.Join(dir, "b.txt")))
	assert.Len(t, DocumentID(a), 36)
}

func TestLoadDocument(t *testing.T) {
	dir := t.TempDir()

	t.Run("plain text", func(t *testing.T) {
		path := writeFile(t, dir, "notes.txt", "Hello world.")

		doc, err := LoadDocument(path)

		require.NoError(t, err)
		assert.Equal(t, "Hello world.", doc.Text)
		assert.Equal(t, "notes.txt", doc.Filename)
		assert.Equal(t, "notes", doc.Title)
		assert.Equal(t, domain.DocumentTypeTxt, doc.Type)
		assert.Equal(t, DocumentID(path), doc.ID)
		assert.Zero(t, doc.TotalPages)
	})

	t.Run("pdf text counts pages", func(t *testing.T) {
		path := writeFile(t, dir, "manual.pdf.txt", "page one\fpage two\fpage three\f\n")

		doc, err := LoadDocument(path)

		require.NoError(t, err)
		assert.Equal(t, domain.DocumentTypePDF, doc.Type)
		assert.Equal(t, 3, doc.TotalPages)
		assert.Equal(t, "manual", doc.Title)
	})

	t.Run("markdown is stripped and titled", func(t *testing.T) {
		path := writeFile(t, dir, "guide.md", "# Billing Guide\n\nInvoices are sent **monthly**.")

		doc, err := LoadDocument(path)

		require.NoError(t, err)
		assert.Equal(t, "Billing Guide\n\nInvoices are sent monthly.", doc.Text)
		assert.Equal(t, "Billing Guide", doc.Title)
		assert.Equal(t, domain.DocumentTypeDoc, doc.Type)
	})

	t.Run("html is stripped", func(t *testing.T) {
		path := writeFile(t, dir, "faq.html", "<html><head><title>FAQ</title></head><body><p>Refunds take five days.</p></body></html>")

		doc, err := LoadDocument(path)

		require.NoError(t, err)
		assert.Equal(t, "Refunds take five days.", doc.Text)
		assert.Equal(t, "FAQ", doc.Title)
	})

	t.Run("broken docx", func(t *testing.T) {
		path := writeFile(t, dir, "broken.docx", "not a zip archive")

		_, err := LoadDocument(path)

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("invalid utf8", func(t *testing.T) {
		path := filepath.Join(dir, "bad.txt")
		require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0x00}, 0644))

		_, err := LoadDocument(path)

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "text", verr.Field)
	})

	t.Run("unsupported type", func(t *testing.T) {
		path := writeFile(t, dir, "data.csv", "a,b")
		_, err := LoadDocument(path)
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadDocument(filepath.Join(dir, "missing.txt"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "b")
	writeFile(t, dir, "a.md", "a")
	writeFile(t, dir, "sub/c.pdf.txt", "c")
	writeFile(t, dir, "skip.bin", "x")
	writeFile(t, dir, ".hidden.txt", "h")
	writeFile(t, dir, ".git/config.txt", "g")

	paths, err := Scan(dir)

	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.md"),
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "sub", "c.pdf.txt"),
	}, paths)

	t.Run("single file", func(t *testing.T) {
		paths, err := Scan(filepath.Join(dir, "b.txt"))
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "b.txt")}, paths)
	})

	t.Run("unsupported single file", func(t *testing.T) {
		_, err := Scan(filepath.Join(dir, "skip.bin"))
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := Scan(filepath.Join(dir, "nope"))
		assert.Error(t, err)
	})
}
