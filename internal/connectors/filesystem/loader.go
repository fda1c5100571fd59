// Package filesystem loads text, markup and office files as documents and keeps
// an index in sync with a directory tree.
package filesystem

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
)

// MaxFileSize bounds the files LoadDocument will read.
const MaxFileSize = 10 << 20

// pageBreak separates pages in text extracted from PDFs.
const pageBreak = "\f"

// formats extracts text from markup and office files before chunking.
var formats = normalisers.Default()

// typeSuffixes maps file suffixes to document types. Longer, compound
// suffixes are listed first so ".pdf.txt" wins over ".txt".
var typeSuffixes = []struct {
	suffix string
	typ    domain.DocumentType
}{
	{".pdf.txt", domain.DocumentTypePDF},
	{".doc.txt", domain.DocumentTypeDoc},
	{".docx.txt", domain.DocumentTypeDoc},
	{".docx", domain.DocumentTypeDoc},
	{".md", domain.DocumentTypeDoc},
	{".markdown", domain.DocumentTypeDoc},
	{".html", domain.DocumentTypeDoc},
	{".htm", domain.DocumentTypeDoc},
	{".xhtml", domain.DocumentTypeDoc},
	{".txt", domain.DocumentTypeTxt},
	{".text", domain.DocumentTypeTxt},
	{".log", domain.DocumentTypeTxt},
}

// DetectType returns the document type for path based on its suffix.
func DetectType(path string) (domain.DocumentType, error) {
	name := strings.ToLower(filepath.Base(path))
	for _, s := range typeSuffixes {
		if strings.HasSuffix(name, s.suffix) {
			return s.typ, nil
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedType, filepath.Ext(name))
}

// IsSupported reports whether path has a recognised suffix and is not hidden.
func IsSupported(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	_, err := DetectType(path)
	return err == nil
}

// DocumentID derives a stable id from the absolute path, so the same file
// maps to the same document across runs.
func DocumentID(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(abs))).String()
}

// LoadDocument reads a file into a Document. Markdown, HTML and DOCX
// files are reduced to plain text first; a heading or title found there
// replaces the file name title. Non-UTF-8 text is rejected with a
// validation error. For PDF text, form feeds mark page breaks and set
// TotalPages.
func LoadDocument(path string) (domain.Document, error) {
	typ, err := DetectType(path)
	if err != nil {
		return domain.Document{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return domain.Document{}, domain.NewValidationError("path", "%s is a directory", path)
	}
	if info.Size() > MaxFileSize {
		return domain.Document{}, domain.NewValidationError("path", "%s is %d bytes, limit is %d", path, info.Size(), MaxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read %s: %w", path, err)
	}

	text, title := string(data), titleOf(path)
	if n, ok := formats.Lookup(path); ok {
		res, err := n.Normalise(&domain.RawDocument{Path: path, Content: data})
		if err != nil {
			return domain.Document{}, fmt.Errorf("extract %s: %w", path, err)
		}
		text = res.Text
		if res.Title != "" {
			title = res.Title
		}
	}
	if !utf8.ValidString(text) {
		return domain.Document{}, domain.NewValidationError("text", "%s is not valid UTF-8", path)
	}

	doc := domain.Document{
		ID:       DocumentID(path),
		Text:     text,
		Filename: filepath.Base(path),
		Type:     typ,
		Title:    title,
	}
	if typ == domain.DocumentTypePDF {
		doc.TotalPages = strings.Count(strings.TrimRight(text, pageBreak+"\n"), pageBreak) + 1
	}
	return doc, nil
}

// titleOf strips every type suffix from the base name.
func titleOf(path string) string {
	name := filepath.Base(path)
	lower := strings.ToLower(name)
	for _, s := range typeSuffixes {
		if strings.HasSuffix(lower, s.suffix) {
			return name[:len(name)-len(s.suffix)]
		}
	}
	return name
}

// Scan lists supported files under root in lexical order.
// Hidden files and directories are skipped. A file root is returned as-is
// when supported.
func Scan(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	if !info.IsDir() {
		if !IsSupported(root) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, root)
		}
		return []string{root}, nil
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && IsSupported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return paths, nil
}
