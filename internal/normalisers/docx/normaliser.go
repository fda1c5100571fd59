// Package docx extracts paragraph text from Office Open XML documents.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

const (
	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"
)

// maxPartSize bounds how much of one archive part is decompressed.
const maxPartSize = 50 << 20

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Suffixes returns the file suffixes this normaliser handles.
func (n *Normaliser) Suffixes() []string {
	return []string{".docx"}
}

// Normalise returns one line per non-empty paragraph. The title comes from
// the document properties when set.
func (n *Normaliser) Normalise(raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, domain.NewValidationError("content", "%s is not a docx archive: %v", raw.Path, err)
	}

	body, err := readPart(reader, documentPart)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, domain.NewValidationError("content", "%s has no %s", raw.Path, documentPart)
	}
	text, err := parseDocumentXML(body)
	if err != nil {
		return nil, domain.NewValidationError("content", "%s: %v", raw.Path, err)
	}

	result := &driven.NormaliseResult{Text: text}
	if core, err := readPart(reader, corePart); err == nil && core != nil {
		result.Title = parseTitle(core)
	}
	return result, nil
}

// readPart returns nil, nil when the archive has no part called name.
func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(io.LimitReader(rc, maxPartSize))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, nil
}

type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

// run keeps its children in document order so tabs land between texts.
type run struct {
	Items []runItem `xml:",any"`
}

type runItem struct {
	XMLName xml.Name
	Content string `xml:",chardata"`
}

func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("parse %s: %w", documentPart, err)
	}

	lines := make([]string, 0, len(doc.Body.Paragraphs))
	for _, para := range doc.Body.Paragraphs {
		var b strings.Builder
		for _, r := range para.Runs {
			for _, item := range r.Items {
				switch item.XMLName.Local {
				case "t":
					b.WriteString(item.Content)
				case "tab":
					b.WriteByte(' ')
				}
			}
		}
		if line := strings.TrimSpace(b.String()); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

type coreXML struct {
	Title string `xml:"title"`
}

func parseTitle(content []byte) string {
	var core coreXML
	if err := xml.Unmarshal(content, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
