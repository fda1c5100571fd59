package normalisers

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/docx"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/html"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/markdown"
)

// Registry maps file suffixes to normalisers.
type Registry struct {
	suffixes []string // longest first
	bySuffix map[string]driven.Normaliser
}

// NewRegistry registers ns in order. A later normaliser replaces an
// earlier one for a shared suffix.
func NewRegistry(ns ...driven.Normaliser) *Registry {
	r := &Registry{bySuffix: make(map[string]driven.Normaliser)}
	for _, n := range ns {
		for _, s := range n.Suffixes() {
			s = strings.ToLower(s)
			if _, ok := r.bySuffix[s]; !ok {
				r.suffixes = append(r.suffixes, s)
			}
			r.bySuffix[s] = n
		}
	}
	slices.SortStableFunc(r.suffixes, func(a, b string) int {
		return len(b) - len(a)
	})
	return r
}

// Default returns a registry with the Markdown, HTML and DOCX normalisers.
func Default() *Registry {
	return NewRegistry(markdown.New(), html.New(), docx.New())
}

// Lookup returns the normaliser for path, matching the longest suffix.
func (r *Registry) Lookup(path string) (driven.Normaliser, bool) {
	name := strings.ToLower(filepath.Base(path))
	for _, s := range r.suffixes {
		if strings.HasSuffix(name, s) {
			return r.bySuffix[s], true
		}
	}
	return nil, false
}

// Suffixes lists every registered suffix, longest first.
func (r *Registry) Suffixes() []string {
	return slices.Clone(r.suffixes)
}
