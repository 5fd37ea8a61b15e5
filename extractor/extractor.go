// Package extractor discovers translatable scopes in source documents and
// records them in a registry.
package extractor

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/sumitsaurabh927/lingo.dev-sub001/registry"
)

// Extractor records the scopes of one document in a registry.
type Extractor interface {
	Extract(reg *registry.Registry, doc string, r io.Reader) (Result, error)
}

var (
	_ Extractor = (*HTMLExtractor)(nil)
	_ Extractor = (*GoExtractor)(nil)
)

// ForPath returns the extractor for a file name: Go sources get a
// GoExtractor, everything else is treated as HTML.
func ForPath(path string) Extractor {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return NewGoExtractor()
	default:
		return NewHTMLExtractor()
	}
}
