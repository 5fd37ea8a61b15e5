package extractor

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/sumitsaurabh927/lingo.dev-sub001/codec"
	"github.com/sumitsaurabh927/lingo.dev-sub001/registry"
)

// Attributes that mark up content for the extractor.
const (
	AttrNoTranslate    = "data-no-translate"
	AttrVariable       = "data-lingo-var"
	AttrFunction       = "data-lingo-fn"
	AttrExpression     = "data-lingo-expr"
	AttrContext        = "data-lingo-context"
	AttrOverridePrefix = "data-lingo-override-"
)

// DefaultIgnoredTags contains HTML tags whose content is never translated.
var DefaultIgnoredTags = []string{"script", "style", "code", "pre", "textarea", "noscript", "svg", "template"}

// DefaultAttributes are the attributes extracted as attribute scopes.
var DefaultAttributes = []string{"title", "alt", "placeholder", "aria-label"}

// inlineTags are encoded as element tokens inside the enclosing scope
// instead of becoming scopes of their own.
var inlineTags = map[string]bool{
	"a": true, "abbr": true, "b": true, "bdi": true, "bdo": true, "br": true,
	"cite": true, "del": true, "dfn": true, "em": true, "i": true, "img": true,
	"ins": true, "kbd": true, "mark": true, "q": true, "s": true, "samp": true,
	"small": true, "span": true, "strong": true, "sub": true, "sup": true,
	"time": true, "u": true, "var": true, "wbr": true,
}

// Result summarizes one extraction pass over a document.
type Result struct {
	Elements   int // Element scopes recorded
	Attributes int // Attribute scopes recorded
	Skipped    int // Scopes recorded with skip set
}

// Scopes returns the total number of scopes recorded.
func (r Result) Scopes() int {
	return r.Elements + r.Attributes
}

// HTMLExtractor extracts scopes from HTML documents.
type HTMLExtractor struct {
	ignoredTags map[string]bool
	attributes  []string
	logger      zerolog.Logger
}

// Option is a functional option for configuring an HTMLExtractor.
type Option func(*HTMLExtractor)

// WithIgnoredTags replaces the set of ignored tags.
func WithIgnoredTags(tags []string) Option {
	return func(e *HTMLExtractor) {
		e.ignoredTags = make(map[string]bool, len(tags))
		for _, tag := range tags {
			e.ignoredTags[strings.ToLower(tag)] = true
		}
	}
}

// WithAttributes replaces the list of extracted attributes.
func WithAttributes(attrs []string) Option {
	return func(e *HTMLExtractor) {
		e.attributes = attrs
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *HTMLExtractor) {
		e.logger = l
	}
}

// NewHTMLExtractor creates an HTML extractor with the default settings.
func NewHTMLExtractor(opts ...Option) *HTMLExtractor {
	e := &HTMLExtractor{
		attributes: DefaultAttributes,
		logger:     log.Logger.With().Str("component", "extractor").Logger(),
	}
	WithIgnoredTags(DefaultIgnoredTags)(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type pass struct {
	e       *HTMLExtractor
	reg     *registry.Registry
	doc     string
	skipped map[*html.Node]bool
	result  Result
}

// Extract parses r as HTML and replaces every scope of doc in reg with the
// scopes found. The caller persists the registry.
func (e *HTMLExtractor) Extract(reg *registry.Registry, doc string, r io.Reader) (Result, error) {
	parsed, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("parsing %s: %w", doc, err)
	}

	p := &pass{e: e, reg: reg, doc: doc, skipped: make(map[*html.Node]bool)}
	parsed.Find("[" + AttrNoTranslate + "], [" + AttrNoTranslate + "] *").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			p.skipped[n] = true
		}
	})

	reg.ResetDocument(doc)

	root := parsed.Find("html").First()
	for _, n := range root.Nodes {
		p.walk(n, "html")
	}

	e.logger.Debug().
		Str("document", doc).
		Int("elements", p.result.Elements).
		Int("attributes", p.result.Attributes).
		Int("skipped", p.result.Skipped).
		Msg("Document extracted")
	return p.result, nil
}

// ExtractString is a convenience wrapper around Extract.
func (e *HTMLExtractor) ExtractString(reg *registry.Registry, doc, content string) (Result, error) {
	return e.Extract(reg, doc, strings.NewReader(content))
}

// walk records the scopes of n and its descendants.
func (p *pass) walk(n *html.Node, path string) {
	if p.e.ignoredTags[n.Data] {
		return
	}

	p.attributeScopes(n, path)

	if !inlineTags[n.Data] && hasDirectText(n, p.e.ignoredTags) {
		p.elementScope(n, path)
	}

	counts := make(map[string]int)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		childPath := fmt.Sprintf("%s/%s[%d]", path, c.Data, counts[c.Data])
		counts[c.Data]++
		p.walk(c, childPath)
	}
}

func (p *pass) elementScope(n *html.Node, key string) {
	var b codec.Builder
	p.encodeChildren(&b, n)
	content := b.String()
	if content == "" {
		return
	}

	skip := p.skipped[n]
	p.reg.ResetScope(p.doc, key).
		SetType(p.doc, key, registry.TypeElement).
		SetContent(p.doc, key, content).
		SetContext(p.doc, key, contextFor(n)).
		SetSkip(p.doc, key, skip).
		SetOverrides(p.doc, key, overridesOf(n))

	p.result.Elements++
	if skip {
		p.result.Skipped++
	}
}

func (p *pass) attributeScopes(n *html.Node, path string) {
	for _, name := range p.e.attributes {
		value, ok := attr(n, name)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}

		var b codec.Builder
		content := b.Text(value).String()
		key := path + "@" + name
		skip := p.skipped[n]

		p.reg.ResetScope(p.doc, key).
			SetType(p.doc, key, registry.TypeAttribute).
			SetContent(p.doc, key, content).
			SetContext(p.doc, key, fmt.Sprintf("%s attribute of <%s>", name, n.Data)).
			SetSkip(p.doc, key, skip)

		p.result.Attributes++
		if skip {
			p.result.Skipped++
		}
	}
}

// encodeChildren writes the content of n into b. Inline children become
// element tokens, marked elements become placeholders and block children
// are left to their own scopes.
func (p *pass) encodeChildren(b *codec.Builder, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			b.Text(c.Data)
		case html.ElementNode:
			p.encodeElement(b, c)
		}
	}
}

func (p *pass) encodeElement(b *codec.Builder, n *html.Node) {
	if v, ok := attr(n, AttrVariable); ok {
		if codec.ValidPath(v) {
			b.Variable(v)
		} else {
			b.Expression()
		}
		return
	}
	if v, ok := attr(n, AttrFunction); ok {
		if codec.ValidName(v) {
			b.Function(v)
		} else {
			b.Expression()
		}
		return
	}
	if _, ok := attr(n, AttrExpression); ok {
		b.Expression()
		return
	}
	if _, ok := attr(n, AttrNoTranslate); ok {
		b.Expression()
		return
	}

	switch {
	case p.e.ignoredTags[n.Data]:
		b.Expression()
	case n.Data == "br" || n.Data == "wbr":
		b.Text(" ")
	case !inlineTags[n.Data]:
		// Block children are scopes of their own.
		b.Text(" ")
	case !codec.ValidName(n.Data):
		p.encodeChildren(b, n)
	default:
		b.OpenElement(n.Data)
		p.encodeChildren(b, n)
		b.CloseElement()
	}
}

// hasDirectText reports whether n holds text of its own, either directly
// or through inline descendants.
func hasDirectText(n *html.Node, ignored map[string]bool) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return true
			}
		case html.ElementNode:
			if ignored[c.Data] || !inlineTags[c.Data] {
				continue
			}
			if isPlaceholder(c) || hasDirectText(c, ignored) {
				return true
			}
		}
	}
	return false
}

func isPlaceholder(n *html.Node) bool {
	for _, a := range []string{AttrVariable, AttrFunction, AttrExpression} {
		if _, ok := attr(n, a); ok {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func overridesOf(n *html.Node) map[string]string {
	var overrides map[string]string
	for _, a := range n.Attr {
		locale, ok := strings.CutPrefix(a.Key, AttrOverridePrefix)
		if !ok || locale == "" {
			continue
		}
		if overrides == nil {
			overrides = make(map[string]string)
		}
		overrides[locale] = a.Val
	}
	return overrides
}

// contextFor creates a disambiguation hint for an element scope.
func contextFor(n *html.Node) string {
	if hint, ok := attr(n, AttrContext); ok {
		return hint
	}

	var parts []string

	classAttr, _ := attr(n, "class")
	idAttr, _ := attr(n, "id")
	if classAttr != "" {
		parts = append(parts, fmt.Sprintf("in <%s class=\"%s\">", n.Data, classAttr))
	} else if idAttr != "" {
		parts = append(parts, fmt.Sprintf("in <%s id=\"%s\">", n.Data, idAttr))
	} else {
		parts = append(parts, fmt.Sprintf("in <%s>", n.Data))
	}

	// Get ancestor path (up to 3 levels)
	var ancestors []string
	ancestor := n.Parent
	for i := 0; i < 3 && ancestor != nil; i++ {
		if ancestor.Type == html.ElementNode {
			name := ancestor.Data
			if name != "html" && name != "body" {
				ancestors = append(ancestors, name)
			}
		}
		ancestor = ancestor.Parent
	}
	if len(ancestors) > 0 {
		// Reverse to show outer to inner
		for i, j := 0, len(ancestors)-1; i < j; i, j = i+1, j-1 {
			ancestors[i], ancestors[j] = ancestors[j], ancestors[i]
		}
		parts = append(parts, fmt.Sprintf("inside: %s", strings.Join(ancestors, " > ")))
	}

	return strings.Join(parts, " | ")
}
