package extractor

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sumitsaurabh927/lingo.dev-sub001/codec"
	"github.com/sumitsaurabh927/lingo.dev-sub001/registry"
)

// formatVerb matches a fmt verb with its flags, width, precision and
// argument index.
var formatVerb = regexp.MustCompile(`%[-+# 0]*(?:\[\d+\])?(?:\d+|\*)?(?:\.(?:\d+|\*)?)?(?:\[\d+\])?[a-zA-Z]`)

// GoExtractor extracts comments and string literals from Go source files.
// Scope keys have the form "comment:<line>:<col>" and "string:<line>:<col>".
type GoExtractor struct {
	comments bool
	strings  bool
	logger   zerolog.Logger
}

// GoOption configures a GoExtractor.
type GoOption func(*GoExtractor)

// WithComments enables or disables comment extraction.
func WithComments(enabled bool) GoOption {
	return func(e *GoExtractor) {
		e.comments = enabled
	}
}

// WithStrings enables or disables string literal extraction.
func WithStrings(enabled bool) GoOption {
	return func(e *GoExtractor) {
		e.strings = enabled
	}
}

// WithGoLogger sets the logger.
func WithGoLogger(l zerolog.Logger) GoOption {
	return func(e *GoExtractor) {
		e.logger = l
	}
}

// NewGoExtractor creates a Go source extractor that records both comments
// and string literals.
func NewGoExtractor(opts ...GoOption) *GoExtractor {
	e := &GoExtractor{
		comments: true,
		strings:  true,
		logger:   log.Logger.With().Str("component", "extractor").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses r as a Go source file and replaces every scope of doc in
// reg with the scopes found. The caller persists the registry.
func (e *GoExtractor) Extract(reg *registry.Registry, doc string, r io.Reader) (Result, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", doc, err)
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, doc, src, parser.ParseComments)
	if err != nil {
		return Result{}, fmt.Errorf("parsing %s: %w", doc, err)
	}

	reg.ResetDocument(doc)

	var res Result
	record := func(kind string, pos token.Pos, content, hint string) {
		p := fset.Position(pos)
		key := fmt.Sprintf("%s:%d:%d", kind, p.Line, p.Column)
		reg.ResetScope(doc, key).
			SetType(doc, key, registry.TypeElement).
			SetContent(doc, key, content).
			SetContext(doc, key, hint)
		res.Elements++
	}

	if e.comments {
		owners := docOwners(file)
		for _, cg := range file.Comments {
			for _, c := range cg.List {
				if isDirective(c.Text) {
					continue
				}
				text := commentText(c.Text)
				if text == "" {
					continue
				}

				hint := "Go source comment"
				if name, ok := owners[cg]; ok {
					hint = "Go doc comment of " + name
				}
				var b codec.Builder
				record("comment", c.Pos(), b.Text(text).String(), hint)
			}
		}
	}

	if e.strings {
		skip := make(map[*ast.BasicLit]bool, len(file.Imports))
		for _, imp := range file.Imports {
			skip[imp.Path] = true
		}

		for _, decl := range file.Decls {
			hint := "Go string literal"
			if fn, ok := decl.(*ast.FuncDecl); ok {
				hint = "Go string literal in " + funcName(fn)
			}

			ast.Inspect(decl, func(n ast.Node) bool {
				switch n := n.(type) {
				case *ast.Field:
					if n.Tag != nil {
						skip[n.Tag] = true
					}
				case *ast.BasicLit:
					if n.Kind != token.STRING || skip[n] {
						return true
					}
					text, err := strconv.Unquote(n.Value)
					if err != nil || !isTranslatableString(text) {
						return true
					}
					record("string", n.Pos(), encodeFormat(text), hint)
				}
				return true
			})
		}
	}

	e.logger.Debug().
		Str("document", doc).
		Int("scopes", res.Elements).
		Msg("Go source extracted")
	return res, nil
}

// ExtractString is a convenience wrapper around Extract.
func (e *GoExtractor) ExtractString(reg *registry.Registry, doc, content string) (Result, error) {
	return e.Extract(reg, doc, strings.NewReader(content))
}

// encodeFormat encodes s with every fmt verb replaced by an expression
// token. "%%" stays literal text.
func encodeFormat(s string) string {
	var b codec.Builder
	last := 0
	for _, m := range formatVerb.FindAllStringIndex(s, -1) {
		if m[0] > 0 && s[m[0]-1] == '%' {
			continue
		}
		b.Text(s[last:m[0]])
		b.Expression()
		last = m[1]
	}
	b.Text(s[last:])
	return b.String()
}

// docOwners maps doc comment groups to the name of the declaration they
// document.
func docOwners(file *ast.File) map[*ast.CommentGroup]string {
	owners := make(map[*ast.CommentGroup]string)
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Doc != nil {
				owners[d.Doc] = funcName(d)
			}
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				var name string
				var doc *ast.CommentGroup
				switch s := spec.(type) {
				case *ast.TypeSpec:
					name, doc = s.Name.Name, s.Doc
				case *ast.ValueSpec:
					name, doc = s.Names[0].Name, s.Doc
				default:
					continue
				}
				if doc != nil {
					owners[doc] = name
				}
				if d.Doc != nil && len(d.Specs) == 1 {
					owners[d.Doc] = name
				}
			}
		}
	}
	return owners
}

func funcName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return fn.Name.Name
	}
	return "(" + types.ExprString(fn.Recv.List[0].Type) + ")." + fn.Name.Name
}

// isDirective reports whether a comment is a tool directive such as
// //go:generate, //nolint or a build constraint.
func isDirective(comment string) bool {
	body, ok := strings.CutPrefix(comment, "//")
	if !ok {
		return false
	}
	if strings.HasPrefix(body, "go:") || strings.HasPrefix(body, "line ") ||
		strings.HasPrefix(body, "export ") || strings.HasPrefix(body, "nolint") {
		return true
	}
	body = strings.TrimSpace(body)
	return strings.HasPrefix(body, "+build") || strings.HasPrefix(body, "#nosec")
}

// commentText returns the text of a comment without its markers.
func commentText(comment string) string {
	if body, ok := strings.CutPrefix(comment, "//"); ok {
		return strings.TrimSpace(body)
	}
	if strings.HasPrefix(comment, "/*") && strings.HasSuffix(comment, "*/") {
		return strings.TrimSpace(comment[2 : len(comment)-2])
	}
	return ""
}

// isTranslatableString reports whether a string literal looks like prose
// rather than an identifier, path, format verb or constant.
func isTranslatableString(s string) bool {
	if len(s) < 2 {
		return false
	}
	if strings.Contains(s, "/") && !strings.Contains(s, " ") {
		return false
	}
	if strings.HasPrefix(s, "%") && len(s) < 5 {
		return false
	}
	if s == strings.ToUpper(s) && !strings.Contains(s, " ") {
		return false
	}
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}
