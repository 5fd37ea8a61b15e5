// Package codec encodes and decodes the placeholder grammar used inside
// scope content.
//
// The grammar has four token kinds:
//
//	{user.name}                          variable reference
//	<function:getCount/>                 result of a call, by name
//	<element:b>bold</element:b>          nested markup wrapper
//	<expression/>                        opaque computed value
//
// Literal text never contains an unescaped '{', '}', '<', '>' or '\'.
package codec

import (
	"strings"
	"unicode"
)

const (
	functionPrefix   = "<function:"
	elementOpen      = "<element:"
	elementClose     = "</element:"
	expressionToken  = "<expression/>"
	selfCloseSuffix  = "/>"
	escapeChar       = '\\'
	reservedCharList = `\{}<>`
)

// Escape backslash-escapes the characters reserved by the grammar.
func Escape(s string) string {
	if !strings.ContainsAny(s, reservedCharList) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		if strings.ContainsRune(reservedCharList, r) {
			b.WriteRune(escapeChar)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Unescape reverses Escape.
func Unescape(s string) string {
	if !strings.ContainsRune(s, escapeChar) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for _, r := range s {
		if !escaped && r == escapeChar {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	if escaped {
		b.WriteRune(escapeChar)
	}
	return b.String()
}

// Normalize collapses runs of whitespace into a single space and trims both ends.
func Normalize(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// Variable returns the token for a variable reference.
func Variable(path string) string {
	return "{" + path + "}"
}

// Function returns the token for a function call result.
func Function(name string) string {
	return functionPrefix + name + selfCloseSuffix
}

// Element wraps already encoded inner content in an element token pair.
func Element(name, inner string) string {
	return elementOpen + name + ">" + inner + elementClose + name + ">"
}

// Expression returns the token for an opaque expression.
func Expression() string {
	return expressionToken
}

// Builder encodes content piece by piece.
//
// Text is escaped and its whitespace collapsed across calls; whitespace at
// the start and end of the built content is dropped.
type Builder struct {
	buf    strings.Builder
	space  bool
	atOpen bool
	open   []string
}

// Text appends literal text.
func (b *Builder) Text(s string) *Builder {
	for _, r := range s {
		if unicode.IsSpace(r) {
			if b.buf.Len() > 0 && !b.atOpen {
				b.space = true
			}
			continue
		}
		b.flushSpace()
		b.atOpen = false
		if strings.ContainsRune(reservedCharList, r) {
			b.buf.WriteRune(escapeChar)
		}
		b.buf.WriteRune(r)
	}
	return b
}

// Variable appends a variable reference.
func (b *Builder) Variable(path string) *Builder {
	return b.token(Variable(path))
}

// Function appends a function call marker.
func (b *Builder) Function(name string) *Builder {
	return b.token(Function(name))
}

// Expression appends an opaque expression marker.
func (b *Builder) Expression() *Builder {
	return b.token(expressionToken)
}

// OpenElement starts a nested element wrapper.
func (b *Builder) OpenElement(name string) *Builder {
	b.open = append(b.open, name)
	b.token(elementOpen + name + ">")
	b.atOpen = true
	return b
}

// CloseElement ends the innermost open element wrapper.
func (b *Builder) CloseElement() *Builder {
	if len(b.open) == 0 {
		return b
	}
	name := b.open[len(b.open)-1]
	b.open = b.open[:len(b.open)-1]
	b.space = false
	b.atOpen = false
	b.buf.WriteString(elementClose + name + ">")
	return b
}

// String returns the encoded content, closing any element left open.
func (b *Builder) String() string {
	for len(b.open) > 0 {
		b.CloseElement()
	}
	return b.buf.String()
}

// Len returns the number of bytes written so far.
func (b *Builder) Len() int {
	return b.buf.Len()
}

func (b *Builder) token(tok string) *Builder {
	b.flushSpace()
	b.atOpen = false
	b.buf.WriteString(tok)
	return b
}

func (b *Builder) flushSpace() {
	if b.space {
		b.buf.WriteByte(' ')
		b.space = false
	}
}
