package codec

import (
	"fmt"
	"sort"
	"strings"
)

// Kind identifies the type of a parsed node.
type Kind int

const (
	KindText Kind = iota
	KindVariable
	KindFunction
	KindElement
	KindExpression
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindVariable:
		return "variable"
	case KindFunction:
		return "function"
	case KindElement:
		return "element"
	case KindExpression:
		return "expression"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Node is one parsed piece of encoded content.
type Node struct {
	Kind     Kind
	Text     string // unescaped literal, KindText only
	Name     string // variable path, function or element name
	Children []Node // KindElement only
}

// SyntaxError reports malformed encoded content.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("codec: %s at offset %d", e.Msg, e.Offset)
}

// Parse tokenizes encoded content into a tree of nodes.
func Parse(content string) ([]Node, error) {
	p := parser{src: content}
	nodes, err := p.parseUntil("")
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

type parser struct {
	src string
	pos int
}

// parseUntil parses nodes until the closing tag of element closing, or the
// end of input when closing is empty.
func (p *parser) parseUntil(closing string) ([]Node, error) {
	var nodes []Node
	var text strings.Builder

	flush := func() {
		if text.Len() > 0 {
			nodes = append(nodes, Node{Kind: KindText, Text: text.String()})
			text.Reset()
		}
	}

	for p.pos < len(p.src) {
		c := p.src[p.pos]
		rest := p.src[p.pos:]

		switch {
		case c == escapeChar:
			if p.pos+1 < len(p.src) {
				text.WriteByte(p.src[p.pos+1])
				p.pos += 2
			} else {
				text.WriteByte(c)
				p.pos++
			}

		case c == '{':
			end := strings.IndexByte(rest, '}')
			if end < 0 {
				return nil, &SyntaxError{Offset: p.pos, Msg: "unterminated variable"}
			}
			path := rest[1:end]
			if !validPath(path) {
				return nil, &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf("invalid variable %q", path)}
			}
			flush()
			nodes = append(nodes, Node{Kind: KindVariable, Name: path})
			p.pos += end + 1

		case strings.HasPrefix(rest, expressionToken):
			flush()
			nodes = append(nodes, Node{Kind: KindExpression})
			p.pos += len(expressionToken)

		case strings.HasPrefix(rest, functionPrefix):
			name, n, err := p.name(functionPrefix, selfCloseSuffix)
			if err != nil {
				return nil, err
			}
			flush()
			nodes = append(nodes, Node{Kind: KindFunction, Name: name})
			p.pos += n

		case strings.HasPrefix(rest, elementClose):
			name, n, err := p.name(elementClose, ">")
			if err != nil {
				return nil, err
			}
			if name != closing {
				return nil, &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf("unexpected closing element %q", name)}
			}
			flush()
			p.pos += n
			return nodes, nil

		case strings.HasPrefix(rest, elementOpen):
			name, n, err := p.name(elementOpen, ">")
			if err != nil {
				return nil, err
			}
			flush()
			p.pos += n
			children, err := p.parseUntil(name)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, Node{Kind: KindElement, Name: name, Children: children})

		case c == '<' || c == '>' || c == '}':
			return nil, &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf("unescaped %q", c)}

		default:
			text.WriteByte(c)
			p.pos++
		}
	}

	if closing != "" {
		return nil, &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf("unclosed element %q", closing)}
	}
	flush()
	return nodes, nil
}

// name reads a token name between prefix and suffix at the current position
// and returns it with the total token length.
func (p *parser) name(prefix, suffix string) (string, int, error) {
	rest := p.src[p.pos+len(prefix):]
	end := strings.Index(rest, suffix)
	if end < 0 {
		return "", 0, &SyntaxError{Offset: p.pos, Msg: "unterminated " + strings.Trim(prefix, "</:")}
	}
	name := rest[:end]
	if !validName(name) {
		return "", 0, &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf("invalid name %q", name)}
	}
	return name, len(prefix) + end + len(suffix), nil
}

func validName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && ((r >= '0' && r <= '9') || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

func validPath(s string) bool {
	for _, part := range strings.Split(s, ".") {
		if !validName(part) || strings.ContainsAny(part, "-") {
			return false
		}
	}
	return true
}

// ValidName reports whether s can be used as a function or element name.
func ValidName(s string) bool {
	return validName(s)
}

// ValidPath reports whether s can be used as a variable path.
func ValidPath(s string) bool {
	return validPath(s)
}

// Encode renders nodes back into encoded content.
func Encode(nodes []Node) string {
	var b strings.Builder
	encodeTo(&b, nodes)
	return b.String()
}

func encodeTo(b *strings.Builder, nodes []Node) {
	for _, n := range nodes {
		switch n.Kind {
		case KindText:
			b.WriteString(Escape(n.Text))
		case KindVariable:
			b.WriteString(Variable(n.Name))
		case KindFunction:
			b.WriteString(Function(n.Name))
		case KindExpression:
			b.WriteString(expressionToken)
		case KindElement:
			b.WriteString(elementOpen + n.Name + ">")
			encodeTo(b, n.Children)
			b.WriteString(elementClose + n.Name + ">")
		}
	}
}

// ElementFunc renders an element occurrence around its decoded inner content.
type ElementFunc func(inner string) string

// Replacements supplies values for placeholder tokens when decoding.
//
// Functions and Elements are keyed by name and consumed in occurrence
// order; Expressions are consumed in occurrence order across the content.
type Replacements struct {
	Variables   map[string]string
	Functions   map[string][]string
	Elements    map[string][]ElementFunc
	Expressions []string
}

// Decode substitutes tokens in content with the supplied replacements.
//
// The Nth occurrence of a token kind (per name for functions and elements)
// takes the Nth replacement. Tokens without a replacement are kept in their
// encoded form. Content that does not parse is returned unchanged.
func Decode(content string, r Replacements) string {
	nodes, err := Parse(content)
	if err != nil {
		return content
	}
	d := decoder{r: r, fn: map[string]int{}, el: map[string]int{}}
	var b strings.Builder
	d.decode(&b, nodes)
	return b.String()
}

type decoder struct {
	r    Replacements
	fn   map[string]int
	el   map[string]int
	expr int
}

func (d *decoder) decode(b *strings.Builder, nodes []Node) {
	for _, n := range nodes {
		switch n.Kind {
		case KindText:
			b.WriteString(n.Text)

		case KindVariable:
			if v, ok := d.r.Variables[n.Name]; ok {
				b.WriteString(v)
			} else {
				b.WriteString(Variable(n.Name))
			}

		case KindFunction:
			i := d.fn[n.Name]
			d.fn[n.Name]++
			if vals := d.r.Functions[n.Name]; i < len(vals) {
				b.WriteString(vals[i])
			} else {
				b.WriteString(Function(n.Name))
			}

		case KindExpression:
			i := d.expr
			d.expr++
			if i < len(d.r.Expressions) {
				b.WriteString(d.r.Expressions[i])
			} else {
				b.WriteString(expressionToken)
			}

		case KindElement:
			i := d.el[n.Name]
			d.el[n.Name]++
			var inner strings.Builder
			d.decode(&inner, n.Children)
			if fns := d.r.Elements[n.Name]; i < len(fns) && fns[i] != nil {
				b.WriteString(fns[i](inner.String()))
			} else {
				b.WriteString(Element(n.Name, inner.String()))
			}
		}
	}
}

// Signature is the multiset of placeholder tokens in a piece of content.
type Signature map[string]int

// Placeholders returns the token signature of encoded content.
func Placeholders(content string) (Signature, error) {
	nodes, err := Parse(content)
	if err != nil {
		return nil, err
	}
	sig := Signature{}
	collect(sig, nodes)
	return sig, nil
}

func collect(sig Signature, nodes []Node) {
	for _, n := range nodes {
		switch n.Kind {
		case KindVariable:
			sig["{"+n.Name+"}"]++
		case KindFunction:
			sig[Function(n.Name)]++
		case KindExpression:
			sig[expressionToken]++
		case KindElement:
			sig[elementOpen+n.Name+">"]++
			collect(sig, n.Children)
		}
	}
}

// Equal reports whether both signatures hold the same tokens with the same counts.
func (s Signature) Equal(other Signature) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		if other[k] != v {
			return false
		}
	}
	return true
}

// String lists the tokens in sorted order, e.g. "{name}x1 <expression/>x2".
func (s Signature) String() string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%sx%d", k, s[k])
	}
	return strings.Join(parts, " ")
}
