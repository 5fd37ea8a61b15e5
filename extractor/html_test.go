package extractor

import (
	"context"
	"strings"
	"testing"

	lingo "github.com/sumitsaurabh927/lingo.dev-sub001"
	"github.com/sumitsaurabh927/lingo.dev-sub001/codec"
	"github.com/sumitsaurabh927/lingo.dev-sub001/registry"
)

func extract(t *testing.T, content string, opts ...Option) (registry.Snapshot, Result) {
	t.Helper()
	reg := registry.New(registry.NewMemoryStore())
	res, err := NewHTMLExtractor(opts...).ExtractString(reg, "index.html", content)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	return reg.Snapshot(), res
}

func TestHTMLExtractor_Basic(t *testing.T) {
	snap, res := extract(t, `<div><h1>Hello World</h1><p>Welcome to our site.</p></div>`)

	if res.Elements != 2 {
		t.Fatalf("Expected 2 element scopes, got %d", res.Elements)
	}

	h1, ok := snap.Lookup("index.html", "html/body[0]/div[0]/h1[0]")
	if !ok {
		t.Fatalf("Expected h1 scope, got %v", snap.Files)
	}
	if h1.Content != "Hello World" {
		t.Errorf("Expected 'Hello World', got %q", h1.Content)
	}
	if h1.Type != registry.TypeElement {
		t.Errorf("Expected element type, got %q", h1.Type)
	}
	if h1.Hash != lingo.HashContent("Hello World") {
		t.Errorf("Expected content hash, got %q", h1.Hash)
	}

	p, _ := snap.Lookup("index.html", "html/body[0]/div[0]/p[0]")
	if p.Content != "Welcome to our site." {
		t.Errorf("Expected 'Welcome to our site.', got %q", p.Content)
	}
}

func TestHTMLExtractor_IgnoredTags(t *testing.T) {
	snap, res := extract(t, `<div>
		<p>Translate me</p>
		<script>doNotTranslate();</script>
		<style>.class { color: red; }</style>
		<pre>preformatted</pre>
		<textarea>form input</textarea>
	</div>`)

	// Only "Translate me" should be extracted
	if res.Scopes() != 1 {
		t.Fatalf("Expected 1 scope, got %d: %v", res.Scopes(), snap.Files)
	}
}

func TestHTMLExtractor_InlineMarkup(t *testing.T) {
	snap, _ := extract(t, `<p>Click <a href="/x">here <b>now</b></a>, then   wait.</p>`)

	sc, ok := snap.Lookup("index.html", "html/body[0]/p[0]")
	if !ok {
		t.Fatal("Expected paragraph scope")
	}
	expected := "Click <element:a>here <element:b>now</element:b></element:a>, then wait."
	if sc.Content != expected {
		t.Errorf("Expected %q, got %q", expected, sc.Content)
	}
	if _, err := codec.Parse(sc.Content); err != nil {
		t.Errorf("Content does not parse: %v", err)
	}
	if snap.Len() != 1 {
		t.Errorf("Expected inline elements not to become scopes, got %d scopes", snap.Len())
	}
}

func TestHTMLExtractor_Placeholders(t *testing.T) {
	snap, _ := extract(t, `<p>Hi <span data-lingo-var="user.name">Ana</span>, you have <span data-lingo-fn="getCount">3</span> items <code>x</code> <span data-lingo-expr>!</span></p>`)

	sc, _ := snap.Lookup("index.html", "html/body[0]/p[0]")
	expected := "Hi {user.name}, you have <function:getCount/> items <expression/> <expression/>"
	if sc.Content != expected {
		t.Errorf("Expected %q, got %q", expected, sc.Content)
	}
}

func TestHTMLExtractor_InvalidPlaceholderNames(t *testing.T) {
	snap, _ := extract(t, `<p>Hi <span data-lingo-var="1bad">x</span></p>`)

	sc, _ := snap.Lookup("index.html", "html/body[0]/p[0]")
	if sc.Content != "Hi <expression/>" {
		t.Errorf("Expected invalid variable to become an expression, got %q", sc.Content)
	}
}

func TestHTMLExtractor_EscapesReserved(t *testing.T) {
	snap, _ := extract(t, `<p>Use {braces} &lt;carefully&gt;</p>`)

	sc, _ := snap.Lookup("index.html", "html/body[0]/p[0]")
	if sc.Content != `Use \{braces\} \<carefully\>` {
		t.Errorf("Unexpected content %q", sc.Content)
	}
	if got := codec.Decode(sc.Content, codec.Replacements{}); got != "Use {braces} <carefully>" {
		t.Errorf("Decode = %q", got)
	}
}

func TestHTMLExtractor_Attributes(t *testing.T) {
	snap, res := extract(t, `<form><input placeholder="Search the site"><img alt="Logo" src="/l.png"><button title="Send it">Send</button></form>`)

	if res.Attributes != 3 {
		t.Errorf("Expected 3 attribute scopes, got %d", res.Attributes)
	}

	sc, ok := snap.Lookup("index.html", "html/body[0]/form[0]/input[0]@placeholder")
	if !ok {
		t.Fatalf("Expected placeholder scope, got %v", snap.Files)
	}
	if sc.Type != registry.TypeAttribute || sc.Content != "Search the site" {
		t.Errorf("Unexpected attribute scope %+v", sc)
	}
	if !strings.Contains(sc.Context, "placeholder") {
		t.Errorf("Expected attribute context, got %q", sc.Context)
	}

	if _, ok := snap.Lookup("index.html", "html/body[0]/form[0]/button[0]"); !ok {
		t.Error("Expected button text scope")
	}
}

func TestHTMLExtractor_NoTranslate(t *testing.T) {
	snap, res := extract(t, `<div>
		<p data-no-translate title="Keep">Keep this</p>
		<p>Translate this</p>
	</div>`)

	sc, ok := snap.Lookup("index.html", "html/body[0]/div[0]/p[0]")
	if !ok {
		t.Fatal("Expected skipped scope to be recorded")
	}
	if !sc.Skip {
		t.Error("Expected skip to be set")
	}
	if attr, _ := snap.Lookup("index.html", "html/body[0]/div[0]/p[0]@title"); !attr.Skip {
		t.Error("Expected attribute of skipped element to be skipped")
	}
	if res.Skipped != 2 {
		t.Errorf("Expected 2 skipped scopes, got %d", res.Skipped)
	}

	other, _ := snap.Lookup("index.html", "html/body[0]/div[0]/p[1]")
	if other.Skip {
		t.Error("Expected sibling not to be skipped")
	}
}

func TestHTMLExtractor_Overrides(t *testing.T) {
	snap, _ := extract(t, `<p data-lingo-override-fr="Bonjour" data-lingo-override-de="Hallo">Hello</p>`)

	sc, _ := snap.Lookup("index.html", "html/body[0]/p[0]")
	if sc.Overrides["fr"] != "Bonjour" || sc.Overrides["de"] != "Hallo" {
		t.Errorf("Unexpected overrides %v", sc.Overrides)
	}
}

func TestHTMLExtractor_Context(t *testing.T) {
	snap, _ := extract(t, `<nav><ul><li class="menu-item">Home</li><li data-lingo-context="verb, not noun">Open</li></ul></nav>`)

	sc, _ := snap.Lookup("index.html", "html/body[0]/nav[0]/ul[0]/li[0]")
	if !strings.Contains(sc.Context, `class="menu-item"`) {
		t.Errorf("Expected class in context, got %q", sc.Context)
	}
	if !strings.Contains(sc.Context, "nav > ul") {
		t.Errorf("Expected ancestors in context, got %q", sc.Context)
	}

	explicit, _ := snap.Lookup("index.html", "html/body[0]/nav[0]/ul[0]/li[1]")
	if explicit.Context != "verb, not noun" {
		t.Errorf("Expected explicit context, got %q", explicit.Context)
	}
}

func TestHTMLExtractor_NestedBlocks(t *testing.T) {
	snap, res := extract(t, `<div>Intro text<p>Inner paragraph</p>outro</div>`)

	if res.Elements != 2 {
		t.Errorf("Expected 2 element scopes, got %d", res.Elements)
	}
	outer, _ := snap.Lookup("index.html", "html/body[0]/div[0]")
	if outer.Content != "Intro text outro" {
		t.Errorf("Expected block child to be left out, got %q", outer.Content)
	}
}

func TestHTMLExtractor_Title(t *testing.T) {
	snap, _ := extract(t, `<html><head><title>My Page</title></head><body></body></html>`)

	if sc, ok := snap.Lookup("index.html", "html/head[0]/title[0]"); !ok || sc.Content != "My Page" {
		t.Errorf("Expected title scope, got %+v", sc)
	}
}

func TestHTMLExtractor_ReplacesPreviousPass(t *testing.T) {
	reg := registry.New(registry.NewMemoryStore())
	e := NewHTMLExtractor()

	if _, err := e.ExtractString(reg, "index.html", `<p data-lingo-override-fr="Salut">Hello</p><p>Gone soon</p>`); err != nil {
		t.Fatal(err)
	}
	if _, err := e.ExtractString(reg, "other.html", `<p>Other</p>`); err != nil {
		t.Fatal(err)
	}
	if _, err := e.ExtractString(reg, "index.html", `<p>Hello</p>`); err != nil {
		t.Fatal(err)
	}

	snap := reg.Snapshot()
	sc, _ := snap.Lookup("index.html", "html/body[0]/p[0]")
	if sc.Overrides != nil {
		t.Errorf("Expected overrides from the previous pass to be gone, got %v", sc.Overrides)
	}
	if _, ok := snap.Lookup("index.html", "html/body[0]/p[1]"); ok {
		t.Error("Expected removed scope to be gone")
	}
	if _, ok := snap.Lookup("other.html", "html/body[0]/p[0]"); !ok {
		t.Error("Expected other document to be untouched")
	}

	// An identical pass persists nothing new.
	ctx := context.Background()
	if _, err := reg.Persist(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := e.ExtractString(reg, "index.html", `<p>Hello</p>`); err != nil {
		t.Fatal(err)
	}
	if wrote, _ := reg.Persist(ctx); wrote {
		t.Error("Expected identical extraction pass not to change the registry")
	}
}

func TestHTMLExtractor_CustomOptions(t *testing.T) {
	snap, res := extract(t, `<div><p>Text</p><aside>Side</aside><img alt="x" title="y"></div>`,
		WithIgnoredTags([]string{"aside"}),
		WithAttributes([]string{"title"}),
	)

	if res.Elements != 1 || res.Attributes != 1 {
		t.Errorf("Unexpected result %+v: %v", res, snap.Files)
	}
}
