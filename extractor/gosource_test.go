package extractor

import (
	"testing"

	"github.com/sumitsaurabh927/lingo.dev-sub001/registry"
)

const goSource = `package main

import (
	"fmt"
	"net/http"
)

//go:generate stringer -type=Mode

// Greeter prints greetings.
type Greeter struct {
	Name string ` + "`json:\"name\"`" + `
}

// Greet says hello.
func (g *Greeter) Greet() {
	fmt.Printf("Hello %s, you have %d new messages!\n", g.Name, 3)
	/* Another comment */
	fmt.Println("100%% done")
	_ = http.MethodGet
	_ = "OK"
	_ = "config/path"
}

var banner = ` + "`Welcome to the app`" + `
`

func extractGo(t *testing.T, content string, opts ...GoOption) (registry.Snapshot, Result) {
	t.Helper()
	reg := registry.New(registry.NewMemoryStore())
	res, err := NewGoExtractor(opts...).ExtractString(reg, "main.go", content)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	return reg.Snapshot(), res
}

func contents(snap registry.Snapshot) map[string]registry.Scope {
	byContent := make(map[string]registry.Scope)
	snap.Each(func(_, _ string, s registry.Scope) {
		byContent[s.Content] = s
	})
	return byContent
}

func TestGoExtractor_Strings(t *testing.T) {
	snap, _ := extractGo(t, goSource, WithComments(false))
	found := contents(snap)

	s, ok := found["Hello <expression/>, you have <expression/> new messages!"]
	if !ok {
		t.Fatalf("Expected format string with verbs encoded, got %v", found)
	}
	if s.Context != "Go string literal in (*Greeter).Greet" {
		t.Errorf("Unexpected context %q", s.Context)
	}
	if _, ok := found["100%% done"]; !ok {
		t.Errorf("Expected escaped percent to stay literal, got %v", found)
	}
	if s, ok := found["Welcome to the app"]; !ok || s.Context != "Go string literal" {
		t.Errorf("Expected raw string at package level, got %v", found)
	}
	if len(found) != 3 {
		t.Errorf("Expected 3 string scopes, got %v", found)
	}
}

func TestGoExtractor_SkipsNonTranslatable(t *testing.T) {
	snap, _ := extractGo(t, goSource, WithComments(false))
	found := contents(snap)

	for _, s := range []string{"fmt", "net/http", "OK", "config/path", `json:"name"`} {
		if _, ok := found[s]; ok {
			t.Errorf("Expected %q to be skipped", s)
		}
	}
}

func TestGoExtractor_Comments(t *testing.T) {
	snap, _ := extractGo(t, goSource, WithStrings(false))
	found := contents(snap)

	if s, ok := found["Greeter prints greetings."]; !ok || s.Context != "Go doc comment of Greeter" {
		t.Errorf("Expected type doc comment, got %v", found)
	}
	if s, ok := found["Greet says hello."]; !ok || s.Context != "Go doc comment of (*Greeter).Greet" {
		t.Errorf("Expected method doc comment, got %v", found)
	}
	if s, ok := found["Another comment"]; !ok || s.Context != "Go source comment" {
		t.Errorf("Expected block comment, got %v", found)
	}
	if _, ok := found["go:generate stringer -type=Mode"]; ok {
		t.Error("Expected directive to be skipped")
	}
	if len(found) != 3 {
		t.Errorf("Expected 3 comment scopes, got %v", found)
	}
}

func TestGoExtractor_Keys(t *testing.T) {
	snap, res := extractGo(t, `package main

// Hello there.
var x = "Good morning"
`)

	if res.Elements != 2 {
		t.Fatalf("Expected 2 scopes, got %d", res.Elements)
	}
	if s, ok := snap.Lookup("main.go", "comment:3:1"); !ok || s.Content != "Hello there." {
		t.Errorf("Expected comment scope at 3:1, got %+v", snap.Files)
	}
	if s, ok := snap.Lookup("main.go", "string:4:9"); !ok || s.Content != "Good morning" {
		t.Errorf("Expected string scope at 4:9, got %+v", snap.Files)
	}
	if s, _ := snap.Lookup("main.go", "string:4:9"); s.Type != registry.TypeElement {
		t.Errorf("Expected element type, got %q", s.Type)
	}
}

func TestGoExtractor_ReplacesPreviousPass(t *testing.T) {
	reg := registry.New(registry.NewMemoryStore())
	e := NewGoExtractor()

	if _, err := e.ExtractString(reg, "main.go", `package main

var a = "First message"
`); err != nil {
		t.Fatal(err)
	}
	if _, err := e.ExtractString(reg, "main.go", `package main

var b = "Second message"
`); err != nil {
		t.Fatal(err)
	}

	found := contents(reg.Snapshot())
	if _, ok := found["First message"]; ok {
		t.Error("Expected scopes of the previous pass to be dropped")
	}
	if _, ok := found["Second message"]; !ok {
		t.Error("Expected scope of the latest pass")
	}
}

func TestGoExtractor_InvalidSource(t *testing.T) {
	reg := registry.New(registry.NewMemoryStore())
	if _, err := NewGoExtractor().ExtractString(reg, "main.go", "not go code {{{"); err == nil {
		t.Error("Expected parse error")
	}
}

func TestEncodeFormat(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"%v items", "<expression/> items"},
		{"width %-10.2f and %[1]q", "width <expression/> and <expression/>"},
		{"50%% off", "50%% off"},
	}
	for _, tt := range tests {
		if got := encodeFormat(tt.in); got != tt.want {
			t.Errorf("encodeFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestForPath(t *testing.T) {
	if _, ok := ForPath("cmd/main.go").(*GoExtractor); !ok {
		t.Error("Expected GoExtractor for .go files")
	}
	for _, path := range []string{"index.html", "page.HTM", "README"} {
		if _, ok := ForPath(path).(*HTMLExtractor); !ok {
			t.Errorf("Expected HTMLExtractor for %s", path)
		}
	}
}
