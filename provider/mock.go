package provider

import (
	"context"
	"fmt"
	"sync"

	lingo "github.com/sumitsaurabh927/lingo.dev-sub001"
)

// MockBackend is a mock translation backend for testing.
type MockBackend struct {
	mu sync.Mutex

	Translations map[string]string // Map of source text to translation
	FailOn       map[int]error     // Errors to return, by 1-based call number
	Calls        []Dictionary      // Chunks received, in call order
}

// NewMockBackend creates a new mock backend with default translations.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		Translations: map[string]string{
			"Hello":                "Hola",
			"World":                "Mundo",
			"Hello World":          "Hola Mundo",
			"Welcome to our site.": "Bienvenido a nuestro sitio.",
		},
	}
}

// Translate returns mock translations for every entry of chunk.
func (m *MockBackend) Translate(ctx context.Context, chunk Dictionary, sourceLocale, targetLocale string) (Dictionary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, chunk.Clone())
	if err, ok := m.FailOn[len(m.Calls)]; ok {
		return Dictionary{}, err
	}

	out := lingo.NewDictionary(targetLocale)
	for _, k := range chunk.Keys() {
		text, _ := chunk.Get(k.Document, k.Scope)
		if translation, ok := m.Translations[text]; ok {
			out.Set(k.Document, k.Scope, translation)
		} else {
			// Return bracketed text for unknown translations
			out.Set(k.Document, k.Scope, fmt.Sprintf("[%s]", text))
		}
	}

	return out, nil
}

// CallCount returns the number of times Translate was called.
func (m *MockBackend) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// Reset clears the recorded calls.
func (m *MockBackend) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
}

// Verify MockBackend implements Backend
var _ Backend = (*MockBackend)(nil)
