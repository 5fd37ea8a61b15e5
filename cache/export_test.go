package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	lingo "github.com/sumitsaurabh927/lingo.dev-sub001"
)

func populatedCache(t *testing.T) *DictionaryCache {
	t.Helper()
	c := NewDictionaryCache(NewMemoryStore())
	snap := snapshotOf(scopeDef{"a", "k1", "Hello"}, scopeDef{"b", "k2", "Hello"}, scopeDef{"a", "k3", "World"})

	ctx := context.Background()
	if err := c.WriteLocale(ctx, dictOf("es", map[string]map[string]string{"a": {"k1": "Hola", "k3": "Mundo"}, "b": {"k2": "Hola"}}), snap); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestExporter_Export(t *testing.T) {
	exporter := NewExporter(populatedCache(t))
	var buf bytes.Buffer

	err := exporter.Export(context.Background(), &buf, map[string]string{"lang": "es"})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	// Parse the output
	var export ExportFormat
	if err := json.Unmarshal(buf.Bytes(), &export); err != nil {
		t.Fatalf("Failed to parse export: %v", err)
	}

	if export.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", export.Version)
	}

	// Two scopes share "Hello", so only two distinct hashes are exported.
	if len(export.Entries) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(export.Entries))
	}

	if export.Metadata["lang"] != "es" {
		t.Errorf("Expected metadata lang=es, got %v", export.Metadata)
	}

	want := lingo.CacheKey(lingo.HashContent("Hello"), "es")
	found := false
	for _, e := range export.Entries {
		if e.Key == want && e.Value == "Hola" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected entry %s=Hola in %+v", want, export.Entries)
	}
}

func TestImporter_Import(t *testing.T) {
	ctx := context.Background()
	c := populatedCache(t)
	hello := lingo.HashContent("Hello")

	jsonData := `{
		"version": "1.0",
		"exported_at": "2024-01-01T00:00:00Z",
		"entries": [
			{"key": "` + hello + `:fr", "value": "Bonjour"},
			{"key": "unknownhash:fr", "value": "Nope"},
			{"key": "malformed", "value": "x"}
		],
		"metadata": {"lang": "fr"}
	}`

	result, err := NewImporter(c).Import(ctx, strings.NewReader(jsonData))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if result.Imported != 1 {
		t.Errorf("Expected 1 imported, got %d", result.Imported)
	}
	if result.Failed != 2 {
		t.Errorf("Expected 2 failed, got %d", result.Failed)
	}

	// Every record with the hash receives the value.
	snap := snapshotOf(scopeDef{"a", "k1", "Hello"}, scopeDef{"b", "k2", "Hello"})
	got, _ := c.ReadLocale(ctx, "fr", snap)
	if v, _ := got.Get("b", "k2"); v != "Bonjour" {
		t.Errorf("Expected imported value on shared record, got %q", v)
	}
	doc, _ := c.Document(ctx)
	if e, _ := doc.Lookup("a", "k1"); e.Content["es"] != "Hola" {
		t.Errorf("Expected existing locale untouched, got %v", e.Content)
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := populatedCache(t)

	var buf bytes.Buffer
	if err := NewExporter(src).Export(ctx, &buf, nil); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	// The destination knows the scopes but has no translations yet.
	dst := NewDictionaryCache(NewMemoryStore())
	snap := snapshotOf(scopeDef{"x", "greeting", "Hello"}, scopeDef{"x", "place", "World"})
	if err := dst.WriteLocale(ctx, dictOf("de", map[string]map[string]string{"x": {"greeting": "Hallo", "place": "Welt"}}), snap); err != nil {
		t.Fatal(err)
	}

	result, err := NewImporter(dst).Import(ctx, &buf)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Imported != 2 {
		t.Errorf("Expected 2 imported, got %d", result.Imported)
	}

	got, _ := dst.ReadLocale(ctx, "es", snap)
	if v, _ := got.Get("x", "place"); v != "Mundo" {
		t.Errorf("Expected 'Mundo', got %q", v)
	}
}

func TestExporter_EmptyCache(t *testing.T) {
	exporter := NewExporter(NewDictionaryCache(NewMemoryStore()))

	var buf bytes.Buffer
	if err := exporter.Export(context.Background(), &buf, nil); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var export ExportFormat
	if err := json.Unmarshal(buf.Bytes(), &export); err != nil {
		t.Fatal(err)
	}

	if len(export.Entries) != 0 {
		t.Errorf("Expected 0 entries for empty cache, got %d", len(export.Entries))
	}
}

func TestImporter_InvalidJSON(t *testing.T) {
	importer := NewImporter(NewDictionaryCache(NewMemoryStore()))

	_, err := importer.Import(context.Background(), strings.NewReader("invalid json"))
	if err == nil {
		t.Error("Expected error for invalid JSON")
	}
}
