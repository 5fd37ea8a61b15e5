package lingo

// DiffResult represents the difference between a source dictionary and the
// cached dictionary of a target locale.
type DiffResult struct {
	// Uncached contains source entries without a cache record at the same
	// document and scope key. These must be translated.
	Uncached Dictionary

	// Cached contains cache entries that are also present in the source.
	Cached Dictionary

	// Removed contains cache entries whose key no longer exists in the source.
	Removed Dictionary
}

// DiffStats contains summary statistics for a diff.
type DiffStats struct {
	Uncached int
	Cached   int
	Removed  int
}

// Stats returns summary statistics for the diff.
func (d *DiffResult) Stats() DiffStats {
	return DiffStats{
		Uncached: d.Uncached.Len(),
		Cached:   d.Cached.Len(),
		Removed:  d.Removed.Len(),
	}
}

// HasChanges returns true if anything needs translation.
func (d *DiffResult) HasChanges() bool {
	return d.Uncached.Len() > 0
}

// DiffDictionaries compares a source dictionary with a cache read.
//
// An entry counts as cached only when the same (document, scope) key is
// present in cached. A scope whose content is cached under another key is
// still reported as uncached until it gets a direct record.
func DiffDictionaries(source, cached Dictionary) *DiffResult {
	return &DiffResult{
		Uncached: Subtract(source, cached),
		Cached:   Intersect(cached, source),
		Removed:  Subtract(cached, source),
	}
}

// Subtract returns the entries of a whose keys are absent from b.
func Subtract(a, b Dictionary) Dictionary {
	out := NewDictionary(a.Locale)
	for doc, f := range a.Files {
		for key, value := range f.Entries {
			if !b.Has(doc, key) {
				out.Set(doc, key, value)
			}
		}
	}
	return out
}

// Intersect returns the entries of a whose keys are also present in b.
func Intersect(a, b Dictionary) Dictionary {
	out := NewDictionary(a.Locale)
	for doc, f := range a.Files {
		for key, value := range f.Entries {
			if b.Has(doc, key) {
				out.Set(doc, key, value)
			}
		}
	}
	return out
}

// Overlay merges top over base. Values from top replace values from base
// for the same key, base fills the gaps. The result carries top's locale.
func Overlay(base, top Dictionary) Dictionary {
	out := base.WithLocale(top.Locale)
	for doc, f := range top.Files {
		for key, value := range f.Entries {
			out.Set(doc, key, value)
		}
	}
	return out
}

// FillMissing returns primary completed with fallback. Keys present in
// primary keep their value, empty strings included; keys only present in
// fallback take the fallback value. The result carries primary's locale.
func FillMissing(primary, fallback Dictionary) Dictionary {
	out := primary.Clone()
	for doc, f := range fallback.Files {
		for key, value := range f.Entries {
			if !out.Has(doc, key) {
				out.Set(doc, key, value)
			}
		}
	}
	return out
}
