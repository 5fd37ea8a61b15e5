// Package provider implements translation backends.
package provider

import lingo "github.com/sumitsaurabh927/lingo.dev-sub001"

// Backend is the interface for translation backends.
// This is an alias to the main package interface for convenience.
type Backend = lingo.Backend

// Dictionary is an alias to the main package type.
type Dictionary = lingo.Dictionary
