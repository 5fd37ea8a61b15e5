package lingo

import "fmt"

// TranslationError is the base error type for pipeline failures.
type TranslationError struct {
	Message string
	Locale  string
	Cause   error
}

func (e *TranslationError) Error() string {
	msg := e.Message
	if e.Locale != "" {
		msg = fmt.Sprintf("%s (%s)", e.Message, e.Locale)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// ProviderError indicates a translation backend failure (API error, rate limit, etc.).
type ProviderError struct {
	Message   string
	Cause     error
	Retryable bool // Whether the operation can be retried
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// StoreError indicates a registry or cache persistence failure.
type StoreError struct {
	Store string // "registry" or "cache"
	Op    string // "read", "write", ...
	Cause error
}

func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s failed: %v", e.Store, e.Op, e.Cause)
	}
	return fmt.Sprintf("%s %s failed", e.Store, e.Op)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// ConfigError indicates a configuration problem that must abort the run
// before any translation work starts.
type ConfigError struct {
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}
