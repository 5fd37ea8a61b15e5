package lingo

import (
	"fmt"
	"sync"
)

// Wildcard matches any target locale in a Router.
const Wildcard = "*"

// Router maps target locales to translation backends.
//
// Resolution tries the exact normalized locale first, then its base
// language, then the wildcard route.
type Router struct {
	mu     sync.RWMutex
	routes map[string]Backend
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{routes: make(map[string]Backend)}
}

// Route registers backend for a locale, a base language or Wildcard.
func (r *Router) Route(pattern string, backend Backend) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pattern != Wildcard {
		pattern = NormalizeLocale(pattern)
	}
	r.routes[pattern] = backend
	return r
}

// Resolve returns the backend responsible for translating into target.
func (r *Router) Resolve(source, target string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, key := range []string{NormalizeLocale(target), BaseLanguage(target), Wildcard} {
		if b, ok := r.routes[key]; ok && b != nil {
			return b, nil
		}
	}
	return nil, &ConfigError{
		Message: fmt.Sprintf("no translation backend configured for %s -> %s", source, target),
	}
}
