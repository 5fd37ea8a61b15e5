package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Readiness decides when the persisted registry is safe to read.
type Readiness interface {
	// Wait blocks until the registry has not changed for maxAge.
	Wait(ctx context.Context, maxAge time.Duration) error
}

// PollingConfig configures PollingReadiness.
type PollingConfig struct {
	Interval    time.Duration // first poll delay (default: 100ms)
	MaxInterval time.Duration // backoff cap (default: 2s)
}

// PollingReadiness polls the store modification time with exponential backoff.
type PollingReadiness struct {
	store       Store
	interval    time.Duration
	maxInterval time.Duration
	now         func() time.Time
}

// NewPollingReadiness creates a polling readiness check over store.
func NewPollingReadiness(store Store, cfg PollingConfig) *PollingReadiness {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	maxInterval := cfg.MaxInterval
	if maxInterval < interval {
		maxInterval = 2 * time.Second
		if maxInterval < interval {
			maxInterval = interval
		}
	}
	return &PollingReadiness{
		store:       store,
		interval:    interval,
		maxInterval: maxInterval,
		now:         time.Now,
	}
}

// Wait polls until the store is older than maxAge.
func (p *PollingReadiness) Wait(ctx context.Context, maxAge time.Duration) error {
	delay := p.interval
	for {
		mod, err := p.store.ModTime(ctx)
		if err != nil {
			return fmt.Errorf("checking registry age: %w", err)
		}

		age := p.now().Sub(mod)
		if age >= maxAge {
			return nil
		}

		wait := maxAge - age
		if wait > delay {
			wait = delay
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > p.maxInterval {
			delay = p.maxInterval
		}
	}
}

// WatchReadiness waits for a quiet period using filesystem notifications
// on the registry file instead of polling.
type WatchReadiness struct {
	path string
}

// NewWatchReadiness creates a readiness check watching the file at path.
func NewWatchReadiness(path string) *WatchReadiness {
	return &WatchReadiness{path: filepath.Clean(path)}
}

// Wait returns once no write to the file has been seen for maxAge.
func (w *WatchReadiness) Wait(ctx context.Context, maxAge time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: atomic writes replace the file itself.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}

	info, err := os.Stat(w.path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", w.path, err)
	}
	remaining := maxAge - time.Since(info.ModTime())
	if remaining <= 0 {
		return nil
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-timer.C:
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(maxAge)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching %s: %w", w.path, err)
		}
	}
}

// SignalReadiness is a push-based readiness check: the extractor calls
// Begin when a pass starts and Done when it finishes.
//
// The quiet period is measured from the last Done; a Begin during that
// period restarts the wait.
type SignalReadiness struct {
	mu       sync.Mutex
	done     chan struct{}
	finished time.Time
}

// NewSignalReadiness creates a readiness signal in the finished state.
func NewSignalReadiness() *SignalReadiness {
	done := make(chan struct{})
	close(done)
	return &SignalReadiness{done: done}
}

// Begin marks the start of an extraction pass.
func (s *SignalReadiness) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		s.done = make(chan struct{})
	default:
	}
}

// Done marks the end of the current extraction pass.
func (s *SignalReadiness) Done() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.finished = time.Now()
}

// Wait blocks until no pass is running and maxAge has passed since the last Done.
func (s *SignalReadiness) Wait(ctx context.Context, maxAge time.Duration) error {
	for {
		s.mu.Lock()
		done := s.done
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
		}

		s.mu.Lock()
		current := s.done
		remaining := maxAge - time.Since(s.finished)
		s.mu.Unlock()

		if current != done {
			continue
		}
		if remaining <= 0 {
			return nil
		}

		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
