package preview

import (
	"context"
	"os"
	"sync"
	"time"
)

// Watcher polls a fixed set of files and reports the ones that were
// created, modified or removed since the last poll.
type Watcher struct {
	paths    []string
	interval time.Duration

	mu       sync.Mutex
	onChange func(path string)
	mtimes   map[string]time.Time
}

// NewWatcher creates a watcher polling paths every interval (default 1s).
func NewWatcher(interval time.Duration, paths ...string) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}
	w := &Watcher{
		paths:    paths,
		interval: interval,
		mtimes:   make(map[string]time.Time),
	}
	w.check()
	return w
}

// OnChange sets the callback for changed files.
func (w *Watcher) OnChange(fn func(path string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Run polls until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			changed := w.check()
			w.mu.Lock()
			callback := w.onChange
			w.mu.Unlock()
			if callback == nil {
				continue
			}
			for _, p := range changed {
				callback(p)
			}
		}
	}
}

// check records the current modification times and returns the paths whose
// state differs from the previous check.
func (w *Watcher) check() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var changed []string
	for _, p := range w.paths {
		info, err := os.Stat(p)
		last, seen := w.mtimes[p]
		switch {
		case err != nil:
			if seen {
				delete(w.mtimes, p)
				changed = append(changed, p)
			}
		case !seen || !info.ModTime().Equal(last):
			w.mtimes[p] = info.ModTime()
			changed = append(changed, p)
		}
	}
	return changed
}
