package preview

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestWatcherCheck(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "toyreact.json")
	later := filepath.Join(dir, "toyreact.yaml")
	if err := os.WriteFile(existing, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	w := NewWatcher(time.Hour, existing, later)
	if got := w.check(); len(got) != 0 {
		t.Errorf("no changes expected, got %v", got)
	}

	future := time.Now().Add(time.Minute)
	if err := os.Chtimes(existing, future, future); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(later, []byte("app: todo\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{existing, later}, w.check()); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}

	if err := os.Remove(existing); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{existing}, w.check()); diff != "" {
		t.Errorf("removal mismatch (-want +got):\n%s", diff)
	}
	if got := w.check(); len(got) != 0 {
		t.Errorf("removal reported twice: %v", got)
	}
}

func TestWatcherRun(t *testing.T) {
	p := filepath.Join(t.TempDir(), "toyreact.json")
	w := NewWatcher(10*time.Millisecond, p)

	changed := make(chan string, 1)
	w.OnChange(func(path string) {
		select {
		case changed <- path:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	if err := os.WriteFile(p, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-changed:
		if got != p {
			t.Errorf("changed = %q, want %q", got, p)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
}

func TestSwitchApp(t *testing.T) {
	s := newServer(t, Options{App: "counter"})

	if err := s.SwitchApp("todo"); err != nil {
		t.Fatal(err)
	}
	snapshot, version := s.Snapshot()
	if s.App() != "todo" || version != 2 {
		t.Errorf("app = %q version %d, want todo at 2", s.App(), version)
	}
	if countOf(snapshot) != "" {
		t.Errorf("counter still rendered: %s", snapshot)
	}

	if err := s.SwitchApp("tetris"); err == nil {
		t.Error("SwitchApp(tetris) should fail")
	}
	if s.App() != "todo" {
		t.Errorf("failed switch changed app to %q", s.App())
	}
}
