package preview

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/toyreact/internal/history"
)

func TestHistoryRoutes(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	s := newServer(t, Options{App: "counter", History: store})
	h := s.Handler()

	snapshot, _ := s.Snapshot()
	do(t, h, "POST", "/events", `{"hid":"`+hidOf(t, snapshot)+`","type":"click"}`)
	do(t, h, "POST", "/events", `{"hid":"`+hidOf(t, snapshot)+`","type":"keydown"}`) // no listener, not recorded

	rec := do(t, h, "GET", "/history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var listing struct {
		App       string             `json:"app"`
		Snapshots []history.Snapshot `json:"snapshots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatal(err)
	}
	var versions []uint64
	for _, snap := range listing.Snapshots {
		versions = append(versions, snap.Version)
	}
	if listing.App != "counter" {
		t.Errorf("app = %q, want counter", listing.App)
	}
	if diff := cmp.Diff([]uint64{1, 2}, versions); diff != "" {
		t.Errorf("versions mismatch (-want +got):\n%s", diff)
	}

	rec = do(t, h, "GET", "/history/2", "")
	if rec.Code != http.StatusOK || countOf(rec.Body.String()) != "1" {
		t.Errorf("snapshot 2 = %d %s", rec.Code, rec.Body.String())
	}
	if v := rec.Header().Get("X-Toyreact-Version"); v != "2" {
		t.Errorf("version header = %q, want 2", v)
	}
	if rec := do(t, h, "GET", "/history/1", ""); countOf(rec.Body.String()) != "0" {
		t.Errorf("snapshot 1 = %s", rec.Body.String())
	}

	for _, path := range []string{"/history/9", "/history/x", "/history/1?app=todo"} {
		if rec := do(t, h, "GET", path, ""); rec.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, rec.Code)
		}
	}

	rec = do(t, h, "GET", "/history?app=todo", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "{\"app\":\"todo\",\"snapshots\":[]}\n" {
		t.Errorf("todo history = %d %q", rec.Code, rec.Body.String())
	}
}

func TestNoHistoryRoutesWithoutStore(t *testing.T) {
	s := newServer(t, Options{App: "counter"})
	if rec := do(t, s.Handler(), "GET", "/history", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
