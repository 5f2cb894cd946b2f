package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/toyreact/internal/config"
	"github.com/vango-dev/toyreact/internal/errors"
	"github.com/vango-dev/toyreact/pkg/telemetry"
	"github.com/vango-dev/toyreact/pkg/ui"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"default app", []string{"render", "-c", dir}, []string{`<span class="count">0</span>`}},
		{"todo", []string{"render", "-c", dir, "--app", "todo"}, []string{`<section class="todo">`, "Todo (0 left)"}},
		{"page", []string{"render", "-c", dir, "-a", "greeting", "--page"}, []string{
			"<!DOCTYPE html>", "<title>greeting</title>", "<h1>Hello, toyreact!</h1>",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestRenderUsesConfigApp(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "toyreact.yaml"), []byte("app: greeting\n"), 0644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "render", "--config", dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `<article class="greeting">`) {
		t.Errorf("expected greeting app, got:\n%s", out)
	}
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"unknown app", []string{"render", "-c", dir, "--app", "tetris"}, "E501"},
		{"bad log level", []string{"render", "-c", dir, "--log-level", "loud"}, "E402"},
		{"missing config file", []string{"render", "-c", filepath.Join(dir, "nope.json")}, "E403"},
		{"publish without bucket", []string{"publish", "-c", dir}, "E702"},
		{"serve unknown app", []string{"serve", "-c", dir, "--app", "tetris"}, "E501"},
		{"serve unwritable history", []string{"serve", "-c", dir, "--history", filepath.Join(dir, "missing", "h.db")}, "E801"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if !errors.HasCode(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestTracerProviderWritesSpans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spans.json")
	var stderr bytes.Buffer
	tp, shutdown, err := tracerProvider(config.TracingConfig{TracerName: "preview", Output: path}, &stderr)
	if err != nil {
		t.Fatal(err)
	}
	tr := telemetry.NewTracer(telemetry.WithTracerProvider(tp))
	tr.Begin(ui.OpMount, "demo.Counter")(nil)
	shutdown()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"toyreact.mount", "demo.Counter", "preview"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("span output missing %q:\n%s", want, data)
		}
	}
	if stderr.Len() != 0 {
		t.Errorf("spans written to stderr with an output file set: %s", stderr.String())
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("version = %q, want %q", out, version)
	}

	out, _ = run(t, "version")
	if !strings.Contains(out, "Go version:") {
		t.Errorf("long version output missing Go version:\n%s", out)
	}
}
