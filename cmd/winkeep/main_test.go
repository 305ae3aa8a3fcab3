package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1broseidon/winkeep/internal/config"
	"github.com/1broseidon/winkeep/internal/engine"
	"github.com/1broseidon/winkeep/internal/ipc"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigValidate(t *testing.T) {
	good := writeConfig(t, "instance: work\nlog_level: debug\n")
	if rc := runConfig([]string{"validate", "--path", good}); rc != 0 {
		t.Fatalf("validate rc=%d, want 0", rc)
	}

	bad := writeConfig(t, "log_level: loud\n")
	if rc := runConfig([]string{"validate", "--path", bad}); rc != 1 {
		t.Fatalf("validate rc=%d, want 1", rc)
	}

	if rc := runConfig([]string{"frobnicate"}); rc != 2 {
		t.Fatalf("unknown subcommand rc=%d, want 2", rc)
	}
}

func TestConfigExplainRequiresKey(t *testing.T) {
	path := writeConfig(t, "instance: work\n")
	if rc := runConfig([]string{"explain", "--path", path}); rc != 2 {
		t.Fatalf("explain rc=%d, want 2", rc)
	}
}

func TestFormatSource(t *testing.T) {
	tests := []struct {
		src  config.Source
		want string
	}{
		{config.Source{Kind: config.SourceDefault}, "default"},
		{config.Source{Kind: config.SourceFile}, "file"},
		{config.Source{Kind: config.SourceFile, File: "/c.yaml"}, "file:/c.yaml"},
		{config.Source{Kind: config.SourceFile, File: "/c.yaml", Line: 3, Column: 1}, "file:/c.yaml:3:1"},
	}
	for _, tt := range tests {
		if got := formatSource(tt.src); got != tt.want {
			t.Errorf("formatSource(%+v) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestParseReasonArgs(t *testing.T) {
	reason, _, ok := parseReasonArgs("capture", "", "CLI: Capture", nil)
	if !ok || reason != "CLI: Capture" {
		t.Fatalf("default reason = %q, ok=%t", reason, ok)
	}

	reason, _, ok = parseReasonArgs("capture", "", "CLI: Capture", []string{"--reason", "before meeting"})
	if !ok || reason != "before meeting" {
		t.Fatalf("reason = %q, ok=%t", reason, ok)
	}

	if _, code, ok := parseReasonArgs("capture", "", "CLI: Capture", []string{"extra"}); ok || code != 2 {
		t.Fatalf("extra argument: ok=%t code=%d, want false 2", ok, code)
	}
}

func TestCaptureWithoutDaemon(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	if rc := runCapture(nil); rc != 1 {
		t.Fatalf("runCapture rc=%d, want 1", rc)
	}
}

func TestWriteStatus(t *testing.T) {
	var buf bytes.Buffer
	writeStatus(&buf, &ipc.StatusData{
		DaemonRunning:    true,
		Enabled:          true,
		Instance:         "winkeep",
		DisplayWidth:     1920,
		DisplayHeight:    1080,
		DisplaySignature: 192001080,
		Monitors:         []ipc.MonitorInfo{{ID: 0, Name: "eDP-1", Width: 1920, Height: 1080}},
		Stats:            engine.Stats{SavedWindows: 7},
	})

	out := buf.String()
	for _, want := range []string{"1920x1080 (signature 192001080)", "eDP-1 1920x1080+0+0", "saved_windows:     7"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}
