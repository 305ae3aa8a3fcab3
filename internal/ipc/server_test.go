package ipc

import (
	"bufio"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/1broseidon/winkeep/internal/engine"
)

type fakeHandler struct {
	mu        sync.Mutex
	reasons   []string
	reloadErr error
	reloads   int
}

func (h *fakeHandler) Capture(reason string) engine.CaptureResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reasons = append(h.reasons, "capture:"+reason)
	return engine.CaptureResult{Reason: reason, Signature: 192001080, Windows: 3, Saved: true}
}

func (h *fakeHandler) Restore(reason string) engine.RestoreResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reasons = append(h.reasons, "restore:"+reason)
	return engine.RestoreResult{Reason: reason, Signature: 192001080, Restored: 2, Moved: 1, NotFound: 1}
}

func (h *fakeHandler) Status() StatusData {
	return StatusData{
		DaemonRunning: true,
		Enabled:       true,
		Instance:      "winkeep",
		DisplayWidth:  1920,
		DisplayHeight: 1080,
		Stats:         engine.Stats{Captures: 4},
	}
}

func (h *fakeHandler) Reload() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reloads++
	return h.reloadErr
}

func startServer(t *testing.T, h Handler) *Server {
	t.Helper()
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	srv, err := NewServer(h)
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	t.Cleanup(srv.Stop)
	return srv
}

func TestClientServerRoundTrip(t *testing.T) {
	h := &fakeHandler{}
	startServer(t, h)
	client := NewClient()

	captured, err := client.Capture("manual")
	if err != nil {
		t.Fatalf("Capture() error: %v", err)
	}
	if captured.Windows != 3 || !captured.Saved || captured.Reason != "manual" {
		t.Fatalf("Capture() = %+v", captured)
	}

	restored, err := client.Restore("")
	if err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	if restored.Moved != 1 || restored.NotFound != 1 || restored.Reason != "IPC: Restore" {
		t.Fatalf("Restore() = %+v", restored)
	}

	status, err := client.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus() error: %v", err)
	}
	if !status.DaemonRunning || status.DisplayWidth != 1920 || status.Stats.Captures != 4 {
		t.Fatalf("GetStatus() = %+v", status)
	}

	if err := client.Reload(); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	if err := client.Ping(); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}

	want := []string{"capture:manual", "restore:IPC: Restore"}
	if strings.Join(h.reasons, ",") != strings.Join(want, ",") {
		t.Fatalf("handler saw %q, want %q", h.reasons, want)
	}
	if h.reloads != 1 {
		t.Fatalf("reloads = %d, want 1", h.reloads)
	}
}

func TestReloadErrorIsReported(t *testing.T) {
	startServer(t, &fakeHandler{reloadErr: errors.New("bad config")})

	err := NewClient().Reload()
	if err == nil || !strings.Contains(err.Error(), "bad config") {
		t.Fatalf("Reload() error = %v, want daemon error mentioning bad config", err)
	}
}

func TestUnknownAndMalformedRequests(t *testing.T) {
	srv := startServer(t, &fakeHandler{})

	tests := []struct {
		name    string
		request string
		wantErr string
	}{
		{"unknown command", `{"command":"TILE"}`, "Unknown command: TILE"},
		{"malformed json", `{"command":`, "Invalid request"},
		{"bad payload", `{"command":"CAPTURE","payload":"nope"}`, "Invalid capture payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, err := net.Dial("unix", srv.SocketPath())
			if err != nil {
				t.Fatalf("Dial() error: %v", err)
			}
			defer conn.Close()

			if _, err := conn.Write([]byte(tt.request + "\n")); err != nil {
				t.Fatalf("Write() error: %v", err)
			}
			line, err := bufio.NewReader(conn).ReadBytes('\n')
			if err != nil {
				t.Fatalf("ReadBytes() error: %v", err)
			}
			if !strings.Contains(string(line), `"status":"ERROR"`) || !strings.Contains(string(line), tt.wantErr) {
				t.Fatalf("response = %s, want ERROR containing %q", line, tt.wantErr)
			}
		})
	}
}

func TestClientWithoutDaemon(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	if err := NewClient().Ping(); err == nil {
		t.Fatal("Ping() succeeded without a daemon")
	}
}
