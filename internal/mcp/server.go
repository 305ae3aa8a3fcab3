package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/winkeep/internal/engine"
	"github.com/1broseidon/winkeep/internal/ipc"
)

const (
	ServerName    = "winkeep"
	ServerVersion = "0.1.0"

	defaultCaptureReason = "MCP: Capture"
	defaultRestoreReason = "MCP: Restore"
)

// Daemon is the part of the IPC client the tools need.
type Daemon interface {
	Capture(reason string) (*engine.CaptureResult, error)
	Restore(reason string) (*engine.RestoreResult, error)
	GetStatus() (*ipc.StatusData, error)
}

// Server exposes the running daemon as MCP tools.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
}

// NewServer creates an MCP server that forwards tool calls to daemon.
func NewServer(daemon Daemon) *Server {
	s := &Server{daemon: daemon}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "capture_windows",
		Description: "Capture the position, size and state of every normal window for the current display resolution and save it to the state file.",
	}, s.handleCapture)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "restore_windows",
		Description: "Move every window that has a saved snapshot for the current display resolution back to its saved geometry, maximized and minimized state. Windows without a snapshot are left alone.",
	}, s.handleRestore)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "window_state_status",
		Description: "Report whether the daemon is enabled, the current display signature, the state file location and capture/restore counters.",
	}, s.handleStatus)
}

func (s *Server) handleCapture(_ context.Context, _ *mcpsdk.CallToolRequest, args CaptureWindowsInput) (*mcpsdk.CallToolResult, CaptureWindowsOutput, error) {
	reason := args.Reason
	if reason == "" {
		reason = defaultCaptureReason
	}
	res, err := s.daemon.Capture(reason)
	if err != nil {
		return nil, CaptureWindowsOutput{}, fmt.Errorf("capture failed: %w", err)
	}
	return nil, CaptureWindowsOutput{
		Reason:    res.Reason,
		Signature: int64(res.Signature),
		Windows:   res.Windows,
		Skipped:   res.Skipped,
		Saved:     res.Saved,
	}, nil
}

func (s *Server) handleRestore(_ context.Context, _ *mcpsdk.CallToolRequest, args RestoreWindowsInput) (*mcpsdk.CallToolResult, RestoreWindowsOutput, error) {
	reason := args.Reason
	if reason == "" {
		reason = defaultRestoreReason
	}
	res, err := s.daemon.Restore(reason)
	if err != nil {
		return nil, RestoreWindowsOutput{}, fmt.Errorf("restore failed: %w", err)
	}
	return nil, RestoreWindowsOutput{
		Reason:    res.Reason,
		Signature: int64(res.Signature),
		Restored:  res.Restored,
		Moved:     res.Moved,
		NotFound:  res.NotFound,
		Failed:    res.Failed,
		Saved:     res.Saved,
	}, nil
}

func (s *Server) handleStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ StatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	status, err := s.daemon.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, fmt.Errorf("status failed: %w", err)
	}
	return nil, StatusOutput{
		Enabled:          status.Enabled,
		Instance:         status.Instance,
		StatePath:        status.StatePath,
		Persistent:       status.Persistent,
		DisplayWidth:     status.DisplayWidth,
		DisplayHeight:    status.DisplayHeight,
		DisplaySignature: status.DisplaySignature,
		Monitors:         len(status.Monitors),
		SavedDisplays:    status.Stats.Displays,
		SavedWindows:     status.Stats.SavedWindows,
		Captures:         status.Stats.Captures,
		Restores:         status.Stats.Restores,
		UptimeSeconds:    status.UptimeSeconds,
	}, nil
}
