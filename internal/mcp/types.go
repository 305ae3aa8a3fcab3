package mcp

// CaptureWindowsInput is the input for the capture_windows tool.
type CaptureWindowsInput struct {
	Reason string `json:"reason,omitempty" jsonschema:"Label recorded in the daemon log (default: MCP: Capture)"`
}

// CaptureWindowsOutput is the output for the capture_windows tool.
type CaptureWindowsOutput struct {
	Reason    string `json:"reason"`
	Signature int64  `json:"signature"`
	Windows   int    `json:"windows"`
	Skipped   int    `json:"skipped"`
	Saved     bool   `json:"saved"`
}

// RestoreWindowsInput is the input for the restore_windows tool.
type RestoreWindowsInput struct {
	Reason string `json:"reason,omitempty" jsonschema:"Label recorded in the daemon log (default: MCP: Restore)"`
}

// RestoreWindowsOutput is the output for the restore_windows tool.
type RestoreWindowsOutput struct {
	Reason    string `json:"reason"`
	Signature int64  `json:"signature"`
	Restored  int    `json:"restored"`
	Moved     int    `json:"moved"`
	NotFound  int    `json:"not_found"`
	Failed    int    `json:"failed"`
	Saved     bool   `json:"saved"`
}

// StatusInput is the input for the window_state_status tool.
type StatusInput struct{}

// StatusOutput is the output for the window_state_status tool.
type StatusOutput struct {
	Enabled          bool   `json:"enabled"`
	Instance         string `json:"instance"`
	StatePath        string `json:"state_path"`
	Persistent       bool   `json:"persistent"`
	DisplayWidth     int    `json:"display_width"`
	DisplayHeight    int    `json:"display_height"`
	DisplaySignature int64  `json:"display_signature"`
	Monitors         int    `json:"monitors"`
	SavedDisplays    int    `json:"saved_displays"`
	SavedWindows     int    `json:"saved_windows"`
	Captures         int    `json:"captures"`
	Restores         int    `json:"restores"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
}
