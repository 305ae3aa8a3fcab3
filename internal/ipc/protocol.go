package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/winkeep/internal/engine"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandCapture   CommandType = "CAPTURE"
	CommandRestore   CommandType = "RESTORE"
	CommandGetStatus CommandType = "GET_STATUS"
	CommandReload    CommandType = "RELOAD"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ReasonPayload is the payload of CAPTURE and RESTORE. The reason only
// appears in logs and results.
type ReasonPayload struct {
	Reason string `json:"reason,omitempty"`
}

// MonitorInfo represents information about a single monitor
type MonitorInfo struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	DaemonRunning    bool          `json:"daemon_running"`
	Enabled          bool          `json:"enabled"`
	Instance         string        `json:"instance"`
	StatePath        string        `json:"state_path"`
	Persistent       bool          `json:"persistent"`
	ProcessID        string        `json:"process_id"`
	ProcessSaved     bool          `json:"process_saved"`
	UptimeSeconds    int64         `json:"uptime_seconds"`
	DisplayWidth     int           `json:"display_width"`
	DisplayHeight    int           `json:"display_height"`
	DisplaySignature int64         `json:"display_signature"`
	Monitors         []MonitorInfo `json:"monitors,omitempty"`
	Stats            engine.Stats  `json:"stats"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
