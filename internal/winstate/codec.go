package winstate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/1broseidon/winkeep/internal/platform"
)

// Wire tags. Files written by the GNOME Shell extension this format descends
// from use the legacy dataType/value spelling and are still accepted.
const (
	kindMap      = "map"
	kindSnapshot = "snapshot"

	legacyKindMap      = "Map"
	legacyKindSnapshot = "WindowState"
)

var requiredSnapshotFields = []string{"x", "y", "width", "height", "maximized", "minimized"}

// DecodeError reports a state file that cannot be turned back into a Store.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode window state at %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErrorf(path, format string, args ...any) error {
	return &DecodeError{Path: path, Err: fmt.Errorf(format, args...)}
}

type wireMap struct {
	Kind    string   `json:"kind"`
	Entries [][2]any `json:"entries"`
}

type wireSnapshot struct {
	Kind   string         `json:"kind"`
	Fields snapshotFields `json:"fields"`
}

type snapshotFields struct {
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Maximized  uint8  `json:"maximized"`
	Minimized  bool   `json:"minimized"`
	Fullscreen bool   `json:"fullscreen"`
	ID         uint32 `json:"id"`
	Title      string `json:"title"`
}

// Encode serializes the store. Keys are written in ascending order so equal
// stores always produce identical bytes.
func Encode(s *Store) ([]byte, error) {
	outer := wireMap{Kind: kindMap, Entries: make([][2]any, 0, s.Len())}
	for _, sig := range s.Signatures() {
		in := s.displays[sig]
		inner := wireMap{Kind: kindMap, Entries: make([][2]any, 0, len(in))}
		for _, id := range in.IDs() {
			snap := in[id]
			if err := snap.validate(); err != nil {
				return nil, fmt.Errorf("failed to encode window %d for display %d: %w", id, sig, err)
			}
			inner.Entries = append(inner.Entries, [2]any{uint32(id), wireSnapshot{
				Kind: kindSnapshot,
				Fields: snapshotFields{
					X:          snap.X,
					Y:          snap.Y,
					Width:      snap.Width,
					Height:     snap.Height,
					Maximized:  uint8(snap.Maximized),
					Minimized:  snap.Minimized,
					Fullscreen: snap.Fullscreen,
					ID:         uint32(snap.ID),
					Title:      snap.Title,
				},
			}})
		}
		outer.Entries = append(outer.Entries, [2]any{int64(sig), inner})
	}

	data, err := json.MarshalIndent(outer, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode window state: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses bytes produced by Encode. Any structural problem, unknown tag
// or missing snapshot field is reported as a *DecodeError.
func Decode(data []byte) (*Store, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, decodeErrorf("$", "no content")
	}
	if !json.Valid(data) {
		return nil, decodeErrorf("$", "invalid JSON")
	}

	outer, err := decodeEntries("$", data)
	if err != nil {
		return nil, err
	}
	legacy := isLegacy(data)

	store := NewStore()
	for i, entry := range outer {
		path := fmt.Sprintf("$[%d]", i)
		key, err := decodeKey(path+".key", entry[0])
		if err != nil {
			return nil, err
		}
		windows, err := decodeEntries(path+".value", entry[1])
		if err != nil {
			return nil, err
		}

		in := store.Inner(Signature(key))
		for j, w := range windows {
			wpath := fmt.Sprintf("%s.value[%d]", path, j)
			id, err := decodeKey(wpath+".key", w[0])
			if err != nil {
				return nil, err
			}
			if id > int64(^uint32(0)) && legacy {
				// Mutter ids are 64-bit; such a window cannot exist in an X11 session.
				continue
			}
			if id < 0 || id > int64(^uint32(0)) {
				return nil, decodeErrorf(wpath+".key", "window id %d out of range", id)
			}
			snap, err := decodeSnapshot(wpath+".value", w[1])
			if err != nil {
				return nil, err
			}
			snap.ID = platform.WindowID(id)
			in[snap.ID] = snap
		}
	}
	return store, nil
}

type taggedValue struct {
	Kind     string          `json:"kind"`
	Entries  json.RawMessage `json:"entries"`
	Fields   json.RawMessage `json:"fields"`
	DataType string          `json:"dataType"`
	Value    json.RawMessage `json:"value"`
}

// tag normalizes current and legacy spellings to (kind, payload).
func (t taggedValue) tag() (string, json.RawMessage) {
	switch {
	case t.Kind == kindMap:
		return kindMap, t.Entries
	case t.Kind == kindSnapshot:
		return kindSnapshot, t.Fields
	case t.DataType == legacyKindMap:
		return kindMap, t.Value
	case t.DataType == legacyKindSnapshot:
		return kindSnapshot, t.Value
	case t.Kind != "":
		return t.Kind, nil
	default:
		return t.DataType, nil
	}
}

func isLegacy(data []byte) bool {
	var tv taggedValue
	if err := json.Unmarshal(data, &tv); err != nil {
		return false
	}
	return tv.Kind == "" && tv.DataType == legacyKindMap
}

func decodeTagged(path string, raw json.RawMessage, want string) (json.RawMessage, error) {
	var tv taggedValue
	if err := json.Unmarshal(raw, &tv); err != nil {
		return nil, decodeErrorf(path, "expected tagged %s object: %v", want, err)
	}
	kind, payload := tv.tag()
	if kind != want {
		return nil, decodeErrorf(path, "expected tag %q, got %q", want, kind)
	}
	if len(payload) == 0 || string(payload) == "null" {
		return nil, decodeErrorf(path, "tagged %s has no payload", want)
	}
	return payload, nil
}

func decodeEntries(path string, raw json.RawMessage) ([][2]json.RawMessage, error) {
	payload, err := decodeTagged(path, raw, kindMap)
	if err != nil {
		return nil, err
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, decodeErrorf(path, "map entries must be an array: %v", err)
	}
	out := make([][2]json.RawMessage, 0, len(entries))
	for i, e := range entries {
		var pair []json.RawMessage
		if err := json.Unmarshal(e, &pair); err != nil || len(pair) != 2 {
			return nil, decodeErrorf(fmt.Sprintf("%s[%d]", path, i), "map entry must be a [key, value] pair")
		}
		out = append(out, [2]json.RawMessage{pair[0], pair[1]})
	}
	return out, nil
}

// decodeKey accepts an integer or its decimal string form.
func decodeKey(path string, raw json.RawMessage) (int64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, decodeErrorf(path, "key %q is not a decimal integer", s)
		}
		return n, nil
	}
	n, err := decodeInt(raw)
	if err != nil {
		return 0, decodeErrorf(path, "key: %v", err)
	}
	return n, nil
}

func decodeInt(raw json.RawMessage) (int64, error) {
	var num json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&num); err != nil {
		return 0, fmt.Errorf("expected integer, got %s", raw)
	}
	n, err := num.Int64()
	if err != nil {
		return 0, fmt.Errorf("expected integer, got %s", num)
	}
	return n, nil
}

func decodeSnapshot(path string, raw json.RawMessage) (Snapshot, error) {
	payload, err := decodeTagged(path, raw, kindSnapshot)
	if err != nil {
		return Snapshot{}, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return Snapshot{}, decodeErrorf(path, "snapshot fields must be an object: %v", err)
	}
	for _, name := range requiredSnapshotFields {
		if _, ok := fields[name]; !ok {
			return Snapshot{}, decodeErrorf(path, "snapshot is missing field %q", name)
		}
	}

	var snap Snapshot
	ints := []struct {
		name string
		dst  *int
	}{
		{"x", &snap.X},
		{"y", &snap.Y},
		{"width", &snap.Width},
		{"height", &snap.Height},
	}
	for _, f := range ints {
		n, err := decodeInt(fields[f.name])
		if err != nil {
			return Snapshot{}, decodeErrorf(path+"."+f.name, "%v", err)
		}
		*f.dst = int(n)
	}

	flags, err := decodeMaximized(fields["maximized"])
	if err != nil {
		return Snapshot{}, decodeErrorf(path+".maximized", "%v", err)
	}
	snap.Maximized = flags

	if err := json.Unmarshal(fields["minimized"], &snap.Minimized); err != nil {
		return Snapshot{}, decodeErrorf(path+".minimized", "expected boolean")
	}
	if raw, ok := fields["fullscreen"]; ok {
		if err := json.Unmarshal(raw, &snap.Fullscreen); err != nil {
			return Snapshot{}, decodeErrorf(path+".fullscreen", "expected boolean")
		}
	}
	if raw, ok := fields["title"]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &snap.Title); err != nil {
			return Snapshot{}, decodeErrorf(path+".title", "expected string")
		}
	}

	if err := snap.validate(); err != nil {
		return Snapshot{}, &DecodeError{Path: path, Err: err}
	}
	return snap, nil
}

// decodeMaximized accepts the 0-3 flag value, or a boolean from hosts that
// only distinguish maximized from not.
func decodeMaximized(raw json.RawMessage) (platform.MaximizeFlags, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return platform.MaximizeBoth, nil
		}
		return platform.MaximizeNone, nil
	}
	n, err := decodeInt(raw)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > int64(platform.MaximizeBoth) {
		return 0, errors.New("maximized must be between 0 and 3")
	}
	return platform.MaximizeFlags(n), nil
}
