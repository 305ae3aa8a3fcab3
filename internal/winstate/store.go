package winstate

import (
	"sort"

	"github.com/1broseidon/winkeep/internal/platform"
)

// Signature identifies a display configuration by its total pixel size.
type Signature int64

// signatureFactor separates width from height in a Signature. Heights of
// 100000 pixels or more collide with the next width; saved files depend on
// this exact formula, so it is not widened.
const signatureFactor = 100000

// DisplaySignature combines a screen size into a Signature.
func DisplaySignature(width, height int) Signature {
	return Signature(int64(width)*signatureFactor + int64(height))
}

// Size splits a signature back into width and height.
func (s Signature) Size() (width, height int) {
	return int(s / signatureFactor), int(s % signatureFactor)
}

// Inner maps window ids to snapshots for one display signature.
type Inner map[platform.WindowID]Snapshot

// Replace discards the current contents and stores the given snapshots.
func (in Inner) Replace(snapshots []Snapshot) {
	clear(in)
	for _, s := range snapshots {
		in[s.ID] = s
	}
}

// IDs returns the window ids in ascending order.
func (in Inner) IDs() []platform.WindowID {
	ids := make([]platform.WindowID, 0, len(in))
	for id := range in {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Store maps display signatures to the windows saved for them.
type Store struct {
	displays map[Signature]Inner
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{displays: make(map[Signature]Inner)}
}

// Inner returns the window map for sig, creating it if needed. Never nil.
func (s *Store) Inner(sig Signature) Inner {
	in, ok := s.displays[sig]
	if !ok {
		in = make(Inner)
		s.displays[sig] = in
	}
	return in
}

// Lookup returns the window map for sig without creating one.
func (s *Store) Lookup(sig Signature) (Inner, bool) {
	in, ok := s.displays[sig]
	return in, ok
}

// Signatures returns the stored display signatures in ascending order.
func (s *Store) Signatures() []Signature {
	sigs := make([]Signature, 0, len(s.displays))
	for sig := range s.displays {
		sigs = append(sigs, sig)
	}
	sort.Slice(sigs, func(i, j int) bool { return sigs[i] < sigs[j] })
	return sigs
}

// Len returns the number of display signatures.
func (s *Store) Len() int {
	return len(s.displays)
}

// WindowCount returns the number of snapshots across all signatures.
func (s *Store) WindowCount() int {
	n := 0
	for _, in := range s.displays {
		n += len(in)
	}
	return n
}

// Clear removes every signature.
func (s *Store) Clear() {
	clear(s.displays)
}

// Equal reports whether both stores hold the same signatures, ids and snapshots.
func (s *Store) Equal(o *Store) bool {
	if s.Len() != o.Len() {
		return false
	}
	for sig, in := range s.displays {
		other, ok := o.displays[sig]
		if !ok || len(other) != len(in) {
			return false
		}
		for id, snap := range in {
			if got, ok := other[id]; !ok || got != snap {
				return false
			}
		}
	}
	return true
}
