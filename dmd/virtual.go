package dmd

import "sync"

// VirtualConsumer is an in-process snapshot pair (RGB24, indexed-level) fed
// by the pipeline worker on every emission. Reads are destructive: Snapshot
// clears the updated flag so a consumer polling on an interval only re-draws
// when something changed.
type VirtualConsumer struct {
	mu        sync.Mutex
	width     int
	height    int
	rgb24     []byte
	indexed   []byte
	depth     Depth
	updated   bool
}

// NewVirtualConsumer returns a consumer with no pending snapshot.
func NewVirtualConsumer() *VirtualConsumer {
	return &VirtualConsumer{}
}

// update is called by the pipeline worker after every emission; it never
// blocks on a consumer's own read.
func (v *VirtualConsumer) update(width, height int, depth Depth, indexed, rgb24 []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.width, v.height, v.depth = width, height, depth
	v.indexed = append(v.indexed[:0], indexed...)
	v.rgb24 = append(v.rgb24[:0], rgb24...)
	v.updated = true
}

// Snapshot returns the most recent (indexed-level, RGB24) pair and whether it
// is new since the last call. When nothing new has arrived, both slices are
// nil. The returned slices are owned by the caller.
func (v *VirtualConsumer) Snapshot() (width, height int, depth Depth, indexed, rgb24 []byte, isNew bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.updated {
		return v.width, v.height, v.depth, nil, nil, false
	}
	v.updated = false

	idx := make([]byte, len(v.indexed))
	copy(idx, v.indexed)
	rgb := make([]byte, len(v.rgb24))
	copy(rgb, v.rgb24)

	return v.width, v.height, v.depth, idx, rgb, true
}
