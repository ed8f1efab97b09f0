package state

import (
	"sort"

	"github.com/nholik/container-sentinel/internal/snapshot"
)

// MemoryStore keeps snapshots in a map for the lifetime of the process.
// It is owned by a single poll loop and is not safe for concurrent use.
type MemoryStore struct {
	snapshots map[snapshot.Identity]snapshot.Snapshot
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[snapshot.Identity]snapshot.Snapshot),
	}
}

// Get returns the last snapshot recorded for id.
func (s *MemoryStore) Get(id snapshot.Identity) (snapshot.Snapshot, bool) {
	snap, ok := s.snapshots[id]
	return snap, ok
}

// Put records snap as the latest snapshot for id, replacing any previous entry.
func (s *MemoryStore) Put(id snapshot.Identity, snap snapshot.Snapshot) {
	s.snapshots[id] = snap
}

// Remove drops id from the store. Unknown identities are ignored.
func (s *MemoryStore) Remove(id snapshot.Identity) {
	delete(s.snapshots, id)
}

// Identities returns the known identities in sorted order.
func (s *MemoryStore) Identities() []snapshot.Identity {
	ids := make([]snapshot.Identity, 0, len(s.snapshots))
	for id := range s.snapshots {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	return ids
}

// Len returns the number of tracked containers.
func (s *MemoryStore) Len() int {
	return len(s.snapshots)
}
