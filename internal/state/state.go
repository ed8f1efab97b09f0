package state

import "github.com/nholik/container-sentinel/internal/snapshot"

// Store holds the last observed snapshot per container identity.
type Store interface {
	Get(id snapshot.Identity) (snapshot.Snapshot, bool)
	Put(id snapshot.Identity, snap snapshot.Snapshot)
	Remove(id snapshot.Identity)
	Identities() []snapshot.Identity
	Len() int
}
