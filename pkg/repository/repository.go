package repository

import (
	"context"

	"github.com/m-mizutani/juntas/pkg/model"
)

// Unsubscribe stops a realtime listener. It is safe to call more than once.
type Unsubscribe func()

// SnapshotFunc receives the complete, ordered memory list
type SnapshotFunc func(memories []*model.Memory)

// Repository is the gateway to the memory collection. There is no update
// operation: memories are only created and deleted.
type Repository interface {
	// SubscribeMemories delivers the current list once, then again on every
	// change of the collection, ordered by date descending. It never fails;
	// an unavailable store returns a no-op Unsubscribe.
	SubscribeMemories(ctx context.Context, onChange SnapshotFunc) Unsubscribe

	// CreateMemory inserts memory and returns the id assigned by the store.
	// The new record becomes visible only through a later snapshot.
	CreateMemory(ctx context.Context, memory *model.Memory) (model.MemoryID, error)

	// DeleteMemory removes a memory by id
	DeleteMemory(ctx context.Context, id model.MemoryID) error

	// ListMemories reads one ordered snapshot
	ListMemories(ctx context.Context) ([]*model.Memory, error)
}
