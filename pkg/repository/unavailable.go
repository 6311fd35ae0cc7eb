package repository

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/juntas/pkg/model"
)

// Unavailable is the degraded Repository used when no document store is
// configured. Reads are empty, creates fail, deletes do nothing.
type Unavailable struct{}

// NewUnavailable returns the degraded repository
func NewUnavailable() *Unavailable {
	return &Unavailable{}
}

func (Unavailable) SubscribeMemories(ctx context.Context, onChange SnapshotFunc) Unsubscribe {
	return func() {}
}

func (Unavailable) CreateMemory(ctx context.Context, memory *model.Memory) (model.MemoryID, error) {
	return "", goerr.Wrap(model.ErrStoreUnavailable, "cannot create memory")
}

func (Unavailable) DeleteMemory(ctx context.Context, id model.MemoryID) error {
	return nil
}

func (Unavailable) ListMemories(ctx context.Context) ([]*model.Memory, error) {
	return []*model.Memory{}, nil
}
