package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/juntas/pkg/model"
)

// Memory is an in-process Repository with the same realtime contract as
// Firestore. Snapshots are delivered on the goroutine that made the change,
// after the store lock is released, in the order the changes happened.
type Memory struct {
	mu      sync.Mutex
	records map[model.MemoryID]*model.Memory
	subs    map[int]*subscriber
	nextSub int

	// deliverMu keeps snapshot delivery in mutation order
	deliverMu sync.Mutex

	// failWrites makes every create/delete fail with ErrWriteFailed
	failWrites bool
}

type subscriber struct {
	onChange SnapshotFunc
	active   bool
}

// NewMemory creates an empty in-process repository
func NewMemory() *Memory {
	return &Memory{
		records: make(map[model.MemoryID]*model.Memory),
		subs:    make(map[int]*subscriber),
	}
}

// FailWrites toggles rejection of writes, mimicking a store that denies them
func (r *Memory) FailWrites(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWrites = fail
}

// snapshotLocked must be called with r.mu held
func (r *Memory) snapshotLocked() []*model.Memory {
	list := make([]*model.Memory, 0, len(r.records))
	for _, m := range r.records {
		list = append(list, m)
	}
	list = model.CloneMemories(list)
	model.SortMemories(list)
	return list
}

func (r *Memory) SubscribeMemories(ctx context.Context, onChange SnapshotFunc) Unsubscribe {
	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	sub := &subscriber{onChange: onChange, active: true}
	r.subs[id] = sub
	initial := r.snapshotLocked()
	r.mu.Unlock()

	onChange(initial)

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			sub.active = false
			delete(r.subs, id)
			r.mu.Unlock()
		})
	}
}

// publish sends the current snapshot to every live subscriber
func (r *Memory) publish() {
	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	r.mu.Lock()
	snapshot := r.snapshotLocked()
	targets := make([]*subscriber, 0, len(r.subs))
	for _, s := range r.subs {
		targets = append(targets, s)
	}
	r.mu.Unlock()

	for _, s := range targets {
		r.mu.Lock()
		active := s.active
		r.mu.Unlock()
		if active {
			// each subscriber owns its copy
			s.onChange(model.CloneMemories(snapshot))
		}
	}
}

func (r *Memory) CreateMemory(ctx context.Context, memory *model.Memory) (model.MemoryID, error) {
	r.mu.Lock()
	if r.failWrites {
		r.mu.Unlock()
		return "", goerr.Wrap(model.ErrWriteFailed, "create rejected by store")
	}
	id := model.MemoryID(uuid.New().String())
	stored := model.CloneMemories([]*model.Memory{memory})[0]
	stored.ID = id
	r.records[id] = stored
	r.mu.Unlock()

	r.publish()
	return id, nil
}

func (r *Memory) DeleteMemory(ctx context.Context, id model.MemoryID) error {
	r.mu.Lock()
	if r.failWrites {
		r.mu.Unlock()
		return goerr.Wrap(model.ErrWriteFailed, "delete rejected by store", goerr.V("id", id))
	}
	_, existed := r.records[id]
	delete(r.records, id)
	r.mu.Unlock()

	if existed {
		r.publish()
	}
	return nil
}

func (r *Memory) ListMemories(ctx context.Context) ([]*model.Memory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked(), nil
}
