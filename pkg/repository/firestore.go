package repository

import (
	"context"
	"errors"
	"sync"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/juntas/pkg/model"
	"github.com/m-mizutani/juntas/pkg/utils/logging"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const DefaultCollection = "memories"

// Firestore implements Repository with a Firestore collection
type Firestore struct {
	client     *firestore.Client
	collection string
}

// FirestoreOption is a functional option for Firestore
type FirestoreOption func(*Firestore)

// WithCollection overrides the collection name
func WithCollection(name string) FirestoreOption {
	return func(f *Firestore) {
		if name != "" {
			f.collection = name
		}
	}
}

// New creates a Firestore repository
func New(ctx context.Context, projectID, databaseID string, opts ...FirestoreOption) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID),
			goerr.V("database", databaseID))
	}

	f := &Firestore{
		client:     client,
		collection: DefaultCollection,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Close releases the underlying client
func (r *Firestore) Close() error {
	return r.client.Close()
}

// memoryDoc is the stored document layout. Field names match the documents
// already written by the web client.
type memoryDoc struct {
	Title        string             `firestore:"title"`
	Type         string             `firestore:"type"`
	Date         string             `firestore:"date"`
	LocationName string             `firestore:"locationName"`
	Coordinates  *model.Coordinates `firestore:"coordinates"`
	Note         string             `firestore:"note"`
	PhotoURL     string             `firestore:"photoUrl,omitempty"`
	CreatedBy    string             `firestore:"createdBy"`
	CreatedAt    int64              `firestore:"createdAt"`
}

func toDoc(m *model.Memory) *memoryDoc {
	return &memoryDoc{
		Title:        m.Title,
		Type:         string(m.Category),
		Date:         m.Date,
		LocationName: m.LocationName,
		Coordinates:  m.Coordinates,
		Note:         m.Note,
		PhotoURL:     m.PhotoURL,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt,
	}
}

func fromDoc(snap *firestore.DocumentSnapshot) (*model.Memory, error) {
	var doc memoryDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode memory document", goerr.V("id", snap.Ref.ID))
	}
	return &model.Memory{
		ID:           model.MemoryID(snap.Ref.ID),
		Title:        doc.Title,
		Category:     model.Category(doc.Type),
		Date:         doc.Date,
		LocationName: doc.LocationName,
		Coordinates:  doc.Coordinates,
		Note:         doc.Note,
		PhotoURL:     doc.PhotoURL,
		CreatedBy:    doc.CreatedBy,
		CreatedAt:    doc.CreatedAt,
	}, nil
}

func (r *Firestore) orderedQuery() firestore.Query {
	return r.client.Collection(r.collection).OrderBy("date", firestore.Desc)
}

// decodeAll converts documents, skipping the ones that cannot be decoded
func decodeAll(ctx context.Context, docs []*firestore.DocumentSnapshot) []*model.Memory {
	memories := make([]*model.Memory, 0, len(docs))
	for _, d := range docs {
		m, err := fromDoc(d)
		if err != nil {
			logging.From(ctx).Warn("skip malformed memory", "error", err)
			continue
		}
		memories = append(memories, m)
	}
	model.SortMemories(memories)
	return memories
}

func (r *Firestore) SubscribeMemories(ctx context.Context, onChange SnapshotFunc) Unsubscribe {
	ctx, cancel := context.WithCancel(ctx)
	it := r.orderedQuery().Snapshots(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			snap, err := it.Next()
			if err != nil {
				if !isListenerShutdown(err) {
					logging.From(ctx).Error("memory listener stopped", "error", err)
				}
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				if !isListenerShutdown(err) {
					logging.From(ctx).Error("failed to read memory snapshot", "error", err)
				}
				return
			}

			// Stop may race with a snapshot already in flight
			if ctx.Err() != nil {
				return
			}
			onChange(decodeAll(ctx, docs))
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			it.Stop()
			<-done
		})
	}
}

func isListenerShutdown(err error) bool {
	if errors.Is(err, iterator.Done) || errors.Is(err, context.Canceled) {
		return true
	}
	return status.Code(err) == codes.Canceled
}

func (r *Firestore) CreateMemory(ctx context.Context, memory *model.Memory) (model.MemoryID, error) {
	ref, _, err := r.client.Collection(r.collection).Add(ctx, toDoc(memory))
	if err != nil {
		return "", goerr.Wrap(model.ErrWriteFailed, "failed to add memory document",
			goerr.V("collection", r.collection),
			goerr.V("cause", err.Error()))
	}
	return model.MemoryID(ref.ID), nil
}

func (r *Firestore) DeleteMemory(ctx context.Context, id model.MemoryID) error {
	if _, err := r.client.Collection(r.collection).Doc(string(id)).Delete(ctx); err != nil {
		return goerr.Wrap(model.ErrWriteFailed, "failed to delete memory document",
			goerr.V("id", id),
			goerr.V("cause", err.Error()))
	}
	return nil
}

func (r *Firestore) ListMemories(ctx context.Context) ([]*model.Memory, error) {
	iter := r.orderedQuery().Documents(ctx)
	defer iter.Stop()

	var docs []*firestore.DocumentSnapshot
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate memories", goerr.V("collection", r.collection))
		}
		docs = append(docs, doc)
	}

	return decodeAll(ctx, docs), nil
}
