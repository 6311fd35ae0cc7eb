package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/juntas/pkg/model"
	"github.com/m-mizutani/juntas/pkg/repository"
)

func setupFirestore(t *testing.T) *repository.Firestore {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID must be set to run Firestore tests")
	}

	// isolate each run in its own collection
	collection := "test_memories_" + time.Now().Format("20060102150405")
	repo, err := repository.New(context.Background(), projectID, databaseID, repository.WithCollection(collection))
	gt.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func waitFor(t *testing.T, ch <-chan []*model.Memory, match func([]*model.Memory) bool) []*model.Memory {
	t.Helper()
	timeout := time.After(20 * time.Second)
	for {
		select {
		case snap := <-ch:
			if match(snap) {
				return snap
			}
		case <-timeout:
			t.Fatal("timed out waiting for snapshot")
			return nil
		}
	}
}

func TestFirestoreCreateListDelete(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()

	m := newMemory("Playa", "2024-07-01", time.Now().UnixMilli())
	m.Coordinates = &model.Coordinates{Lat: -38.0, Lng: -57.5}

	id, err := repo.CreateMemory(ctx, m)
	gt.NoError(t, err)
	gt.V(t, id).NotEqual(model.MemoryID(""))

	list, err := repo.ListMemories(ctx)
	gt.NoError(t, err)
	gt.A(t, list).Length(1)
	gt.Equal(t, list[0].ID, id)
	gt.Equal(t, list[0].Category, model.CategoryBeach)
	gt.Equal(t, *list[0].Coordinates, model.Coordinates{Lat: -38.0, Lng: -57.5})

	gt.NoError(t, repo.DeleteMemory(ctx, id))

	list, err = repo.ListMemories(ctx)
	gt.NoError(t, err)
	gt.A(t, list).Length(0)
}

func TestFirestoreSubscribe(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()

	ch := make(chan []*model.Memory, 16)
	unsub := repo.SubscribeMemories(ctx, func(memories []*model.Memory) { ch <- memories })

	waitFor(t, ch, func(s []*model.Memory) bool { return len(s) == 0 })

	older, err := repo.CreateMemory(ctx, newMemory("older", "2023-01-01", 1))
	gt.NoError(t, err)
	newer, err := repo.CreateMemory(ctx, newMemory("newer", "2024-01-01", 2))
	gt.NoError(t, err)

	snap := waitFor(t, ch, func(s []*model.Memory) bool { return len(s) == 2 })
	gt.Equal(t, ids(snap), []model.MemoryID{newer, older})

	unsub()
	gt.NoError(t, repo.DeleteMemory(ctx, older))
	gt.NoError(t, repo.DeleteMemory(ctx, newer))
}
