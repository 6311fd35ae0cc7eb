package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/juntas/pkg/model"
	"github.com/m-mizutani/juntas/pkg/repository"
)

func TestNewRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("no project degrades to unavailable store", func(t *testing.T) {
		cfg := &config{backend: backendFirestore}
		repo, closeRepo, err := cfg.newRepository(ctx)
		gt.NoError(t, err)
		defer closeRepo()

		_, ok := repo.(*repository.Unavailable)
		gt.True(t, ok)

		memories, err := repo.ListMemories(ctx)
		gt.NoError(t, err)
		gt.A(t, memories).Length(0)

		_, err = repo.CreateMemory(ctx, &model.Memory{Title: "Playa"})
		gt.True(t, errors.Is(err, model.ErrStoreUnavailable))
	})

	t.Run("memory backend", func(t *testing.T) {
		cfg := &config{backend: backendMemory}
		repo, closeRepo, err := cfg.newRepository(ctx)
		gt.NoError(t, err)
		defer closeRepo()

		_, ok := repo.(*repository.Memory)
		gt.True(t, ok)
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := &config{backend: "sqlite"}
		_, _, err := cfg.newRepository(ctx)
		gt.Error(t, err)
	})
}

func TestNewStorageWithoutBucket(t *testing.T) {
	cfg := &config{}
	storage, err := cfg.newStorage(context.Background())
	gt.NoError(t, err)
	gt.True(t, storage == nil)
}
