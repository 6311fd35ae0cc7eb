package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/juntas/pkg/model"
	"github.com/m-mizutani/juntas/pkg/repository"
)

func TestUnavailable(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUnavailable()

	called := false
	unsub := repo.SubscribeMemories(ctx, func([]*model.Memory) { called = true })
	gt.V(t, unsub).NotNil()
	unsub()
	gt.False(t, called)

	_, err := repo.CreateMemory(ctx, &model.Memory{Title: "x"})
	gt.True(t, errors.Is(err, model.ErrStoreUnavailable))

	gt.NoError(t, repo.DeleteMemory(ctx, "any"))

	list, err := repo.ListMemories(ctx)
	gt.NoError(t, err)
	gt.A(t, list).Length(0)
}
