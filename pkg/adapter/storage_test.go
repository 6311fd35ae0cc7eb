package adapter_test

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/juntas/pkg/adapter"
	"github.com/m-mizutani/juntas/pkg/model"
)

func TestStoragePutGet(t *testing.T) {
	bucket := os.Getenv("TEST_STORAGE_BUCKET")
	if bucket == "" {
		t.Skip("TEST_STORAGE_BUCKET is not set")
	}

	ctx := context.Background()
	storage, err := adapter.NewStorage(ctx, bucket)
	gt.NoError(t, err)
	defer storage.Close()

	key := "test/photos/" + uuid.NewString() + ".png"
	w, err := storage.Put(ctx, key, "image/png")
	gt.NoError(t, err)
	_, err = w.Write([]byte("\x89PNG\r\n\x1a\nfake"))
	gt.NoError(t, err)
	gt.NoError(t, w.Close())

	r, contentType, err := storage.Get(ctx, key)
	gt.NoError(t, err)
	defer r.Close()
	gt.Equal(t, contentType, "image/png")

	data, err := io.ReadAll(r)
	gt.NoError(t, err)
	gt.Equal(t, string(data), "\x89PNG\r\n\x1a\nfake")

	_, _, err = storage.Get(ctx, "test/photos/"+uuid.NewString()+".png")
	gt.True(t, errors.Is(err, model.ErrPhotoNotFound))
}

func TestStorageRequiresBucket(t *testing.T) {
	_, err := adapter.NewStorage(context.Background(), "")
	gt.Error(t, err)
}
