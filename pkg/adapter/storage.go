package adapter

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/juntas/pkg/model"
)

// Storage keeps uploaded memory photos as objects addressed by key
type Storage interface {
	// Put returns a writer for a new photo object. The object becomes
	// visible when the writer is closed.
	Put(ctx context.Context, key, contentType string) (io.WriteCloser, error)
	// Get opens a photo object and reports its content type. A missing
	// object is model.ErrPhotoNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// PhotoBucket implements Storage on a Cloud Storage bucket
type PhotoBucket struct {
	bucket *storage.BucketHandle
	name   string
	client *storage.Client
}

// NewStorage opens the photo bucket with application default credentials
func NewStorage(ctx context.Context, bucketName string) (*PhotoBucket, error) {
	if bucketName == "" {
		return nil, goerr.New("photo bucket name is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucketName))
	}

	return &PhotoBucket{
		bucket: client.Bucket(bucketName),
		name:   bucketName,
		client: client,
	}, nil
}

func (b *PhotoBucket) Put(ctx context.Context, key, contentType string) (io.WriteCloser, error) {
	w := b.bucket.Object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "private, max-age=86400"
	return &photoWriter{Writer: w, bucket: b.name, key: key}, nil
}

func (b *PhotoBucket) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	r, err := b.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, "", goerr.Wrap(model.ErrPhotoNotFound, "photo object not found",
				goerr.V("bucket", b.name),
				goerr.V("key", key))
		}
		return nil, "", goerr.Wrap(err, "failed to read photo object",
			goerr.V("bucket", b.name),
			goerr.V("key", key))
	}

	return r, r.Attrs.ContentType, nil
}

// Close releases the storage client
func (b *PhotoBucket) Close() error {
	if err := b.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close storage client")
	}
	return nil
}

// photoWriter wraps upload errors with the object location
type photoWriter struct {
	*storage.Writer
	bucket string
	key    string
}

func (w *photoWriter) Close() error {
	if err := w.Writer.Close(); err != nil {
		return goerr.Wrap(err, "failed to finish photo upload",
			goerr.V("bucket", w.bucket),
			goerr.V("key", w.key))
	}
	return nil
}
