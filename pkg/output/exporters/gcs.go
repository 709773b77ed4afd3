package exporters

import (
	"context"

	"cloud.google.com/go/storage"

	"github.com/ajitpratap0/penguin/pkg/clients"
	"github.com/ajitpratap0/penguin/pkg/errors"
)

// GCS stores each formatted output as a Cloud Storage object.
type GCS struct {
	*bucketExporter
	client *storage.Client
}

// NewGCS creates a Cloud Storage client for the configured bucket.
func NewGCS(ctx context.Context, cfg BucketConfig) (*GCS, error) {
	if cfg.Bucket == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "gcs exporter requires a bucket")
	}
	opts, err := clients.GoogleClientOptions(cfg.CredentialsPath)
	if err != nil {
		return nil, err
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create GCS client")
	}

	e, err := NewGCSWithStore(&gcsStore{bucket: client.Bucket(cfg.Bucket)}, cfg)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	e.client = client
	return e, nil
}

// NewGCSWithStore builds the exporter over an existing object store.
func NewGCSWithStore(store ObjectStore, cfg BucketConfig) (*GCS, error) {
	b, err := newBucketExporter(NameGCS, store, cfg)
	if err != nil {
		return nil, err
	}
	return &GCS{bucketExporter: b}, nil
}

// Close closes the storage client, if the exporter owns one.
func (g *GCS) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

type gcsStore struct {
	bucket *storage.BucketHandle
}

func (s *gcsStore) Put(ctx context.Context, obj Object) error {
	w := s.bucket.Object(obj.Key).NewWriter(ctx)
	w.ContentType = obj.ContentType
	w.ContentEncoding = obj.ContentEncoding
	w.Metadata = obj.Metadata

	if _, err := w.Write(obj.Body); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
