//go:build gcp

package docstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCS stores one object per document, credentials come from ADC.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

func newGCS(ctx context.Context, cfg GCSConfig) (Backend, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("a bucket is required for gcs storage")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return GCS{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s GCS) Get(ctx context.Context, key string) ([]byte, error) {
	reader, err := s.client.Bucket(s.bucket).Object(s.prefix + key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gcs get failed for %s: %w", key, err)
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

// Put relies on GCS object writes being atomic on Close.
func (s GCS) Put(ctx context.Context, key string, body []byte) error {
	w := s.client.Bucket(s.bucket).Object(s.prefix + key).NewWriter(ctx)
	w.ContentType = "application/json"

	_, err := w.Write(body)
	if err != nil {
		w.Close()
		return fmt.Errorf("gcs write failed: %w", err)
	}
	err = w.Close()
	if err != nil {
		return fmt.Errorf("gcs close failed: %w", err)
	}
	return nil
}

func (s GCS) Close() error {
	return s.client.Close()
}
