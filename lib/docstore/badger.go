package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type BadgerConfig struct {
	// Dir is the badger data directory, an empty dir keeps every
	// document in memory.
	Dir string `json:"dir"`
}

// Badger stores documents in an embedded badger database, one item per
// key.
type Badger struct {
	db *badger.DB
}

func NewBadger(cfg BadgerConfig) (Badger, error) {
	opts := badger.DefaultOptions(cfg.Dir).WithLogger(nil)
	if cfg.Dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return Badger{}, fmt.Errorf("open badger: %w", err)
	}
	return Badger{db: db}, nil
}

func (s Badger) Get(ctx context.Context, key string) ([]byte, error) {
	_, span := tracer.Start(ctx, "badger:get")
	defer span.End()
	span.SetAttributes(attribute.String("key", key))

	tx := s.db.NewTransaction(false)
	defer tx.Discard()
	item, err := tx.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read item from badger")
		return nil, err
	}
	body, err := item.ValueCopy(nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to copy item")
		return nil, err
	}
	return body, nil
}

func (s Badger) Put(ctx context.Context, key string, body []byte) error {
	_, span := tracer.Start(ctx, "badger:put")
	defer span.End()
	span.SetAttributes(attribute.String("key", key))

	err := s.db.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte(key), body)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set badger item")
	}
	return err
}

func (s Badger) Close() error {
	return s.db.Close()
}
