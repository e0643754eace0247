package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("boxoffice.lib.docstore")

var ErrNotFound = errors.New("document not found")

// Backend is a medium that stores whole JSON documents by key. Keys are
// slash separated paths such as "hoyts/2025-09-24-data.json".
//
// Put must replace a document atomically, readers either see the old
// body or the new one.
type Backend interface {
	// Get returns ErrNotFound when no document exists under key.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, body []byte) error
	Close() error
}

// ReadJSON decodes the document under key into out. found is false when
// the document does not exist, in which case out is left untouched.
func ReadJSON(ctx context.Context, b Backend, key string, out any) (found bool, err error) {
	ctx, span := tracer.Start(ctx, "ReadJSON")
	defer span.End()
	span.SetAttributes(attribute.String("key", key))

	body, err := b.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "get document")
		return false, err
	}

	err = json.Unmarshal(body, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode document")
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func WriteJSON(ctx context.Context, b Backend, key string, v any) error {
	ctx, span := tracer.Start(ctx, "WriteJSON")
	defer span.End()
	span.SetAttributes(attribute.String("key", key))

	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode document")
		return err
	}
	err = b.Put(ctx, key, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "put document")
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}
