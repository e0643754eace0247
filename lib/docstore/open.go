package docstore

import (
	"context"
	"fmt"

	"boxoffice-tracker/lib/configutil"
)

type Kind string

const (
	KindFS     Kind = "fs"
	KindSQLite Kind = "sqlite"
	KindS3     Kind = "s3"
	KindGCS    Kind = "gcs"
	KindRedis  Kind = "redis"
	KindBadger Kind = "badger"
)

type GCSConfig struct {
	Bucket string `json:"bucket"`
	Prefix string `json:"prefix"`
}

type Config struct {
	// Kind defaults to "fs".
	Kind Kind `json:"kind"`
	// Dir is the base directory of the fs backend, defaults to "data".
	Dir    string       `json:"dir"`
	SQL    SQLConfig    `json:"sql"`
	S3     S3Config     `json:"s3"`
	GCS    GCSConfig    `json:"gcs"`
	Redis  RedisConfig  `json:"redis"`
	Badger BadgerConfig `json:"badger"`
	// Cache keeps recently used documents in memory over any kind.
	Cache CacheConfig `json:"cache"`
}

// WithEnv applies BOXOFFICE_STORAGE and BOXOFFICE_DATA_DIR over the
// configured values.
func (c Config) WithEnv() Config {
	c.Kind = Kind(configutil.EnvStr("BOXOFFICE_STORAGE", string(c.Kind)))
	c.Dir = configutil.EnvStr("BOXOFFICE_DATA_DIR", c.Dir)
	return c
}

func Open(ctx context.Context, c Config) (Backend, error) {
	backend, err := open(ctx, c)
	if err != nil {
		return nil, err
	}
	if c.Cache.Size > 0 {
		return NewCached(backend, c.Cache), nil
	}
	return backend, nil
}

func open(ctx context.Context, c Config) (Backend, error) {
	kind := c.Kind
	if kind == "" {
		kind = KindFS
	}

	switch kind {
	case KindFS:
		dir := c.Dir
		if dir == "" {
			dir = "data"
		}
		return NewFS(dir)
	case KindSQLite:
		db, err := c.SQL.OpenDB()
		if err != nil {
			return nil, err
		}
		store, err := NewSQL(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return store, nil
	case KindS3:
		return NewS3(ctx, c.S3)
	case KindGCS:
		return newGCS(ctx, c.GCS)
	case KindRedis:
		return NewRedis(ctx, c.Redis)
	case KindBadger:
		return NewBadger(c.Badger)
	default:
		return nil, fmt.Errorf("unsupported storage kind: %s", kind)
	}
}
