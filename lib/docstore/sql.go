package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

const Schema = `
create table if not exists documents (
	key text primary key,
	body blob not null,
	updated_at integer not null
);
`

type SQLConfig struct {
	// File is a local sqlite database, ":memory:" works for tests.
	File string `json:"file"`
	// Url is a remote libsql database, it takes precedence over File.
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

// SQL stores documents as rows of a single table.
type SQL struct {
	db *sql.DB
}

func (config SQLConfig) OpenDB() (*sql.DB, error) {
	if config.Url != "" {
		link, err := url.Parse(config.Url)
		if err != nil {
			return nil, err
		}
		if config.AuthToken != "" {
			query := link.Query()
			query.Set("authToken", config.AuthToken)
			link.RawQuery = query.Encode()
		}
		return sql.Open("libsql", link.String())
	}

	if config.File == "" {
		return nil, fmt.Errorf("a database file was not specified")
	}
	if config.File != ":memory:" {
		err := os.MkdirAll(filepath.Dir(config.File), 0755)
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", config.File)
	if err != nil {
		return nil, err
	}
	// sqlite only tolerates one writer, WAL lets readers proceed alongside it.
	db.SetMaxOpenConns(1)
	if config.File != ":memory:" {
		_, err = db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

func NewSQL(ctx context.Context, db *sql.DB) (SQL, error) {
	_, err := db.ExecContext(ctx, Schema)
	if err != nil {
		return SQL{}, fmt.Errorf("create documents table: %w", err)
	}
	return SQL{db: db}, nil
}

func (s SQL) Get(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, "select body from documents where key = ?", key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return body, err
}

func (s SQL) Put(ctx context.Context, key string, body []byte) error {
	_, err := s.db.ExecContext(
		ctx,
		`insert into documents(key, body, updated_at) values (?, ?, ?)
		on conflict(key) do update set body = excluded.body, updated_at = excluded.updated_at`,
		key, body, time.Now().Unix(),
	)
	return err
}

func (s SQL) Close() error {
	return s.db.Close()
}
