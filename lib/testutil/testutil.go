package testutil

import (
	"context"
	"fmt"
	"testing"

	"boxoffice-tracker/lib/docstore"
	"boxoffice-tracker/lib/telemetry"
)

type ServiceParams struct {
	Name string
	// Storage is the backend kind, fs when unspecified. sqlite and badger
	// are kept in memory.
	Storage docstore.Kind
}

type ServiceResult struct {
	Backend docstore.Backend
	// Dir is the data directory of fs storage.
	Dir string
}

// StorageKinds are the backends that run without external services.
var StorageKinds = []docstore.Kind{docstore.KindFS, docstore.KindSQLite, docstore.KindBadger}

func SetupService(t testing.TB, params ServiceParams) ServiceResult {
	t.Helper()
	t.Cleanup(telemetry.SetupForTesting(fmt.Sprintf("test:%s", params.Name)))

	kind := params.Storage
	if kind == "" {
		kind = docstore.KindFS
	}
	config := docstore.Config{Kind: kind}
	switch kind {
	case docstore.KindFS:
		config.Dir = t.TempDir()
	case docstore.KindSQLite:
		config.SQL = docstore.SQLConfig{File: ":memory:"}
	case docstore.KindBadger:
		config.Badger = docstore.BadgerConfig{}
	default:
		t.Fatalf("storage %s needs an external service", kind)
	}

	backend, err := docstore.Open(context.Background(), config)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		backend.Close()
	})
	return ServiceResult{Backend: backend, Dir: config.Dir}
}
