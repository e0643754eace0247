package showstore

import (
	"context"
	"fmt"
	"path"

	"boxoffice-tracker/lib/docstore"
)

// Store persists partitions of one source as JSON arrays.
type Store struct {
	backend docstore.Backend
	source  string
}

func NewStore(backend docstore.Backend, source string) Store {
	return Store{backend: backend, source: source}
}

func (s Store) Key(partition string) string {
	return path.Join(s.source, fmt.Sprintf("%s-data.json", partition))
}

// Load returns the stored partition, an empty one when nothing is
// stored yet. A document that cannot be decoded is an error, merging
// over it would silently drop history.
func (s Store) Load(ctx context.Context, partition string) (Partition, error) {
	var records []Record
	key := s.Key(partition)
	_, err := docstore.ReadJSON(ctx, s.backend, key, &records)
	if err != nil {
		return nil, fmt.Errorf("load partition %s: %w", key, err)
	}

	out := make(Partition, len(records))
	for i, r := range records {
		if r.ID == "" {
			return nil, fmt.Errorf("corrupt partition %s: record %d has no id", key, i)
		}
		out[r.ID] = r
	}
	return out, nil
}

func (s Store) Save(ctx context.Context, partition string, p Partition) error {
	return docstore.WriteJSON(ctx, s.backend, s.Key(partition), p.Records())
}
