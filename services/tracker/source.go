package tracker

import (
	"context"

	"boxoffice-tracker/lib/fetchpool"
	"boxoffice-tracker/lib/showstore"
	"boxoffice-tracker/lib/summary"
)

// Source is a vendor adapter. It knows how to list what to fetch and
// how to fetch it, everything else about a run is shared.
//
// note: fault injection point
type Source interface {
	// Name is also the storage namespace of the source.
	Name() string
	// Enumerate lists one job per show. An error aborts the run, nothing
	// meaningful can be merged without the list.
	Enumerate(ctx context.Context) ([]fetchpool.Job, error)
	// Catalog returns movie metadata, it is only used to decorate
	// summaries so errors are not fatal.
	Catalog(ctx context.Context) (summary.Catalog, error)
	// Partition names the partition a record is persisted in.
	Partition(r showstore.Record) string
	MissingPolicy() showstore.MissingPolicy
}

// ExhaustiveSource is implemented by sources whose listing covers every
// show of some partitions. Those partitions are merged on each run even
// when nothing was listed for them, so stale shows get the missing
// policy applied.
type ExhaustiveSource interface {
	ExhaustivePartitions() []string
}
