package showstore

import (
	"fmt"
)

// MissingPolicy decides what happens to previously stored records that a
// run did not observe.
type MissingPolicy string

const (
	// RetainMissing keeps unobserved records unchanged.
	RetainMissing MissingPolicy = "retain"
	// MarkMissing flags unobserved ok records as missing, for sources
	// whose listing is exhaustive on every run.
	MarkMissing MissingPolicy = "mark_missing"
)

func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch MissingPolicy(s) {
	case "", RetainMissing:
		return RetainMissing, nil
	case MarkMissing:
		return MarkMissing, nil
	}
	return "", fmt.Errorf("unknown missing policy: %q", s)
}

// Batch is the set of results of a single run keyed by identity.
type Batch map[Key]Record

func NewBatch(records ...Record) Batch {
	b := Batch{}
	for _, r := range records {
		b.Add(r)
	}
	return b
}

// Add folds a result into the batch. Within one run an ok result always
// replaces what is there, while a failure only lands on an empty slot,
// so the outcome does not depend on completion order beyond ok results
// racing each other.
func (b Batch) Add(r Record) {
	_, exists := b[r.ID]
	if r.Status == StatusOK || !exists {
		b[r.ID] = r
	}
}

// Merge applies a run's batch to the prior partition and returns the new
// partition, prior is not modified.
//
//   - ok results overwrite the stored record.
//   - an error result for an unseen key is inserted as is.
//   - an error result for a stored key only updates its lastError.
//   - stored keys absent from the batch are kept, or marked missing
//     under MarkMissing when they were ok.
//
// Merging the same batch twice yields the same partition as merging it
// once. Batches from different runs must be merged in run order.
func Merge(prior Partition, batch Batch, policy MissingPolicy) Partition {
	merged := prior.Clone()

	for key, incoming := range batch {
		if incoming.Status == StatusOK {
			merged[key] = incoming
			continue
		}

		existing, exists := merged[key]
		if !exists {
			if incoming.LastError == "" {
				incoming.LastError = incoming.Error
			}
			merged[key] = incoming
			continue
		}
		existing.LastError = incoming.Error
		merged[key] = existing
	}

	if policy == MarkMissing {
		for key, existing := range merged {
			_, observed := batch[key]
			if observed || existing.Status != StatusOK {
				continue
			}
			existing.Status = StatusMissing
			merged[key] = existing
		}
	}

	return merged
}
