package showstore

import (
	"errors"
	"fmt"
	"testing"

	"boxoffice-tracker/lib/sales"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func seed(id string) Record {
	return Record{ID: Key(id), VenueID: "cinema-1", MovieID: "HO00010652", Date: "2025-09-24"}
}

func okRecord(id string, sold, total int) Record {
	return OK(seed(id), sales.FromCounts(sales.Counts{Sold: sold, Available: total - sold}, sales.Pricing{Net: 20, Grand: 20}))
}

func errRecord(id string, msg string) Record {
	return Failed(seed(id), errors.New(msg))
}

func TestNewKey(t *testing.T) {
	key := NewKey("orleans", "Weapons", "12", "2025-09-24", "7:00 PM")
	require.Equal(t, Key("orleans|Weapons|12|2025-09-24|7:00 PM"), key)
	require.Equal(t, []string{"orleans", "Weapons", "12", "2025-09-24", "7:00 PM"}, key.Parts())
	require.Equal(t, NewKey("a", "b"), NewKey("a", "b"))
	require.NotEqual(t, NewKey("a", "b"), NewKey("b", "a"))
}

func TestMergeOkOverwrites(t *testing.T) {
	prior := Partition{"s1": okRecord("s1", 1, 10)}
	merged := Merge(prior, NewBatch(okRecord("s1", 5, 10)), RetainMissing)

	require.Equal(t, 5, merged["s1"].Sold)
	require.Equal(t, 1, prior["s1"].Sold, "prior partition must not be modified")
}

func TestMergeErrorPreservation(t *testing.T) {
	prior := Partition{"s1": okRecord("s1", 4, 10)}
	merged := Merge(prior, NewBatch(errRecord("s1", "http error: HTTP 503")), RetainMissing)

	record := merged["s1"]
	require.Equal(t, StatusOK, record.Status)
	require.Equal(t, 4, record.Sold)
	require.Equal(t, 10, record.Total)
	require.Equal(t, "http error: HTTP 503", record.LastError)
	require.Empty(t, record.Error)

	// a later failure replaces the annotation, the figures stay
	merged = Merge(merged, NewBatch(errRecord("s1", "transport error: timeout")), RetainMissing)
	require.Equal(t, "transport error: timeout", merged["s1"].LastError)
	require.Equal(t, 4, merged["s1"].Sold)
}

func TestMergeNewErrorInsertion(t *testing.T) {
	merged := Merge(Partition{}, NewBatch(errRecord("s2", "decode error: bad json")), RetainMissing)

	record := merged["s2"]
	require.Equal(t, StatusError, record.Status)
	require.Equal(t, "decode error: bad json", record.Error)
	require.Equal(t, "decode error: bad json", record.LastError)
	require.Nil(t, record.Metrics)

	// an error seen later for an error record only moves the annotation
	merged = Merge(merged, NewBatch(errRecord("s2", "http error: HTTP 404")), RetainMissing)
	require.Equal(t, StatusError, merged["s2"].Status)
	require.Equal(t, "decode error: bad json", merged["s2"].Error)
	require.Equal(t, "http error: HTTP 404", merged["s2"].LastError)

	// recovery makes the record authoritative again
	merged = Merge(merged, NewBatch(okRecord("s2", 2, 8)), RetainMissing)
	require.Equal(t, StatusOK, merged["s2"].Status)
	require.Empty(t, merged["s2"].LastError)
}

func TestMergeMissingPolicy(t *testing.T) {
	run1 := NewBatch(okRecord("a", 1, 10), okRecord("b", 2, 10), errRecord("c", "boom"))
	run2 := NewBatch(okRecord("a", 3, 10))

	retained := Merge(Merge(Partition{}, run1, RetainMissing), run2, RetainMissing)
	require.Equal(t, StatusOK, retained["b"].Status)
	require.Equal(t, 2, retained["b"].Sold)
	require.Equal(t, StatusError, retained["c"].Status)

	marked := Merge(Merge(Partition{}, run1, MarkMissing), run2, MarkMissing)
	require.Equal(t, StatusMissing, marked["b"].Status)
	require.Equal(t, 2, marked["b"].Sold)
	require.Equal(t, StatusError, marked["c"].Status, "only ok records degrade to missing")
	require.Equal(t, StatusOK, marked["a"].Status)

	// a missing record that comes back is ok again
	marked = Merge(marked, NewBatch(okRecord("b", 6, 10)), MarkMissing)
	require.Equal(t, StatusOK, marked["b"].Status)
	require.Equal(t, StatusMissing, marked["a"].Status)
}

func TestBatchOrderIndependence(t *testing.T) {
	ok := okRecord("s1", 3, 10)
	first := errRecord("s1", "first")
	second := errRecord("s1", "second")

	require.Equal(t, ok, NewBatch(first, ok)["s1"])
	require.Equal(t, ok, NewBatch(ok, first)["s1"])
	require.Equal(t, first, NewBatch(first, second)["s1"])
}

func TestParseMissingPolicy(t *testing.T) {
	policy, err := ParseMissingPolicy("")
	require.NoError(t, err)
	require.Equal(t, RetainMissing, policy)

	policy, err = ParseMissingPolicy("mark_missing")
	require.NoError(t, err)
	require.Equal(t, MarkMissing, policy)

	_, err = ParseMissingPolicy("delete")
	require.Error(t, err)
}

func buildBatch(keys []int, oks []bool) Batch {
	b := Batch{}
	for i, k := range keys {
		id := fmt.Sprintf("s%d", k)
		if i < len(oks) && oks[i] {
			b.Add(okRecord(id, i%10, 10))
			continue
		}
		b.Add(errRecord(id, fmt.Sprintf("failure %d", i)))
	}
	return b
}

func TestMergeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	keys := gen.SliceOf(gen.IntRange(0, 8))
	statuses := gen.SliceOf(gen.Bool())

	for _, policy := range []MissingPolicy{RetainMissing, MarkMissing} {
		properties.Property(fmt.Sprintf("merge is idempotent (%s)", policy), prop.ForAll(
			func(priorKeys []int, priorOks []bool, batchKeys []int, batchOks []bool) bool {
				prior := Merge(Partition{}, buildBatch(priorKeys, priorOks), RetainMissing)
				batch := buildBatch(batchKeys, batchOks)

				once := Merge(prior, batch, policy)
				twice := Merge(once, batch, policy)
				return cmp.Equal(once, twice)
			},
			keys, statuses, keys, statuses,
		))

		properties.Property(fmt.Sprintf("ok records never become errors (%s)", policy), prop.ForAll(
			func(priorKeys []int, batchKeys []int, batchOks []bool) bool {
				prior := Merge(Partition{}, buildBatch(priorKeys, nil), RetainMissing)
				for k, r := range prior {
					prior[k] = OK(r, sales.Metrics{Total: 1, Available: 1})
				}
				merged := Merge(prior, buildBatch(batchKeys, batchOks), policy)
				for k := range prior {
					if merged[k].Status == StatusError {
						return false
					}
				}
				return len(merged) >= len(prior)
			},
			keys, keys, statuses,
		))
	}

	properties.TestingRun(t)
}
