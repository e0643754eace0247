package runlog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"boxoffice-tracker/lib/docstore"
	"boxoffice-tracker/lib/sales"
	"boxoffice-tracker/lib/showstore"
	"boxoffice-tracker/lib/timezone"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func fixedClock(t *testing.T) timezone.Clock {
	location, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return timezone.FixedClock{At: time.Date(2025, 9, 24, 19, 5, 9, 0, location)}
}

func TestFromRecords(t *testing.T) {
	records := []showstore.Record{
		showstore.OK(showstore.Record{ID: "a", VenueID: "v1"}, sales.FromCounts(
			sales.Counts{Sold: 3, Available: 7},
			sales.NewPricing(15.49, 1.2, 1.5),
		)),
		showstore.OK(showstore.Record{ID: "b", VenueID: "v1"}, sales.Metrics{Total: 100, Sold: 7, Available: 93, Gross: 70}),
		showstore.OK(showstore.Record{ID: "c", VenueID: "v2"}, sales.Metrics{Total: 0}),
		showstore.Failed(showstore.Record{ID: "d", VenueID: "v3"}, errors.New("http error: HTTP 503")),
		{ID: "e", VenueID: "v4", Status: showstore.StatusMissing, Metrics: &sales.Metrics{Total: 50, Sold: 50}},
	}

	entry := FromRecords(fixedClock(t), "omniweb", records)

	_, err := uuid.Parse(entry.RunID)
	require.NoError(t, err)
	require.Equal(t, "2025-09-24 07:05:09 PM", entry.Time)
	require.Equal(t, "omniweb", entry.Source)
	require.Equal(t, 3, entry.TotalShows)
	require.Equal(t, 10, entry.TicketsSold)
	require.Equal(t, 9.09, entry.Occupancy)
	require.Equal(t, 2, entry.UniqueVenues)
	require.Equal(t, 1, entry.Errors)
	// 3 * 15.49 tax inclusive plus 70
	require.Equal(t, 116.47, entry.TotalGross)
}

func TestFromRecordsEmpty(t *testing.T) {
	entry := FromRecords(fixedClock(t), "kinola", nil)
	require.Zero(t, entry.TotalShows)
	require.Zero(t, entry.Occupancy)
	require.Zero(t, entry.TotalGross)
}

func TestAppend(t *testing.T) {
	ctx := context.Background()
	backend, err := docstore.NewFS(t.TempDir())
	require.NoError(t, err)
	key := Key("hoyts")
	require.Equal(t, "hoyts/logs.json", key)

	entries, err := Load(ctx, backend, key)
	require.NoError(t, err)
	require.Empty(t, entries)

	first := Entry{RunID: "1", Source: "hoyts", TotalShows: 4}
	second := Entry{RunID: "2", Source: "hoyts", TotalShows: 6}
	require.NoError(t, Append(ctx, backend, key, first))
	require.NoError(t, Append(ctx, backend, key, second))

	entries, err = Load(ctx, backend, key)
	require.NoError(t, err)
	require.Equal(t, []Entry{first, second}, entries)
}

func TestAppendCorruptLog(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	backend, err := docstore.NewFS(dir)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "hoyts"), 0755))
	path := filepath.Join(dir, "hoyts", "logs.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"runId": `), 0644))

	err = Append(ctx, backend, Key("hoyts"), Entry{RunID: "1"})
	require.Error(t, err)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, `[{"runId": `, string(body), "a corrupt log is never overwritten")
}
