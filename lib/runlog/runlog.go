package runlog

import (
	"context"
	"fmt"
	"path"

	"boxoffice-tracker/lib/docstore"
	"boxoffice-tracker/lib/sales"
	"boxoffice-tracker/lib/showstore"
	"boxoffice-tracker/lib/timezone"

	"github.com/google/uuid"
)

// Entry is a snapshot of the totals of one run, it is never modified
// after it is appended.
type Entry struct {
	RunID        string  `json:"runId"`
	Time         string  `json:"time"`
	Source       string  `json:"source"`
	TotalGross   float64 `json:"totalGross"`
	TotalShows   int     `json:"totalShows"`
	TicketsSold  int     `json:"ticketsSold"`
	Occupancy    float64 `json:"occupancy"`
	UniqueVenues int     `json:"uniqueVenues"`
	Errors       int     `json:"errors"`
}

// FromRecords derives an entry from every record a run touched. Only ok
// records count toward the totals, gross is tax inclusive where the
// source exposes it.
func FromRecords(clock timezone.Clock, source string, records []showstore.Record) Entry {
	entry := Entry{
		RunID:  uuid.NewString(),
		Time:   timezone.Format(clock, clock.Now()),
		Source: source,
	}

	var capacity int
	var gross float64
	venues := map[string]struct{}{}
	for _, r := range records {
		if r.Status == showstore.StatusError {
			entry.Errors++
		}
		if r.Status != showstore.StatusOK || r.Metrics == nil {
			continue
		}
		entry.TotalShows++
		entry.TicketsSold += r.Sold
		capacity += r.Total
		gross += r.BestGross()
		venues[r.VenueID] = struct{}{}
	}

	entry.TotalGross = sales.Round2(gross)
	entry.Occupancy = sales.Occupancy(entry.TicketsSold, capacity)
	entry.UniqueVenues = len(venues)
	return entry
}

func Key(source string) string {
	return path.Join(source, "logs.json")
}

// Load returns every entry under key in append order.
func Load(ctx context.Context, b docstore.Backend, key string) ([]Entry, error) {
	var entries []Entry
	_, err := docstore.ReadJSON(ctx, b, key, &entries)
	if err != nil {
		return nil, fmt.Errorf("load run log: %w", err)
	}
	return entries, nil
}

// Append adds entry to the end of the log under key. A log that cannot
// be decoded is left as is and an error is returned.
func Append(ctx context.Context, b docstore.Backend, key string, entry Entry) error {
	entries, err := Load(ctx, b, key)
	if err != nil {
		return err
	}
	entries = append(entries, entry)
	err = docstore.WriteJSON(ctx, b, key, entries)
	if err != nil {
		return fmt.Errorf("append run log: %w", err)
	}
	return nil
}
