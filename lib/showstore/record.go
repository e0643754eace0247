package showstore

import (
	"sort"
	"strings"

	"boxoffice-tracker/lib/sales"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusError   Status = "error"
	StatusMissing Status = "missing"
)

// Key identifies a show within a partition and is stable across runs.
type Key string

const keySeparator = "|"

// NewKey builds a composite key out of natural identifiers, the parts
// are kept in the given order.
func NewKey(parts ...string) Key {
	return Key(strings.Join(parts, keySeparator))
}

func (k Key) Parts() []string {
	return strings.Split(string(k), keySeparator)
}

// Record is one showtime at one venue.
type Record struct {
	ID      Key    `json:"id"`
	VenueID string `json:"venueId,omitempty"`
	MovieID string `json:"movieId,omitempty"`
	Title   string `json:"title,omitempty"`
	Date    string `json:"date,omitempty"`
	Time    string `json:"time,omitempty"`
	Screen  string `json:"screen,omitempty"`
	// Attributes carries vendor specific fields that are persisted but
	// never aggregated (operator, session type, poster, ...).
	Attributes map[string]string `json:"attributes,omitempty"`

	// Metrics is nil on records that failed before any figures were known.
	*sales.Metrics

	Status    Status `json:"status"`
	Error     string `json:"error,omitempty"`
	LastError string `json:"lastError,omitempty"`
}

// OK returns the seed completed with metrics.
func OK(seed Record, metrics sales.Metrics) Record {
	seed.Metrics = &metrics
	seed.Status = StatusOK
	seed.Error = ""
	return seed
}

// Failed returns the seed as an error record, whatever identifying
// fields the seed carries are kept.
func Failed(seed Record, err error) Record {
	msg := err.Error()
	seed.Status = StatusError
	seed.Error = msg
	seed.LastError = msg
	return seed
}

// Partition maps identity to record for one persisted scope.
type Partition map[Key]Record

// Records returns the partition sorted by key.
func (p Partition) Records() []Record {
	out := make([]Record, 0, len(p))
	for _, r := range p {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

func (p Partition) Clone() Partition {
	out := make(Partition, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func (p Partition) Count(status Status) int {
	n := 0
	for _, r := range p {
		if r.Status == status {
			n++
		}
	}
	return n
}
