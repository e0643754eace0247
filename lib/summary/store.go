package summary

import (
	"context"
	"fmt"
	"path"
	"slices"

	"boxoffice-tracker/lib/docstore"
)

// MovieDates records, for every movie ever summarized, the partitions
// it was seen in.
type MovieDates map[string]MovieDate

type MovieDate struct {
	Name        string   `json:"name"`
	Poster      string   `json:"poster,omitempty"`
	ReleaseDate string   `json:"releaseDate,omitempty"`
	Dates       []string `json:"dates"`
}

// Observe adds partition to the dates of every aggregate. Dates are
// appended once, a release date missing from an earlier observation is
// filled in.
func (m MovieDates) Observe(partition string, aggregates []Aggregate) {
	for _, agg := range aggregates {
		if agg.ID == "" {
			continue
		}
		entry, ok := m[agg.ID]
		if !ok {
			name := agg.Name
			if name == "" {
				name = "-"
			}
			entry = MovieDate{
				Name:        name,
				Poster:      agg.Poster,
				ReleaseDate: agg.ReleaseDate,
				Dates:       []string{},
			}
		}
		if entry.ReleaseDate == "" {
			entry.ReleaseDate = agg.ReleaseDate
		}
		if !slices.Contains(entry.Dates, partition) {
			entry.Dates = append(entry.Dates, partition)
		}
		m[agg.ID] = entry
	}
}

// Store persists summaries and the movie date index of one source.
type Store struct {
	backend docstore.Backend
	source  string
}

func NewStore(backend docstore.Backend, source string) Store {
	return Store{backend: backend, source: source}
}

func (s Store) Key(partition string) string {
	return path.Join(s.source, fmt.Sprintf("%s-summary.json", partition))
}

func (s Store) MovieDatesKey() string {
	return path.Join(s.source, "movie_dates.json")
}

func (s Store) Save(ctx context.Context, partition string, aggregates []Aggregate) error {
	return docstore.WriteJSON(ctx, s.backend, s.Key(partition), aggregates)
}

// Load returns the stored summary of a partition, found is false when
// it was never summarized.
func (s Store) Load(ctx context.Context, partition string) (aggregates []Aggregate, found bool, err error) {
	found, err = docstore.ReadJSON(ctx, s.backend, s.Key(partition), &aggregates)
	if err != nil {
		return nil, false, fmt.Errorf("load summary: %w", err)
	}
	return aggregates, found, nil
}

func (s Store) LoadMovieDates(ctx context.Context) (MovieDates, error) {
	dates := MovieDates{}
	_, err := docstore.ReadJSON(ctx, s.backend, s.MovieDatesKey(), &dates)
	if err != nil {
		return nil, fmt.Errorf("load movie dates: %w", err)
	}
	if dates == nil {
		dates = MovieDates{}
	}
	return dates, nil
}

// UpdateMovieDates folds the aggregates of a partition into the stored
// movie date index.
func (s Store) UpdateMovieDates(ctx context.Context, partition string, aggregates []Aggregate) (MovieDates, error) {
	dates, err := s.LoadMovieDates(ctx)
	if err != nil {
		return nil, err
	}
	dates.Observe(partition, aggregates)
	err = docstore.WriteJSON(ctx, s.backend, s.MovieDatesKey(), dates)
	if err != nil {
		return nil, err
	}
	return dates, nil
}
