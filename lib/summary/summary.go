package summary

import (
	"sort"

	"boxoffice-tracker/lib/sales"
	"boxoffice-tracker/lib/showstore"
)

// Movie is display metadata fetched from a source catalog.
type Movie struct {
	Name        string `json:"name,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Duration    int    `json:"duration,omitempty"`
	ReleaseDate string `json:"releaseDate,omitempty"`
	Poster      string `json:"poster,omitempty"`
}

// Catalog maps movie id to its metadata.
type Catalog map[string]Movie

// Aggregate rolls up every ok record of one movie in a partition.
type Aggregate struct {
	ID string `json:"id"`
	Movie

	Sessions     int     `json:"sessions"`
	Venues       int     `json:"venues"`
	Sold         int     `json:"sold"`
	Available    int     `json:"available"`
	Total        int     `json:"total"`
	Gross        float64 `json:"gross"`
	GrossWithTax float64 `json:"grossWithTax,omitempty"`
	MaxGross     float64 `json:"maxGross"`
	Occupancy    float64 `json:"occupancy"`
}

// GroupKey is the movie a record contributes to, the title stands in
// for sources that expose no movie id. A record with neither is its own
// group.
func GroupKey(r showstore.Record) string {
	switch {
	case r.MovieID != "":
		return r.MovieID
	case r.Title != "":
		return r.Title
	}
	return string(r.ID)
}

type accumulator struct {
	agg    Aggregate
	venues map[string]struct{}
}

// Summarize computes one aggregate per movie over the given records,
// sorted by movie id. Records that are not ok contribute nothing.
// Occupancy is derived from the summed counts.
func Summarize(records []showstore.Record, catalog Catalog) []Aggregate {
	groups := map[string]*accumulator{}
	for _, r := range records {
		if r.Status != showstore.StatusOK || r.Metrics == nil {
			continue
		}
		key := GroupKey(r)
		acc, ok := groups[key]
		if !ok {
			acc = &accumulator{
				agg:    Aggregate{ID: key},
				venues: map[string]struct{}{},
			}
			groups[key] = acc
		}

		acc.agg.Sessions++
		acc.venues[r.VenueID] = struct{}{}
		acc.agg.Sold += r.Sold
		acc.agg.Available += r.Available
		acc.agg.Total += r.Total
		acc.agg.Gross += r.Gross
		acc.agg.GrossWithTax += r.GrossWithTax
		acc.agg.MaxGross += r.MaxGross
		if acc.agg.Name == "" {
			acc.agg.Name = r.Title
		}
	}

	out := make([]Aggregate, 0, len(groups))
	for key, acc := range groups {
		agg := acc.agg
		agg.Venues = len(acc.venues)
		agg.Occupancy = sales.Occupancy(agg.Sold, agg.Total)
		agg.Gross = sales.Round2(agg.Gross)
		agg.GrossWithTax = sales.Round2(agg.GrossWithTax)
		agg.MaxGross = sales.Round2(agg.MaxGross)

		movie, ok := catalog[key]
		if ok {
			if movie.Name == "" {
				movie.Name = agg.Name
			}
			agg.Movie = movie
		}
		out = append(out, agg)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Totals folds aggregates into a single row for table footers. Venues
// is left zero, distinct venues cannot be recovered from aggregates.
func Totals(aggregates []Aggregate) Aggregate {
	var total Aggregate
	for _, agg := range aggregates {
		total.Sessions += agg.Sessions
		total.Sold += agg.Sold
		total.Available += agg.Available
		total.Total += agg.Total
		total.Gross += agg.Gross
		total.GrossWithTax += agg.GrossWithTax
		total.MaxGross += agg.MaxGross
	}
	total.Occupancy = sales.Occupancy(total.Sold, total.Total)
	total.Gross = sales.Round2(total.Gross)
	total.GrossWithTax = sales.Round2(total.GrossWithTax)
	total.MaxGross = sales.Round2(total.MaxGross)
	return total
}
