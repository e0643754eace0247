// Package demo is a source of generated showtimes. It exercises the
// whole tracking pipeline without reaching any vendor.
package demo

import (
	"context"
	"fmt"
	"math/rand"

	"boxoffice-tracker/lib/fetcherr"
	"boxoffice-tracker/lib/fetchpool"
	"boxoffice-tracker/lib/sales"
	"boxoffice-tracker/lib/showstore"
	"boxoffice-tracker/lib/summary"
	"boxoffice-tracker/lib/telemetry"
	"boxoffice-tracker/lib/timezone"

	"github.com/bxcodec/faker/v4"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const Name = "demo"

type Config struct {
	Venues int `json:"venues"`
	Movies int `json:"movies"`
	// ShowsPerVenue is the number of sessions of each venue.
	ShowsPerVenue int `json:"shows_per_venue"`
	// FailureRate is the chance in [0, 1] of a fetch failing.
	FailureRate   float64 `json:"failure_rate"`
	Date          string  `json:"date"`
	MissingPolicy string  `json:"missing_policy"`
}

type movie struct {
	id string
	summary.Movie
}

type Source struct {
	config Config
	date   string
	movies []movie
	policy showstore.MissingPolicy
	tel    telemetry.API
}

func orDefault(n, fallback int) int {
	if n <= 0 {
		return fallback
	}
	return n
}

func NewSource(config Config, clock timezone.Clock, tel telemetry.API) (Source, error) {
	policy, err := showstore.ParseMissingPolicy(config.MissingPolicy)
	if err != nil {
		return Source{}, err
	}
	if config.FailureRate < 0 || config.FailureRate > 1 {
		return Source{}, fmt.Errorf("failure rate %v is outside [0, 1]", config.FailureRate)
	}
	if tel == nil {
		tel = telemetry.SlogAPI{}
	}
	config.Venues = orDefault(config.Venues, 3)
	config.Movies = orDefault(config.Movies, 4)
	config.ShowsPerVenue = orDefault(config.ShowsPerVenue, 5)

	date := config.Date
	if date == "" {
		date = timezone.Date(clock, clock.Now())
	}

	title := cases.Title(language.English)
	movies := make([]movie, config.Movies)
	for i := range movies {
		movies[i] = movie{
			id: faker.UUIDHyphenated(),
			Movie: summary.Movie{
				Name:        title.String(faker.Word() + " " + faker.Word()),
				Summary:     faker.Sentence(),
				Duration:    80 + rand.Intn(100),
				ReleaseDate: date,
			},
		}
	}

	return Source{
		config: config,
		date:   date,
		movies: movies,
		policy: policy,
		tel:    telemetry.NewScopedAPI(Name, tel),
	}, nil
}

func (s Source) Name() string {
	return Name
}

func (s Source) MissingPolicy() showstore.MissingPolicy {
	return s.policy
}

func (s Source) Partition(r showstore.Record) string {
	return r.Date
}

func (s Source) Enumerate(ctx context.Context) ([]fetchpool.Job, error) {
	var jobs []fetchpool.Job
	for v := 0; v < s.config.Venues; v++ {
		venue := fmt.Sprintf("venue-%d", v+1)
		for i := 0; i < s.config.ShowsPerVenue; i++ {
			m := s.movies[rand.Intn(len(s.movies))]
			showtime := fmt.Sprintf("%02d:%02d", (10+i*2)%24, 15*rand.Intn(4))
			jobs = append(jobs, fetchpool.Job{
				Seed: showstore.Record{
					ID:      showstore.NewKey(venue, s.date, fmt.Sprint(i+1)),
					VenueID: venue,
					MovieID: m.id,
					Title:   m.Name,
					Date:    s.date,
					Time:    showtime,
					Screen:  fmt.Sprintf("Screen %d", i%3+1),
				},
				Fetch: s.fetch,
			})
		}
	}
	s.tel.ReportCount("sessions", int64(len(jobs)))
	return jobs, nil
}

func (s Source) fetch(ctx context.Context, seed showstore.Record) (showstore.Record, error) {
	if err := ctx.Err(); err != nil {
		return showstore.Record{}, fetcherr.Transport(string(seed.ID), err)
	}
	if rand.Float64() < s.config.FailureRate {
		return showstore.Record{}, fetcherr.HTTP("demo://"+string(seed.ID), 503)
	}

	rows := make([]sales.Row, 6+rand.Intn(10))
	demand := rand.Float64()
	for i := range rows {
		seats := make([]sales.Seat, 12+rand.Intn(8))
		for j := range seats {
			seats[j].Sold = rand.Float64() < demand
		}
		rows[i].Seats = seats
	}
	price := float64(12 + rand.Intn(14))
	return showstore.OK(seed, sales.Derive(&sales.SeatMap{Rows: rows}, price)), nil
}

func (s Source) Catalog(ctx context.Context) (summary.Catalog, error) {
	catalog := summary.Catalog{}
	for _, m := range s.movies {
		catalog[m.id] = m.Movie
	}
	return catalog, nil
}
