package hoyts

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"boxoffice-tracker/lib/fetchpool"
	"boxoffice-tracker/lib/sales"
	"boxoffice-tracker/lib/scrapers/identity"
	"boxoffice-tracker/lib/showstore"
	"boxoffice-tracker/lib/summary"
	"boxoffice-tracker/lib/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("boxoffice.scrapers.hoyts")

const Name = "hoyts"

const DefaultBaseUrl = "https://apim.hoyts.com.au/au"

const (
	report_enumerate_sessions = "enumerate-sessions"
	report_catalog            = "catalog"
)

type Config struct {
	BaseUrl string `json:"base_url"`
	// AllMovies fetches every session, otherwise only sessions of
	// TargetMovieIDs are fetched.
	AllMovies      bool              `json:"all_movies"`
	TargetMovieIDs []string          `json:"target_movie_ids"`
	Identity       identity.Identity `json:"identity"`
	// DefaultPrice is used when no adult ticket type can be found.
	DefaultPrice  float64 `json:"default_price"`
	MissingPolicy string  `json:"missing_policy"`
}

type Source struct {
	api    api
	config Config
	policy showstore.MissingPolicy
	tel    telemetry.API
}

func NewSource(config Config, opts identity.Options) (Source, error) {
	if config.BaseUrl == "" {
		config.BaseUrl = DefaultBaseUrl
	}
	policy, err := showstore.ParseMissingPolicy(config.MissingPolicy)
	if err != nil {
		return Source{}, err
	}
	if opts.Name == "" {
		opts.Name = Name
	}
	if opts.Tel == nil {
		opts.Tel = telemetry.SlogAPI{}
	}
	http, err := identity.NewClient(config.BaseUrl, config.Identity.Merge(identity.Identity{
		Headers: map[string]string{
			"accept":          "application/json, text/plain, */*",
			"accept-language": "en-US,en;q=0.9",
			"referer":         "https://www.hoyts.com.au/",
			"origin":          "https://www.hoyts.com.au",
			"pragma":          "no-cache",
			"cache-control":   "no-cache",
		},
	}), opts)
	if err != nil {
		return Source{}, err
	}
	return Source{
		api:    api{http: http},
		config: config,
		policy: policy,
		tel:    telemetry.NewScopedAPI(Name, opts.Tel),
	}, nil
}

func (s Source) Name() string {
	return Name
}

func (s Source) MissingPolicy() showstore.MissingPolicy {
	return s.policy
}

// Partition is the show date, "unknown" when the session has none.
func (s Source) Partition(r showstore.Record) string {
	if r.Date == "" {
		return "unknown"
	}
	return r.Date
}

func (s Source) wants(session Session) bool {
	return s.config.AllMovies || slices.Contains(s.config.TargetMovieIDs, session.MovieID)
}

// Enumerate lists the sessions of every cinema. Failing to list cinemas
// is fatal, a cinema whose sessions cannot be listed is skipped.
func (s Source) Enumerate(ctx context.Context) ([]fetchpool.Job, error) {
	ctx, span := tracer.Start(ctx, "Enumerate")
	defer span.End()

	cinemas, err := s.api.cinemas(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list cinemas: %w", err)
	}
	span.SetAttributes(attribute.Int("cinemas", len(cinemas)))

	perCinema := make([][]fetchpool.Job, len(cinemas))
	var mutex sync.Mutex
	failed := 0

	var group errgroup.Group
	group.SetLimit(4)
	for i, cinema := range cinemas {
		if cinema.ID == "" {
			continue
		}
		group.Go(func() error {
			sessions, err := s.api.sessions(ctx, cinema.ID)
			if err != nil {
				s.tel.ReportBroken(report_enumerate_sessions, cinema.ID, err)
				mutex.Lock()
				failed++
				mutex.Unlock()
				return nil
			}
			for _, session := range sessions {
				if !s.wants(session) {
					continue
				}
				perCinema[i] = append(perCinema[i], fetchpool.Job{
					Seed:  seed(cinema.ID, session),
					Fetch: s.fetch,
				})
			}
			return nil
		})
	}
	group.Wait()

	var jobs []fetchpool.Job
	for _, list := range perCinema {
		jobs = append(jobs, list...)
	}
	s.tel.ReportCount("sessions", int64(len(jobs)))
	if failed > 0 && failed == len(cinemas) {
		return nil, fmt.Errorf("list sessions: every one of %d cinemas failed", failed)
	}
	return jobs, nil
}

func seed(cinemaId string, session Session) showstore.Record {
	date, clock, _ := strings.Cut(session.When(), "T")
	attributes := map[string]string{}
	if session.TypeID != "" {
		attributes["typeId"] = session.TypeID
	}
	if session.Operator != "" {
		attributes["operator"] = session.Operator
	}
	if len(attributes) == 0 {
		attributes = nil
	}
	return showstore.Record{
		ID:         showstore.Key(session.ID),
		VenueID:    cinemaId,
		MovieID:    session.MovieID,
		Date:       date,
		Time:       clock,
		Screen:     session.ScreenName,
		Attributes: attributes,
	}
}

// fetch resolves the adult price, then counts the seat map with it.
func (s Source) fetch(ctx context.Context, seed showstore.Record) (showstore.Record, error) {
	ticket, err := s.api.ticket(ctx, seed.VenueID, string(seed.ID))
	if err != nil {
		return showstore.Record{}, err
	}
	price := sales.ResolveAdultPrice(ticket.TicketTypes, sales.PriceRule{Default: s.config.DefaultPrice})

	seatmap, err := s.api.seats(ctx, seed.VenueID, string(seed.ID))
	if err != nil {
		return showstore.Record{}, err
	}
	return showstore.OK(seed, sales.Derive(&seatmap, price)), nil
}

// Catalog returns the movie list keyed by vista id.
func (s Source) Catalog(ctx context.Context) (summary.Catalog, error) {
	movies, err := s.api.movies(ctx)
	if err != nil {
		s.tel.ReportWarning(report_catalog, err)
		return nil, err
	}
	catalog := summary.Catalog{}
	for _, m := range movies {
		if m.VistaID == "" {
			continue
		}
		catalog[m.VistaID] = summary.Movie{
			Name:        m.Name,
			Summary:     m.Summary,
			Duration:    m.Duration,
			ReleaseDate: m.ReleaseDate,
			Poster:      m.PosterImage,
		}
	}
	return catalog, nil
}
