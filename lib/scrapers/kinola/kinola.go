package kinola

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"boxoffice-tracker/lib/fetcherr"
	"boxoffice-tracker/lib/fetchpool"
	"boxoffice-tracker/lib/htmlutil"
	"boxoffice-tracker/lib/restyutil"
	"boxoffice-tracker/lib/sales"
	"boxoffice-tracker/lib/scrapers/identity"
	"boxoffice-tracker/lib/showstore"
	"boxoffice-tracker/lib/summary"
	"boxoffice-tracker/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("boxoffice.scrapers.kinola")

const Name = "kinola"

// PartitionName is the only partition, the listing is refreshed as a
// whole every run.
const PartitionName = "data"

const (
	DefaultListingUrl = "https://www.myyrikino.fi/ohjelmisto/"
	DefaultApiBaseUrl = "https://myyri.kinola.ee"
	DefaultLanguage   = "fi"
)

type Config struct {
	ListingUrl string            `json:"listing_url"`
	ApiBaseUrl string            `json:"api_base_url"`
	Language   string            `json:"language"`
	Identity   identity.Identity `json:"identity"`
	// MissingPolicy defaults to mark_missing, the listing names every
	// upcoming event.
	MissingPolicy string `json:"missing_policy"`
}

type Event struct {
	TicketTypes []struct {
		Price float64 `json:"price"`
	} `json:"ticketTypes"`
	Seats struct {
		Unavailable []json.RawMessage `json:"unavailable"`
		FreeCount   int               `json:"freeCount"`
	} `json:"seats"`
	Production struct {
		Name  string `json:"name"`
		Image struct {
			Srcset string `json:"srcset"`
		} `json:"image"`
	} `json:"production"`
	Details struct {
		StartDate string `json:"startDate"`
	} `json:"details"`
}

// Price is the first ticket type, 0 when the event lists none.
func (e Event) Price() float64 {
	if len(e.TicketTypes) == 0 {
		return 0
	}
	return e.TicketTypes[0].Price
}

func (e Event) Metrics() sales.Metrics {
	return sales.FromCounts(
		sales.Counts{Sold: len(e.Seats.Unavailable), Available: e.Seats.FreeCount},
		sales.NewPricing(e.Price(), 0, 0),
	)
}

// Poster is the first candidate of the production image srcset.
func (e Event) Poster() string {
	first, _, _ := strings.Cut(e.Production.Image.Srcset, ",")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// productions collects movie metadata while events are fetched, the
// event api is the only place it is exposed.
type productions struct {
	mutex   sync.Mutex
	catalog summary.Catalog
}

func (p *productions) observe(e Event) {
	if e.Production.Name == "" {
		return
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.catalog[e.Production.Name] = summary.Movie{
		Name:   e.Production.Name,
		Poster: e.Poster(),
	}
}

type Source struct {
	listing     *resty.Client
	listingUrl  *url.URL
	api         *resty.Client
	config      Config
	policy      showstore.MissingPolicy
	productions *productions
	tel         telemetry.API
}

func NewSource(config Config, opts identity.Options) (Source, error) {
	if config.ListingUrl == "" {
		config.ListingUrl = DefaultListingUrl
	}
	if config.ApiBaseUrl == "" {
		config.ApiBaseUrl = DefaultApiBaseUrl
	}
	if config.Language == "" {
		config.Language = DefaultLanguage
	}
	policy := showstore.MarkMissing
	if config.MissingPolicy != "" {
		var err error
		policy, err = showstore.ParseMissingPolicy(config.MissingPolicy)
		if err != nil {
			return Source{}, err
		}
	}
	if opts.Name == "" {
		opts.Name = Name
	}
	if opts.Tel == nil {
		opts.Tel = telemetry.SlogAPI{}
	}
	opts.Limiter = identity.NewLimiter(config.Identity)

	listingUrl, err := url.Parse(config.ListingUrl)
	if err != nil {
		return Source{}, err
	}
	listing, err := identity.NewClient(config.ListingUrl, config.Identity, opts)
	if err != nil {
		return Source{}, err
	}
	api, err := identity.NewClient(config.ApiBaseUrl, config.Identity.Merge(identity.Identity{
		Headers: map[string]string{"accept": "application/json"},
	}), opts)
	if err != nil {
		return Source{}, err
	}

	return Source{
		listing:     listing,
		listingUrl:  listingUrl,
		api:         api,
		config:      config,
		policy:      policy,
		productions: &productions{catalog: summary.Catalog{}},
		tel:         telemetry.NewScopedAPI(Name, opts.Tel),
	}, nil
}

func (s Source) Name() string {
	return Name
}

func (s Source) MissingPolicy() showstore.MissingPolicy {
	return s.policy
}

func (s Source) Partition(showstore.Record) string {
	return PartitionName
}

func (s Source) ExhaustivePartitions() []string {
	return []string{PartitionName}
}

// EventID returns the event uuid of a checkout link.
func EventID(href string) (string, bool) {
	_, rest, found := strings.Cut(href, "checkout/")
	if !found {
		return "", false
	}
	rest, _, _ = strings.Cut(rest, "?")
	rest, _, _ = strings.Cut(rest, "#")
	id := strings.Trim(rest, "/")
	return id, id != ""
}

// Enumerate collects every checkout link of the listing page, each one
// is an event. Failing to read the listing is fatal.
func (s Source) Enumerate(ctx context.Context) ([]fetchpool.Job, error) {
	ctx, span := tracer.Start(ctx, "Enumerate")
	defer span.End()

	page, err := restyutil.GetBody(ctx, s.listing, "")
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list events: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("list events: %w", fetcherr.Decode(s.config.ListingUrl, err))
	}

	seen := map[string]bool{}
	var jobs []fetchpool.Job
	for _, anchor := range htmlutil.GetAnchors(ctx, s.listingUrl, doc.Find("a[href]")) {
		id, ok := EventID(anchor.Href)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		jobs = append(jobs, fetchpool.Job{
			Seed:  showstore.Record{ID: showstore.Key(id), VenueID: s.listingUrl.Hostname()},
			Fetch: s.fetch,
		})
	}
	span.SetAttributes(attribute.Int("events", len(jobs)))
	s.tel.ReportCount("events", int64(len(jobs)))
	return jobs, nil
}

func (s Source) fetch(ctx context.Context, seed showstore.Record) (showstore.Record, error) {
	var event Event
	err := restyutil.GetJSON(ctx, s.api, fmt.Sprintf("/api/plugin/v1/events/%s/%s", seed.ID, s.config.Language), &event)
	if err != nil {
		return showstore.Record{}, err
	}
	s.productions.observe(event)

	date, clock, _ := strings.Cut(event.Details.StartDate, "T")
	seed.Title = event.Production.Name
	seed.Date = date
	seed.Time = clock
	if poster := event.Poster(); poster != "" {
		seed.Attributes = map[string]string{"poster": poster}
	}
	return showstore.OK(seed, event.Metrics()), nil
}

// Catalog returns the productions seen by fetches so far, keyed by
// name.
func (s Source) Catalog(ctx context.Context) (summary.Catalog, error) {
	s.productions.mutex.Lock()
	defer s.productions.mutex.Unlock()
	out := make(summary.Catalog, len(s.productions.catalog))
	for k, v := range s.productions.catalog {
		out[k] = v
	}
	return out, nil
}
