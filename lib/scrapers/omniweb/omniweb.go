package omniweb

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"

	"boxoffice-tracker/lib/fetcherr"
	"boxoffice-tracker/lib/fetchpool"
	"boxoffice-tracker/lib/restyutil"
	"boxoffice-tracker/lib/scrapers/identity"
	"boxoffice-tracker/lib/showstore"
	"boxoffice-tracker/lib/summary"
	"boxoffice-tracker/lib/telemetry"
	"boxoffice-tracker/lib/textutil"
	"boxoffice-tracker/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("boxoffice.scrapers.omniweb")

const Name = "omniweb"

const (
	report_enumerate_venue = "enumerate-venue"
	report_filtered        = "filtered"
)

type Config struct {
	// Venues are the base urls of every venue, ex.
	// https://omniwebticketing5.com/orleans/.
	Venues []string `json:"venues"`
	// Date is the schedule date (YYYY-MM-DD), today when empty.
	Date string `json:"date"`
	// TargetTitles restricts fetching to matching movie titles, empty
	// means every movie.
	TargetTitles   []string          `json:"target_titles"`
	TitleThreshold float64           `json:"title_threshold"`
	Identity       identity.Identity `json:"identity"`
	MissingPolicy  string            `json:"missing_policy"`
}

var defaultIdentity = identity.Identity{
	Headers: map[string]string{
		"accept": "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	},
}

type venue struct {
	id   string
	base string
	// http lists the schedule, seat maps use a client per chain.
	http *resty.Client
}

type Source struct {
	config Config
	date   string
	venues []venue
	opts   identity.Options
	policy showstore.MissingPolicy
	tel    telemetry.API
}

// VenueID is the last path segment of a venue url.
func VenueID(base string) string {
	parsed, err := url.Parse(base)
	if err != nil || parsed.Path == "" {
		return strings.Trim(base, "/")
	}
	return path.Base(strings.TrimRight(parsed.Path, "/"))
}

func NewSource(config Config, clock timezone.Clock, opts identity.Options) (Source, error) {
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
	config.Identity = config.Identity.Merge(defaultIdentity)
	opts.Limiter = identity.NewLimiter(config.Identity)

	date := config.Date
	if date == "" {
		date = timezone.Date(clock, clock.Now())
	}

	s := Source{
		config: config,
		date:   date,
		opts:   opts,
		policy: policy,
		tel:    telemetry.NewScopedAPI(Name, opts.Tel),
	}
	seen := map[string]bool{}
	for _, raw := range config.Venues {
		base, err := identity.NormalizeURL(raw)
		if err != nil {
			return Source{}, fmt.Errorf("venue %s: %w", raw, err)
		}
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		if seen[base] {
			continue
		}
		seen[base] = true
		client, err := identity.NewClient(base, config.Identity, opts)
		if err != nil {
			return Source{}, fmt.Errorf("venue %s: %w", base, err)
		}
		s.venues = append(s.venues, venue{id: VenueID(base), base: base, http: client})
	}
	return s, nil
}

func (s Source) Name() string {
	return Name
}

func (s Source) Date() string {
	return s.date
}

func (s Source) MissingPolicy() showstore.MissingPolicy {
	return s.policy
}

func (s Source) Partition(r showstore.Record) string {
	return r.Date
}

// Catalog is empty, venue pages carry nothing but titles.
func (s Source) Catalog(ctx context.Context) (summary.Catalog, error) {
	return summary.Catalog{}, nil
}

// Enumerate reads the schedule of every venue. A venue that cannot be
// read is skipped, the run fails only when no venue could be read.
func (s Source) Enumerate(ctx context.Context) ([]fetchpool.Job, error) {
	ctx, span := tracer.Start(ctx, "Enumerate")
	defer span.End()
	span.SetAttributes(attribute.String("date", s.date), attribute.Int("venues", len(s.venues)))

	perVenue := make([][]fetchpool.Job, len(s.venues))
	errs := make([]error, len(s.venues))

	var group errgroup.Group
	group.SetLimit(4)
	for i, v := range s.venues {
		group.Go(func() error {
			perVenue[i], errs[i] = s.enumerateVenue(ctx, v)
			if errs[i] != nil {
				s.tel.ReportBroken(report_enumerate_venue, v.id, errs[i])
			}
			return nil
		})
	}
	group.Wait()

	var jobs []fetchpool.Job
	failed := 0
	for i := range s.venues {
		if errs[i] != nil {
			failed++
			continue
		}
		jobs = append(jobs, perVenue[i]...)
	}
	if failed > 0 && failed == len(s.venues) {
		return nil, fmt.Errorf("list venues: every one of %d venues failed, first: %w", failed, errs[0])
	}
	return jobs, nil
}

func (s Source) enumerateVenue(ctx context.Context, v venue) ([]fetchpool.Job, error) {
	listing := fmt.Sprintf("?schdate=%s", s.date)
	page, err := restyutil.GetBody(ctx, v.http, listing)
	if err != nil {
		return nil, err
	}
	movies, err := parseMovieData(string(page))
	if err != nil {
		return nil, fetcherr.Decode(v.base+listing, err)
	}

	var seeds []showstore.Record
	for _, movie := range movies {
		title := textutil.CollapseSpace(movie.Title)
		if !textutil.MatchTitle(title, s.config.TargetTitles, s.config.TitleThreshold) {
			s.tel.ReportDebug(report_filtered, v.id, title)
			continue
		}
		for audId, aud := range movie.SchAuds {
			for _, perf := range aud.SchPerfsReserved {
				perfIx := string(perf.PerfIx)
				seeds = append(seeds, showstore.Record{
					ID:      showstore.NewKey(v.id, title, perfIx, s.date, perf.StartTimeStr),
					VenueID: v.id,
					Title:   title,
					Date:    s.date,
					Time:    perf.StartTimeStr,
					Screen:  audId,
					Attributes: map[string]string{
						"perfIx":    perfIx,
						"dateLabel": perf.SchDateStr,
					},
				})
			}
		}
	}
	// the schedule is a set of maps, order the jobs for stable runs
	sort.Slice(seeds, func(i, j int) bool {
		return seeds[i].ID < seeds[j].ID
	})

	jobs := make([]fetchpool.Job, len(seeds))
	for i, seed := range seeds {
		jobs[i] = fetchpool.Job{Seed: seed, Fetch: s.fetcher(v.base)}
	}
	return jobs, nil
}

// fetcher walks the checkout flow of one performance: performance page
// for the security token, cart form for one adult, then the seat map.
// Every chain gets its own cookie session so that concurrent carts do
// not mix.
func (s Source) fetcher(base string) fetchpool.FetchFunc {
	return func(ctx context.Context, seed showstore.Record) (showstore.Record, error) {
		opts := s.opts
		opts.NoRedirects = true
		client, err := identity.NewClient(base, s.config.Identity, opts)
		if err != nil {
			return showstore.Record{}, err
		}

		perfUrl := fmt.Sprintf("?schdate=%s&perfix=%s", seed.Date, url.QueryEscape(seed.Attributes["perfIx"]))
		page, err := restyutil.GetBody(ctx, client, perfUrl)
		if err != nil {
			return showstore.Record{}, err
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
		if err != nil {
			return showstore.Record{}, fetcherr.Decode(base+perfUrl, err)
		}
		token, err := securityToken(doc)
		if err != nil {
			return showstore.Record{}, fetcherr.Decode(base+perfUrl, err)
		}

		res, err := client.R().
			SetContext(ctx).
			SetQueryParam("main_page", "shopping_cart").
			SetFormData(map[string]string{
				"securityToken":         token,
				"ctl00_dd_1":            "1",
				"ctl00_dd_2":            "0",
				"ctl00_dd_3":            "0",
				"ctl00_from_cats":       "default",
				"ctl00_txtEmail":        "",
				"ctl00_txtConfirmEmail": "",
			}).
			Post(perfUrl)
		if err != nil {
			return showstore.Record{}, fetcherr.Transport(base+perfUrl, err)
		}

		seatsUrl := "?seats=1"
		switch res.StatusCode() {
		case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther:
			seatsUrl = resolveLocation(base, res.Header().Get("location"))
		}

		seatmap, err := restyutil.GetBody(ctx, client, seatsUrl)
		if err != nil {
			return showstore.Record{}, err
		}
		metrics, err := parseSeatMap(seatmap)
		if err != nil {
			return showstore.Record{}, fetcherr.Decode(seatsUrl, err)
		}
		return showstore.OK(seed, metrics), nil
	}
}

// resolveLocation turns a redirect target into a url the venue client
// can request, bare query strings are relative to the venue.
func resolveLocation(base string, location string) string {
	if location == "" {
		return "?seats=1"
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return location
	}
	baseUrl, err := url.Parse(base)
	if err != nil {
		return location
	}
	ref, err := url.Parse(location)
	if err != nil {
		return location
	}
	return baseUrl.ResolveReference(ref).String()
}
