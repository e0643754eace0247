package identity

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"boxoffice-tracker/lib/restyutil"
	"boxoffice-tracker/lib/telemetry"

	browser "github.com/EDDYCJY/fake-useragent"
	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/purell"
	"github.com/go-resty/resty/v2"
	"github.com/mazen160/go-random"
	"golang.org/x/time/rate"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// CacheBustParam is the query parameter that carries the random nonce
// when cache busting is enabled.
const CacheBustParam = "_"

// Identity is how an adapter presents itself to a vendor. Each adapter
// owns its identity, nothing here is shared between clients.
type Identity struct {
	UserAgent string `json:"user_agent"`
	// RotateUserAgent picks a random browser user agent for every
	// request instead of UserAgent.
	RotateUserAgent bool              `json:"rotate_user_agent"`
	Headers         map[string]string `json:"headers"`
	Cookie          string            `json:"cookie"`
	// CacheBust appends a random nonce to every request.
	CacheBust bool `json:"cache_bust"`
	// Timeout in seconds, defaults to 30.
	Timeout int `json:"timeout"`
	// RequestsPerSecond limits outgoing requests, 0 means unlimited.
	RequestsPerSecond float64 `json:"requests_per_second"`
}

// Merge returns id with every zero field taken from fallback, headers
// are merged with id's taking precedence.
func (id Identity) Merge(fallback Identity) Identity {
	out := id
	if out.UserAgent == "" {
		out.UserAgent = fallback.UserAgent
	}
	if out.Cookie == "" {
		out.Cookie = fallback.Cookie
	}
	if out.Timeout == 0 {
		out.Timeout = fallback.Timeout
	}
	if out.RequestsPerSecond == 0 {
		out.RequestsPerSecond = fallback.RequestsPerSecond
	}
	out.RotateUserAgent = out.RotateUserAgent || fallback.RotateUserAgent
	out.CacheBust = out.CacheBust || fallback.CacheBust

	headers := map[string]string{}
	for k, v := range fallback.Headers {
		headers[k] = v
	}
	for k, v := range id.Headers {
		headers[k] = v
	}
	out.Headers = headers
	return out
}

type Options struct {
	// Name scopes telemetry and dumped messages.
	Name string
	Tel  telemetry.API
	// Dump receives every request/response pair when set.
	Dump restyutil.Output
	// Limiter paces requests instead of a limiter derived from the
	// identity, clients sharing one limiter share its budget.
	Limiter *rate.Limiter
	// NoRedirects returns 3xx responses as is.
	NoRedirects bool
}

// NewLimiter returns the limiter for id, nil when id is unlimited.
func NewLimiter(id Identity) *rate.Limiter {
	if id.RequestsPerSecond <= 0 {
		return nil
	}
	burst := int(id.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	// burst >= rate so that no request is dropped
	return rate.NewLimiter(rate.Limit(id.RequestsPerSecond), burst)
}

// NormalizeURL puts a directory-like url into a canonical form, lower
// case scheme and host, no fragment, sorted query and a trailing slash.
func NormalizeURL(raw string) (string, error) {
	return purell.NormalizeURLString(
		raw,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagAddTrailingSlash|
			purell.FlagRemoveFragment|
			purell.FlagRemoveDuplicateSlashes|
			purell.FlagSortQuery,
	)
}

// NewClient returns a resty client that presents id to baseUrl.
func NewClient(baseUrl string, id Identity, opts Options) (*resty.Client, error) {
	parsedBaseUrl, err := url.Parse(baseUrl)
	if err != nil {
		return nil, err
	}
	if parsedBaseUrl.Scheme == "" || parsedBaseUrl.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseUrl)
	}

	client := resty.New()
	client.SetBaseURL(baseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	userAgent := id.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	client.SetHeader("user-agent", userAgent)
	for k, v := range id.Headers {
		client.SetHeader(k, v)
	}
	if id.Cookie != "" {
		client.SetHeader("cookie", id.Cookie)
	}

	timeout := time.Second * 30
	if id.Timeout > 0 {
		timeout = time.Second * time.Duration(id.Timeout)
	}
	client.SetTimeout(timeout)

	if opts.NoRedirects {
		client.SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}))
	}

	rateLimiter := opts.Limiter
	if rateLimiter == nil {
		rateLimiter = NewLimiter(id)
	}
	if rateLimiter != nil {
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}
	if id.RotateUserAgent {
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			req.SetHeader("user-agent", browser.Random())
			return nil
		})
	}
	if id.CacheBust {
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			nonce, err := random.String(8)
			if err != nil {
				return err
			}
			req.SetQueryParam(CacheBustParam, nonce)
			return nil
		})
	}

	tel := opts.Tel
	if tel == nil {
		tel = telemetry.SlogAPI{}
	}
	name := opts.Name
	if name == "" {
		name = parsedBaseUrl.Hostname()
	}
	telemetry.InstrumentResty(client, telemetry.NewScopedAPI(name, tel), fmt.Sprintf("boxoffice.scrapers.%s.http", name))
	restyutil.DumpMessages(client, name, opts.Dump)

	return client, nil
}
