package boundary

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/brandatlas/footprint/internal/resilience"
)

// Source supplies boundary shapes for an administrative region code. A
// successful fetch carries at least one shape; implementations must report
// an empty result as an error so cache and cascade layers treat it as a
// failed attempt.
type Source interface {
	FetchBoundaries(ctx context.Context, adcode string) ([]Shape, error)
}

const (
	defaultBaseURL = "https://geo.datav.aliyun.com/areas_v3/bound"
	userAgent      = "footprint/1.0"
)

// HTTPSource fetches boundary feature collections from the public adcode
// boundary service. Region files come in two flavors: `<adcode>_full.json`
// holds the region's children (what drill-down wants) and `<adcode>.json`
// holds the region's own outline, which leaf regions fall back to.
type HTTPSource struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *resilience.Breaker
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPSource) { s.httpClient = client }
}

// WithBaseURL points the source at a different boundary service root.
func WithBaseURL(baseURL string) HTTPOption {
	return func(s *HTTPSource) { s.baseURL = baseURL }
}

// WithRateLimit sets the request rate limit in requests per second.
func WithRateLimit(rps float64) HTTPOption {
	return func(s *HTTPSource) { s.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithBreaker installs a shared circuit breaker.
func WithBreaker(b *resilience.Breaker) HTTPOption {
	return func(s *HTTPSource) { s.breaker = b }
}

// NewHTTPSource creates an HTTPSource with polite defaults: 30s timeout,
// 4 req/s, and a breaker that opens after repeated consecutive failures.
func NewHTTPSource(opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(4), 2),
		breaker:    resilience.NewBreaker(resilience.BreakerConfig{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// errNotFound distinguishes a missing region file from transport failures
// so FetchBoundaries can fall back from the _full flavor.
var errNotFound = eris.New("boundary: region file not found")

// FetchBoundaries implements Source.
func (s *HTTPSource) FetchBoundaries(ctx context.Context, adcode string) ([]Shape, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "boundary: rate limit")
	}

	var shapes []Shape
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		body, err := s.fetch(ctx, s.baseURL+"/"+adcode+"_full.json")
		if eris.Is(err, errNotFound) {
			// Leaf regions have no children file.
			body, err = s.fetch(ctx, s.baseURL+"/"+adcode+".json")
		}
		if err != nil {
			return err
		}

		shapes, err = ParseFeatureCollection(body)
		if err != nil {
			return err
		}
		if len(shapes) == 0 {
			return eris.Errorf("boundary: empty feature list for %s", adcode)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Debug("boundary: fetched",
		zap.String("adcode", adcode),
		zap.Int("shapes", len(shapes)))
	return shapes, nil
}

func (s *HTTPSource) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "boundary: build request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "boundary: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return nil, errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("boundary: service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "boundary: read body")
	}
	return body, nil
}
