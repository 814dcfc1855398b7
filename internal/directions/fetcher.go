package directions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-kit/kit/endpoint"
	httptransport "github.com/go-kit/kit/transport/http"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-routing/internal/domain/route"
)

// Fetcher issues one routing request per call and decodes the first route.
// A Fetcher is safe for concurrent use; the only shared state is the HTTP client.
type Fetcher struct {
	endpoints map[route.Backend]endpoint.Endpoint
	logger    *zap.Logger
}

type fetcherOptions struct {
	legacyURL   string
	routesV2URL string
}

// Option configures a Fetcher.
type Option func(*fetcherOptions)

// WithLegacyURL overrides the Directions API endpoint.
func WithLegacyURL(u string) Option {
	return func(o *fetcherOptions) { o.legacyURL = u }
}

// WithRoutesV2URL overrides the computeRoutes endpoint.
func WithRoutesV2URL(u string) Option {
	return func(o *fetcherOptions) { o.routesV2URL = u }
}

// NewHTTPClient returns the client shared by all fetches. It keeps the
// transport's default timeouts and adds OpenTelemetry client spans.
func NewHTTPClient() *http.Client {
	return &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
}

// NewFetcher creates a Fetcher. A nil httpClient uses NewHTTPClient.
func NewFetcher(httpClient *http.Client, logger *zap.Logger, opts ...Option) (*Fetcher, error) {
	o := fetcherOptions{
		legacyURL:   DefaultLegacyURL,
		routesV2URL: DefaultRoutesV2URL,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}

	legacyURL, err := url.Parse(o.legacyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid legacy directions url: %w", err)
	}
	routesV2URL, err := url.Parse(o.routesV2URL)
	if err != nil {
		return nil, fmt.Errorf("invalid routes v2 url: %w", err)
	}

	legacy := httptransport.NewClient(
		http.MethodGet,
		legacyURL,
		encodeLegacyRequest,
		decodeRouteResponse(route.BackendLegacy),
		httptransport.SetClient(httpClient),
	)
	routesV2 := httptransport.NewClient(
		http.MethodPost,
		routesV2URL,
		encodeRoutesV2Request,
		decodeRouteResponse(route.BackendRoutesV2),
		httptransport.SetClient(httpClient),
		httptransport.ClientBefore(httptransport.SetRequestHeader(headerFieldMask, polylineFieldMask)),
	)

	return &Fetcher{
		endpoints: map[route.Backend]endpoint.Endpoint{
			route.BackendLegacy:   legacy.Endpoint(),
			route.BackendRoutesV2: routesV2.Endpoint(),
		},
		logger: logger,
	}, nil
}

// Fetch performs the request and blocks until it completes.
// Failures are returned inside the Result with empty Points; Fetch never returns
// more or less than one Result.
func (f *Fetcher) Fetch(ctx context.Context, spec route.RequestSpec) route.Result {
	ep, ok := f.endpoints[spec.Backend]
	if !ok {
		err := fmt.Errorf("unknown route backend: %q", spec.Backend)
		f.logger.Error("route fetch rejected", zap.Error(err))
		return route.Failed(err)
	}

	start := time.Now()
	resp, err := ep(ctx, spec)
	if err != nil {
		err = classifyTransportError(spec.Backend, err)
		f.logger.Warn("route fetch failed",
			zap.String("backend", string(spec.Backend)),
			zap.String("origin", spec.Origin.String()),
			zap.String("outcome", string(route.ClassifyError(err))),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return route.Failed(err)
	}

	points, ok := resp.([]route.GeoPoint)
	if !ok {
		err := fmt.Errorf("unexpected %s response type %T", spec.Backend, resp)
		f.logger.Error("route fetch failed", zap.Error(err))
		return route.Failed(err)
	}

	f.logger.Debug("route fetched",
		zap.String("backend", string(spec.Backend)),
		zap.String("origin", spec.Origin.String()),
		zap.Int("points", len(points)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return route.Result{Points: points}
}

// FetchAsync starts the request and returns immediately. The returned channel
// receives exactly one Result and is then closed.
func (f *Fetcher) FetchAsync(ctx context.Context, spec route.RequestSpec) <-chan route.Result {
	ch := make(chan route.Result, 1)
	go func() {
		defer close(ch)
		ch <- f.Fetch(ctx, spec)
	}()
	return ch
}

// FetchFunc starts the request and calls onResult exactly once, from another goroutine.
func (f *Fetcher) FetchFunc(ctx context.Context, spec route.RequestSpec, onResult func(route.Result)) {
	go func() {
		onResult(f.Fetch(ctx, spec))
	}()
}

// classifyTransportError keeps errors produced by the response decoder and
// wraps anything else coming out of the HTTP round trip as a NetworkError.
func classifyTransportError(backend route.Backend, err error) error {
	var cls route.Classifier
	if errors.As(err, &cls) {
		return err
	}
	return &NetworkError{Backend: backend, Err: err}
}
