package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 8 << 20

// HTTPTransport sends requests to the backend with the session's bearer
// credential attached.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

type TransportOption func(*HTTPTransport)

// WithRateLimit paces outgoing requests.
func WithRateLimit(perSecond float64, burst int) TransportOption {
	return func(t *HTTPTransport) {
		if perSecond > 0 {
			t.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithBaseTransport replaces the instrumented default round tripper.
func WithBaseTransport(rt http.RoundTripper) TransportOption {
	return func(t *HTTPTransport) {
		if ot, ok := t.client.Transport.(*oauth2.Transport); ok {
			ot.Base = rt
		}
	}
}

func NewHTTPTransport(baseURL string, tokens oauth2.TokenSource, opts ...TransportOption) *HTTPTransport {
	t := &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Transport: &oauth2.Transport{
				Source: tokens,
				Base:   otelhttp.NewTransport(http.DefaultTransport),
			},
			// Per-attempt deadlines come from the caller's context.
			Timeout: 0,
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("backend: encode body for %s: %w", req.Path, err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, t.baseURL+req.Target(), body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Body: b}, nil
}
