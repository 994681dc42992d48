package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/kerbaras/mangaread/pkg/cache"
)

const userAgent = "mangas/1.0"

// StatusError is returned for any non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the remote API.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// API is a JSON client with a read-through response cache. Identical
// in-flight requests are collapsed and all requests share one rate limit.
type API struct {
	client  *http.Client
	baseURL string
	cache   cache.Cacher
	limiter *rate.Limiter
	group   singleflight.Group
	log     *slog.Logger
}

type Option func(*API)

func WithHTTPClient(c *http.Client) Option {
	return func(a *API) {
		if c != nil {
			a.client = c
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(a *API) {
		if d > 0 {
			a.client = &http.Client{Timeout: d}
		}
	}
}

func WithCache(c cache.Cacher) Option {
	return func(a *API) {
		if c != nil {
			a.cache = c
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables the limit.
func WithRateLimit(rps float64) Option {
	return func(a *API) {
		if rps <= 0 {
			a.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.log = l
		}
	}
}

func NewAPI(baseURL string, opts ...Option) *API {
	a := &API{
		client:  http.DefaultClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   cache.Nop{},
		limiter: rate.NewLimiter(rate.Inf, 0),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Get decodes the JSON document at path into v. Responses are cached for
// the given class.
func (a *API) Get(ctx context.Context, path string, params url.Values, ttl cache.Duration, v any) error {
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	body, err := a.fetch(ctx, a.baseURL+path, "application/json", ttl)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// FetchBytes downloads an absolute URL, typically an image.
func (a *API) FetchBytes(ctx context.Context, rawURL string, ttl cache.Duration) ([]byte, error) {
	return a.fetch(ctx, rawURL, "*/*", ttl)
}

func (a *API) fetch(ctx context.Context, target, accept string, ttl cache.Duration) ([]byte, error) {
	if payload, ok, err := a.cache.Get(target); err != nil {
		a.log.Warn("cache read failed", slog.String("url", target), slog.Any("error", err))
	} else if ok {
		return payload, nil
	}

	// The shared request outlives any single caller; the client timeout
	// still bounds it.
	shared := context.WithoutCancel(ctx)
	ch := a.group.DoChan(target, func() (any, error) {
		return a.do(shared, target, accept)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		payload := res.Val.([]byte)
		if err := a.cache.Cache(target, payload, ttl); err != nil {
			a.log.Warn("cache write failed", slog.String("url", target), slog.Any("error", err))
		}
		return payload, nil
	}
}

func (a *API) do(ctx context.Context, target, accept string) ([]byte, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{URL: target, StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", target, err)
	}
	return body, nil
}
