package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const (
	defaultImgurAPIBase   = "https://api.imgur.com/3"
	defaultGfycatAPIBase  = "https://api.gfycat.com/v1/gfycats"
	defaultRedgifsAPIBase = "https://api.redgifs.com/v1/gfycats"

	apiCacheTTL = 5 * time.Minute
)

// errConnection marks transport-level failures so adapters can map them to
// the connection-error category instead of failed-to-locate.
var errConnection = errors.New("connection error")

// Env is the shared plumbing every adapter uses: the HTTP client, per-host
// rate limiting, and a short-TTL cache of host API responses so re-offered
// albums do not re-hit the host within a pass.
type Env struct {
	Client        *http.Client
	UserAgent     string
	ImgurClientID string

	ImgurAPIBase   string
	GfycatAPIBase  string
	RedgifsAPIBase string

	apiCache *gocache.Cache

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewEnv(client *http.Client, userAgent, imgurClientID string) *Env {
	return &Env{
		Client:         client,
		UserAgent:      userAgent,
		ImgurClientID:  imgurClientID,
		ImgurAPIBase:   defaultImgurAPIBase,
		GfycatAPIBase:  defaultGfycatAPIBase,
		RedgifsAPIBase: defaultRedgifsAPIBase,
		apiCache:       gocache.New(apiCacheTTL, 10*time.Minute),
		limiters:       make(map[string]*rate.Limiter),
	}
}

// limiter returns the per-host limiter, one resolving call per host every two
// seconds with an immediate first call.
func (env *Env) limiter(host string) *rate.Limiter {
	env.mu.Lock()
	defer env.mu.Unlock()
	l, ok := env.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(2*time.Second), 1)
		env.limiters[host] = l
	}
	return l
}

// getJSON fetches the URL and decodes the response body into v. Responses are
// cached by URL for the cache TTL; rate limiting applies per host. A failure
// to reach the host wraps errConnection; a non-2xx response is an ordinary
// error the caller reports as failed-to-locate.
func (env *Env) getJSON(ctx context.Context, rawURL string, v any) error {
	if cached, ok := env.apiCache.Get(rawURL); ok {
		return json.Unmarshal(cached.([]byte), v)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid API url %s: %w", rawURL, err)
	}
	if err := env.limiter(u.Host).Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", env.UserAgent)
	if env.ImgurClientID != "" && strings.Contains(u.Host, "imgur") {
		req.Header.Set("Authorization", "Client-ID "+env.ImgurClientID)
	}

	resp, err := env.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unsuccessful response from %s: %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	env.apiCache.Set(rawURL, body, gocache.DefaultExpiration)
	return json.Unmarshal(body, v)
}

// getHTML fetches a page body for scraping adapters, with the same rate
// limiting and error categories as getJSON. HTML is not cached; gallery pages
// are fetched at most once per submission.
func (env *Env) getHTML(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %s: %w", rawURL, err)
	}
	if err := env.limiter(u.Host).Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", env.UserAgent)

	resp, err := env.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errConnection, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unsuccessful response from %s: %d", rawURL, resp.StatusCode)
	}
	return resp.Body, nil
}
