package restcountries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// ErrNotFound reports that the API has no country matching the request.
var ErrNotFound = errors.New("country not found")

// Fetcher is the subset of the client the dataset loader depends on.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]Country, error)
	FetchByCode(ctx context.Context, code string) (Country, error)
}

var _ Fetcher = (*Client)(nil)

// ListFields is the field projection requested for the full listing.
var ListFields = []string{
	"name", "flags", "capital", "population", "region", "subregion",
	"cca3", "currencies", "languages", "tld", "borders",
}

// Client talks to the REST Countries v3.1 API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	limiter   *rate.Limiter
	byCode    *cache.Cache
}

const (
	DefaultBaseURL   = "https://restcountries.com/v3.1"
	defaultUserAgent = "atlas/0.1"
	requestTimeout   = 10 * time.Second
	requestsPerSec   = 5
	codeCacheTTL     = 30 * time.Minute
)

// NewClient builds a Client for the API rooted at base. An empty base uses
// DefaultBaseURL.
func NewClient(base string) (*Client, error) {
	u, err := parseBaseURL(base)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: u,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSec), requestsPerSec),
		byCode:    cache.New(codeCacheTTL, 2*codeCacheTTL),
	}, nil
}

// FetchAll retrieves every country with the ListFields projection.
func (c *Client) FetchAll(ctx context.Context) ([]Country, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	values.Set("fields", strings.Join(ListFields, ","))
	var payload []Country
	if err := c.get(ctx, "all", values, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchByCode retrieves one country by its three-letter code. Results are
// cached for the life of the client.
func (c *Client) FetchByCode(ctx context.Context, code string) (Country, error) {
	if c == nil {
		return Country{}, fmt.Errorf("client is nil")
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return Country{}, fmt.Errorf("country code required")
	}
	if cached, ok := c.byCode.Get(code); ok {
		return cached.(Country), nil
	}
	var payload []Country
	if err := c.get(ctx, "alpha/"+url.PathEscape(code), nil, &payload); err != nil {
		return Country{}, err
	}
	if len(payload) == 0 {
		return Country{}, fmt.Errorf("alpha %s: %w", code, ErrNotFound)
	}
	c.byCode.SetDefault(code, payload[0])
	return payload[0], nil
}

// FetchByCodes retrieves several countries in one request, used for border
// lookups. Unknown codes are omitted by the API.
func (c *Client) FetchByCodes(ctx context.Context, codes []string) ([]Country, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	cleaned := make([]string, 0, len(codes))
	for _, code := range codes {
		if code = strings.ToUpper(strings.TrimSpace(code)); code != "" {
			cleaned = append(cleaned, code)
		}
	}
	if len(cleaned) == 0 {
		return nil, nil
	}
	values := url.Values{}
	values.Set("codes", strings.Join(cleaned, ","))
	var payload []Country
	if err := c.get(ctx, "alpha", values, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// SearchByName retrieves countries whose name contains name.
func (c *Client) SearchByName(ctx context.Context, name string) ([]Country, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name required")
	}
	var payload []Country
	if err := c.get(ctx, "name/"+url.PathEscape(name), nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchByRegion retrieves the countries of one region.
func (c *Client) FetchByRegion(ctx context.Context, region string) ([]Country, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	region = strings.TrimSpace(region)
	if region == "" {
		return nil, fmt.Errorf("region required")
	}
	var payload []Country
	if err := c.get(ctx, "region/"+url.PathEscape(strings.ToLower(region)), nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	rel, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("build request path: %w", err)
	}
	if len(query) > 0 {
		rel.RawQuery = query.Encode()
	}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("api %s: %w", rel.Path, ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("api %s returned status %d", rel.Path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseBaseURL normalizes base so relative paths resolve beneath it.
func parseBaseURL(base string) (*url.URL, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_base %q: %w", base, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_base %q: missing host", base)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/"
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
