// Package expo is the authenticated HTTP transport to the exhibition
// platform backend. It owns path building, header injection, JSON
// codec work, and normalization of backend error bodies into APIError.
package expo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/abelbrown/expofind/internal/config"
)

const (
	eventListPath      = "/api/expo-events"
	businessSearchPath = "/api/expo-events/businesses/search"
	categoriesPath     = "/api/business-categories"

	userAgent = "expofind/1.0 (+https://github.com/abelbrown/expofind)"

	// maxBodyBytes caps response reads so a misbehaving backend cannot
	// exhaust memory.
	maxBodyBytes = 8 << 20
)

// Client talks to the exhibition backend. Safe for concurrent use; the
// rate limiter paces all requests across goroutines.
type Client struct {
	baseURL    string
	token      string
	tenant     string
	language   string
	currencyID int
	client     *http.Client
	limiter    *rate.Limiter
}

// New creates a Client from configuration.
func New(cfg *config.Config) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.APIToken,
		tenant:     cfg.Tenant,
		language:   cfg.Language,
		currencyID: cfg.CurrencyID,
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
	}
}

// Locale overrides the client's default language/currency headers for
// a single request. Zero values fall back to the configured defaults.
type Locale struct {
	Language   string
	CurrencyID int
}

// ListEventsQuery are the query parameters for the event listing
// endpoint. Zero values are omitted from the request.
type ListEventsQuery struct {
	Search    string
	PageSize  int
	PageIndex int
	SortField string
	Asc       bool
	HasSort   bool // emit asc only when a sort was requested
	Locale    Locale
}

// ListEvents fetches one page of the paginated event listing.
func (c *Client) ListEvents(ctx context.Context, q ListEventsQuery) (map[string]any, error) {
	query := url.Values{}
	if q.Search != "" {
		query.Set("search", q.Search)
	}
	if q.PageSize > 0 {
		query.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.PageIndex > 0 {
		query.Set("pageIndex", strconv.Itoa(q.PageIndex))
	}
	if q.SortField != "" {
		query.Set("sortField", q.SortField)
	}
	if q.HasSort {
		query.Set("asc", strconv.FormatBool(q.Asc))
	}
	return c.getJSON(ctx, eventListPath, query, q.Locale)
}

// SearchEventBusinesses runs one event-scoped business search. The body
// is assembled by the search adapter; the transport only forwards it.
func (c *Client) SearchEventBusinesses(ctx context.Context, body map[string]any, loc Locale) (map[string]any, error) {
	return c.postJSON(ctx, businessSearchPath, body, loc)
}

// ListBusinessCategories fetches the business category reference list.
// A plain validate-then-forward call with no orchestration.
func (c *Client) ListBusinessCategories(ctx context.Context) (map[string]any, error) {
	return c.getJSON(ctx, categoriesPath, nil, Locale{})
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, loc Locale) (map[string]any, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return c.do(req, loc)
}

func (c *Client) postJSON(ctx context.Context, path string, body any, loc Locale) (map[string]any, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, loc)
}

// do executes one request. No retries: a failed call is reported once
// and left to the caller.
func (c *Client) do(req *http.Request, loc Locale) (map[string]any, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	c.setHeaders(req, loc)

	resp, err := c.client.Do(req)
	if err != nil {
		if req.Context().Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", req.Context().Err())
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiErrorFromBody(resp.StatusCode, body)
	}

	var payload map[string]any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("parse response: %w", err)
		}
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, nil
}

func (c *Client) setHeaders(req *http.Request, loc Locale) {
	language := c.language
	if loc.Language != "" {
		language = loc.Language
	}
	currencyID := c.currencyID
	if loc.CurrencyID > 0 {
		currencyID = loc.CurrencyID
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.tenant != "" {
		req.Header.Set("X-Tenant", c.tenant)
	}
	if language != "" {
		req.Header.Set("Accept-Language", language)
	}
	if currencyID > 0 {
		req.Header.Set("X-Currency-Id", strconv.Itoa(currencyID))
	}
}
