// Package affinity wraps the Affinity CRM API for paginated organization
// search. Only organizations with recorded interaction history are
// returned, since rows without it carry no relationship signal.
package affinity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/eanna95/trevilleroofing/internal/resilience"
)

// Default base URL for the Affinity v1 API.
const defaultBaseURL = "https://api.affinity.co"

// Client defines the Affinity API operations used by this application.
type Client interface {
	SearchOrganizations(ctx context.Context, term string) ([]Organization, error)
}

// Organization is one CRM organization with its latest interaction.
type Organization struct {
	Name                       string
	Domain                     string
	LatestInteractionDate      string
	LatestInteractionPersonIDs string
	SearchTerm                 string
	AffinityID                 int64
}

// APIError is returned when Affinity responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("affinity: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default request rate (5 req/s).
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithRetry overrides the default retry policy for failed page requests.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a new Affinity client. The Affinity API authenticates
// with HTTP basic auth using an empty username and the API key as password.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(5, 5),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type organizationsPage struct {
	Organizations []organizationItem `json:"organizations"`
	NextPageToken string             `json:"next_page_token"`
}

type organizationItem struct {
	ID               int64             `json:"id"`
	Name             string            `json:"name"`
	Domain           string            `json:"domain"`
	InteractionDates map[string]string `json:"interaction_dates"`
	Interactions     struct {
		LastInteraction *struct {
			Date      string  `json:"date"`
			PersonIDs []int64 `json:"person_ids"`
		} `json:"last_interaction"`
	} `json:"interactions"`
}

// SearchOrganizations pages through every organization matching the term,
// keeping only those with a recorded last interaction.
func (c *httpClient) SearchOrganizations(ctx context.Context, term string) ([]Organization, error) {
	var out []Organization
	pageToken := ""
	for {
		page, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*organizationsPage, error) {
			return c.searchPage(ctx, term, pageToken)
		})
		if err != nil {
			return nil, eris.Wrap(err, fmt.Sprintf("affinity: search organizations %q", term))
		}
		for _, item := range page.Organizations {
			if len(item.InteractionDates) == 0 || item.Interactions.LastInteraction == nil {
				continue
			}
			last := item.Interactions.LastInteraction
			out = append(out, Organization{
				Name:                       item.Name,
				Domain:                     item.Domain,
				LatestInteractionDate:      last.Date,
				LatestInteractionPersonIDs: joinIDs(last.PersonIDs),
				SearchTerm:                 term,
				AffinityID:                 item.ID,
			})
		}
		if page.NextPageToken == "" {
			return out, nil
		}
		pageToken = page.NextPageToken
	}
}

func (c *httpClient) searchPage(ctx context.Context, term, pageToken string) (*organizationsPage, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "rate limit")
	}

	q := url.Values{}
	q.Set("term", term)
	q.Set("with_interaction_dates", "true")
	q.Set("with_interaction_persons", "true")
	if pageToken != "" {
		q.Set("page_token", pageToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/organizations?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.SetBasicAuth("", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(apiErr, resp.StatusCode)
		}
		return nil, apiErr
	}

	var page organizationsPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, eris.Wrap(err, "decode response")
	}
	return &page, nil
}

// wait blocks until the rate limiter allows one event, or ctx is cancelled.
func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func joinIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}
