// Package hubspot provides a client for the HubSpot CRM contacts API.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the HubSpot CRM operations used by lead capture.
type Client interface {
	// SearchContactByEmail returns the contact with the given email, or nil
	// when no contact matches.
	SearchContactByEmail(ctx context.Context, email string) (*Contact, error)
	// CreateContact creates a new contact and returns it.
	CreateContact(ctx context.Context, properties map[string]string) (*Contact, error)
	// UpdateContact patches properties on an existing contact.
	UpdateContact(ctx context.Context, contactID string, properties map[string]string) (*Contact, error)
}

// Contact is a HubSpot contact record.
type Contact struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// searchRequest is the body for the contacts search endpoint.
type searchRequest struct {
	FilterGroups []filterGroup `json:"filterGroups"`
	Properties   []string      `json:"properties,omitempty"`
	Limit        int           `json:"limit,omitempty"`
}

type filterGroup struct {
	Filters []filter `json:"filters"`
}

type filter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

type searchResponse struct {
	Total   int       `json:"total"`
	Results []Contact `json:"results"`
}

type writeRequest struct {
	Properties map[string]string `json:"properties"`
}

// Option configures the HubSpot client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets a per-second rate limit for HubSpot API calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new HubSpot client authenticated with a private app
// access token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: "https://api.hubapi.com",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wait blocks until the rate limiter allows one event, or ctx is cancelled.
func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// doJSON executes a JSON request with exponential backoff retries on
// transient failures (429, 500, 502, 503). Returns the response body and
// status code on success, or the last error after exhausting retries.
func (c *httpClient) doJSON(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	if err := c.wait(ctx); err != nil {
		return nil, 0, eris.Wrap(err, "hubspot: rate limit")
	}

	var reqBody []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, eris.Wrap(err, "hubspot: marshal request")
		}
		reqBody = b
	}

	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var bodyReader io.Reader
		if reqBody != nil {
			bodyReader = bytes.NewReader(reqBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return nil, 0, eris.Wrap(err, "hubspot: create request")
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, 0, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "hubspot: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("hubspot: status %d: %s", resp.StatusCode, string(body))
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

func (c *httpClient) SearchContactByEmail(ctx context.Context, email string) (*Contact, error) {
	req := searchRequest{
		FilterGroups: []filterGroup{{
			Filters: []filter{{
				PropertyName: "email",
				Operator:     "EQ",
				Value:        email,
			}},
		}},
		Properties: []string{"email", "firstname", "lastname", "company"},
		Limit:      1,
	}

	body, statusCode, err := c.doJSON(ctx, http.MethodPost, "/crm/v3/objects/contacts/search", req)
	if err != nil {
		return nil, eris.Wrap(err, "hubspot: search contact")
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("hubspot: search unexpected status %d: %s", statusCode, string(body))
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "hubspot: unmarshal search response")
	}
	if len(result.Results) == 0 {
		return nil, nil
	}
	return &result.Results[0], nil
}

func (c *httpClient) CreateContact(ctx context.Context, properties map[string]string) (*Contact, error) {
	body, statusCode, err := c.doJSON(ctx, http.MethodPost, "/crm/v3/objects/contacts", writeRequest{Properties: properties})
	if err != nil {
		return nil, eris.Wrap(err, "hubspot: create contact")
	}
	if statusCode != http.StatusCreated && statusCode != http.StatusOK {
		return nil, eris.Errorf("hubspot: create unexpected status %d: %s", statusCode, string(body))
	}

	var contact Contact
	if err := json.Unmarshal(body, &contact); err != nil {
		return nil, eris.Wrap(err, "hubspot: unmarshal contact")
	}
	return &contact, nil
}

func (c *httpClient) UpdateContact(ctx context.Context, contactID string, properties map[string]string) (*Contact, error) {
	path := fmt.Sprintf("/crm/v3/objects/contacts/%s", contactID)
	body, statusCode, err := c.doJSON(ctx, http.MethodPatch, path, writeRequest{Properties: properties})
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("hubspot: update contact %s", contactID))
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("hubspot: update unexpected status %d: %s", statusCode, string(body))
	}

	var contact Contact
	if err := json.Unmarshal(body, &contact); err != nil {
		return nil, eris.Wrap(err, "hubspot: unmarshal contact")
	}
	return &contact, nil
}
