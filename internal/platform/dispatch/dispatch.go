// Package dispatch sends approved medicine orders to the pharmacy service.
// Delivery is best effort: a failed item is recorded, never retried inline,
// and never blocks sibling items.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Order is the payload the pharmacy endpoint accepts.
type Order struct {
	MedicineName string `json:"medicine_name"`
	Price        string `json:"price"`
	Quantity     int    `json:"quantity"`
}

// Result records the outcome of one dispatch attempt.
type Result struct {
	Sent         bool            `json:"sent" bson:"sent"`
	ResponseCode int             `json:"response_code,omitempty" bson:"response_code,omitempty"`
	Response     json.RawMessage `json:"pharmacy_response,omitempty" bson:"pharmacy_response,omitempty"`
	Error        string          `json:"error,omitempty" bson:"error,omitempty"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Client) { d.httpClient = c }
}

// Client posts orders to a single pharmacy endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a Client for the given pharmacy order URL.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	if err := validateEndpoint(endpoint); err != nil {
		return nil, err
	}
	c := &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func validateEndpoint(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("pharmacy url is required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid pharmacy url: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("pharmacy url scheme must be http or https, got %q", u.Scheme)
	}
	return nil
}

// Send posts one order. Transport and encoding failures come back as a
// Result with Sent=false and the error text; any HTTP response counts as
// sent, with the status code and body recorded.
func (c *Client) Send(ctx context.Context, order Order) Result {
	body, err := json.Marshal(order)
	if err != nil {
		return Result{Sent: false, Error: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{Sent: false, Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Sent: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	result := Result{Sent: true, ResponseCode: resp.StatusCode}
	if json.Valid(raw) {
		result.Response = json.RawMessage(raw)
	}
	return result
}
