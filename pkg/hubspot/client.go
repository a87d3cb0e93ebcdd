// Package hubspot implements the slice of the HubSpot API the interest
// workflow depends on: an authenticated request client with uniform error
// wrapping, cursor pagination, and the owner, contact, task and association
// operations.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultCRMBaseURL is the v3 CRM objects API root.
	DefaultCRMBaseURL = "https://api.hubapi.com/crm/v3/objects"
	// DefaultCRMV4BaseURL is the v4 CRM API root used for associations.
	DefaultCRMV4BaseURL = "https://api.hubapi.com/crm/v4"
	// DefaultHubDBBaseURL is the HubDB API root.
	DefaultHubDBBaseURL = "https://api.hubapi.com/hubdb/api/v2"
	// DefaultCMSBaseURL is the CMS API root used for table publishing.
	DefaultCMSBaseURL = "https://api.hubapi.com/cms/v3"

	defaultTimeoutSeconds = 30
)

// Config holds the connection settings for a Client. Base URLs default to
// the public HubSpot endpoints and are overridable so tests can point the
// client at a fake server.
type Config struct {
	AccessToken  string
	CRMBaseURL   string
	CRMV4BaseURL string
	HubDBBaseURL string
	CMSBaseURL   string
	HTTPClient   *http.Client

	// Now supplies timestamps for created objects. Defaults to time.Now.
	Now func() time.Time
}

// Client is an authenticated HubSpot API client. All remote operations in
// this package and in pkg/hubdb go through Client.Do, which attaches the
// bearer credential and normalizes failures into *RequestError.
type Client struct {
	config Config
	logger *slog.Logger
}

// NewClient creates a Client with the given configuration, filling in
// defaults for any unset base URL and transport.
func NewClient(config Config, logger *slog.Logger) *Client {
	if config.CRMBaseURL == "" {
		config.CRMBaseURL = DefaultCRMBaseURL
	}

	if config.CRMV4BaseURL == "" {
		config.CRMV4BaseURL = DefaultCRMV4BaseURL
	}

	if config.HubDBBaseURL == "" {
		config.HubDBBaseURL = DefaultHubDBBaseURL
	}

	if config.CMSBaseURL == "" {
		config.CMSBaseURL = DefaultCMSBaseURL
	}

	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: defaultTimeoutSeconds * time.Second}
	}

	if config.Now == nil {
		config.Now = time.Now
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		config: config,
		logger: logger.With("module", "hubspot_client"),
	}
}

// CRMBaseURL returns the configured v3 CRM objects root.
func (c *Client) CRMBaseURL() string { return c.config.CRMBaseURL }

// HubDBBaseURL returns the configured HubDB root.
func (c *Client) HubDBBaseURL() string { return c.config.HubDBBaseURL }

// CMSBaseURL returns the configured CMS root.
func (c *Client) CMSBaseURL() string { return c.config.CMSBaseURL }

// RequestError describes a non-success response from the HubSpot API. The
// Details field carries the best-effort parsed error body; it is an empty
// map when the body was not valid JSON.
type RequestError struct {
	Status     int
	StatusText string
	Context    string
	Details    map[string]any
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("hubspot request failed: %d %s, context: %s", e.Status, e.StatusText, e.Context)
}

// AsRequestError unwraps err into a *RequestError when one is present.
func AsRequestError(err error) (*RequestError, bool) {
	var reqErr *RequestError

	ok := errors.As(err, &reqErr)

	return reqErr, ok
}

// Do performs one authenticated request against the HubSpot API. A nil body
// sends no payload. Non-2xx responses become a *RequestError; a 204 (or an
// empty success body) returns a nil payload. opContext labels the call in
// logs and errors.
func (c *Client) Do(ctx context.Context, method, requestURL string, body any, opContext string) (json.RawMessage, error) {
	var bodyReader io.Reader

	bodySize := 0

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body, context %s: %w", opContext, err)
		}

		bodySize = len(payload)
		bodyReader = bytes.NewReader(payload)
	}

	c.logger.InfoContext(ctx, "Making HubSpot API request",
		"url", requestURL,
		"method", method,
		"context", opContext,
		"body_size", bodySize,
	)

	req, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request, context %s: %w", opContext, err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hubspot request failed, context %s: %w", opContext, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body, context %s: %w", opContext, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		details := map[string]any{}
		// Best effort only: a non-JSON error body is not itself an error.
		_ = json.Unmarshal(respBody, &details)

		reqErr := &RequestError{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Context:    opContext,
			Details:    details,
		}

		c.logger.ErrorContext(ctx, "HubSpot API request failed",
			"status", reqErr.Status,
			"context", opContext,
			"details", details,
		)

		return nil, reqErr
	}

	c.logger.InfoContext(ctx, "HubSpot API request succeeded", "context", opContext)

	if resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return nil, nil
	}

	return json.RawMessage(respBody), nil
}

func (c *Client) now() time.Time {
	return c.config.Now()
}
