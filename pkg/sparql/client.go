// Package sparql executes queries against SPARQL 1.1 protocol endpoints.
package sparql

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goudatijdmachine/filiatie/pkg/logger"
)

const (
	AcceptNTriples    = "application/n-triples"
	AcceptResultsJSON = "application/sparql-results+json"

	contentTypeQuery = "application/sparql-query"
)

// Request is a single query round trip. An empty Method means POST.
type Request struct {
	Query    string
	Endpoint string
	Accept   string
	Method   string
}

// Executor runs a SPARQL request and returns the raw response body.
type Executor interface {
	Execute(ctx context.Context, req Request) (string, error)
}

// Client is the HTTP implementation of Executor. It never retries.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	metrics    *Metrics
}

type ClientParams struct {
	// HTTPClient defaults to a client without a timeout.
	HTTPClient *http.Client
	// Timeout bounds each request when positive. Zero leaves the request
	// bounded only by the caller's context.
	Timeout time.Duration
	Metrics *Metrics
}

func NewClient(params ClientParams) *Client {
	hc := params.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		httpClient: hc,
		timeout:    params.Timeout,
		metrics:    params.Metrics,
	}
}

// Execute sends req and returns the body of a 2xx response.
//
// A response with any other status yields *HTTPError. A transport failure
// where no response was received yields *NetworkError.
func (c *Client) Execute(ctx context.Context, req Request) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := newHTTPRequest(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create SPARQL request: %w", err)
	}

	logger.Debug("[SPARQL] Executing query", "endpoint", req.Endpoint, "method", httpReq.Method)
	started := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.observe(req.Endpoint, outcomeNetworkError, time.Since(started))
		return "", &NetworkError{Endpoint: req.Endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.observe(req.Endpoint, outcomeNetworkError, time.Since(started))
		return "", &NetworkError{Endpoint: req.Endpoint, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.observe(req.Endpoint, outcomeHTTPError, time.Since(started))
		return "", &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
			Body:       string(body),
		}
	}

	c.metrics.observe(req.Endpoint, outcomeOK, time.Since(started))
	logger.Debug("[SPARQL] Query finished", "endpoint", req.Endpoint, "status", resp.StatusCode, "bytes", len(body))
	return string(body), nil
}

func newHTTPRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodPost
	}

	var (
		httpReq *http.Request
		err     error
	)
	switch method {
	case http.MethodGet:
		u, perr := url.Parse(req.Endpoint)
		if perr != nil {
			return nil, perr
		}
		q := u.Query()
		q.Set("query", req.Query)
		u.RawQuery = q.Encode()
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	case http.MethodPost:
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, req.Endpoint, strings.NewReader(req.Query))
		if err == nil {
			httpReq.Header.Set("Content-Type", contentTypeQuery)
		}
	default:
		return nil, fmt.Errorf("unsupported method %q", req.Method)
	}
	if err != nil {
		return nil, err
	}

	if req.Accept != "" {
		httpReq.Header.Set("Accept", req.Accept)
	}
	return httpReq, nil
}

// statusText strips the numeric code from resp.Status, falling back to the
// canonical text when the server sent none.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprintf("%d", resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
