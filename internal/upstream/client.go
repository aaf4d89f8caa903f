// Package upstream is the single HTTP client for the remote storefront API:
// coupon validation, order placement, the product catalog, and the auth
// endpoints. It maps wire-level outcomes onto the domain error taxonomy, so
// callers never see raw transport errors.
package upstream

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxResponseBytes bounds response bodies read into memory.
const maxResponseBytes = 1 << 20

// Client talks to the remote storefront API.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a Client for the given base URL (e.g.
// "https://api.papercart.example"). When httpClient is nil a default with a
// 15 second timeout and OpenTelemetry-instrumented transport is used.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: httpClient,
	}
}

// Health probes the remote API's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.get(ctx, "/api/health")
	if err != nil {
		return errors.Wrap(err, "upstream health")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("upstream health returned %d", resp.StatusCode)
	}
	return nil
}

// postJSON issues a POST with a JSON body and returns the response. The
// caller owns status interpretation; transport failures come back as-is.
func (c *Client) postJSON(ctx context.Context, path string, body []byte, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.http.Do(req)
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	return c.http.Do(req)
}

// readBody drains and returns the response body, bounded.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}
	return raw, nil
}

// errorMessage extracts the service's {"error": "..."} message, falling back
// to the given default when the body is not in that shape.
func errorMessage(raw []byte, fallback string) string {
	msg := fallback
	d := jx.DecodeBytes(raw)
	_ = d.Obj(func(d *jx.Decoder, key string) error {
		if key != "error" {
			return d.Skip()
		}
		s, err := d.Str()
		if err != nil {
			return err
		}
		if s != "" {
			msg = s
		}
		return nil
	})
	return msg
}
