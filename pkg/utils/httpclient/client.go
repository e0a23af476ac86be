// Package httpclient provides the single-shot HTTP client used to talk to
// model providers. It never retries: a failed call is reported to the caller
// exactly once.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/kart-io/sentinel-ask/pkg/utils/json"
)

// maxErrorBody caps how much of an error response body is kept.
const maxErrorBody = 4 << 10

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status code %d: %s", e.StatusCode, e.Body)
}

// Client is a wrapper around http.Client.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new HTTP client wrapper.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewClientWith wraps an existing http.Client.
func NewClientWith(hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{httpClient: hc}
}

// Do executes req once after injecting trace context headers.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	c.injectTraceContext(req)
	return c.httpClient.Do(req)
}

// PostJSON marshals body, POSTs it to url with the given headers and decodes
// a 2xx response into v. Non-2xx responses yield *StatusError.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, body, v any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, val := range headers {
		req.Header.Set(k, val)
	}

	return c.DoJSON(req, v)
}

// DoJSON executes a JSON request, decodes the response, and ensures the body is closed.
func (c *Client) DoJSON(req *http.Request, v any) error {
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// injectTraceContext 将 W3C Trace Context 头注入到 HTTP 请求中。
// Context 中没有活跃 Span 时传播器不会写入任何头。
func (c *Client) injectTraceContext(req *http.Request) {
	if req == nil {
		return
	}
	propagator := otel.GetTextMapPropagator()
	if propagator == nil {
		return
	}
	propagator.Inject(req.Context(), propagation.HeaderCarrier(req.Header))
}
