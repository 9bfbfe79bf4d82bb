// Package httpcall performs outbound HTTP requests on behalf of a model and
// renders every outcome as bounded text.
package httpcall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/hrygo/wingman/internal/strutil"
)

const (
	// DefaultTimeout bounds a single request, connection through body read.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxOutput is the number of characters of a body kept in a result.
	DefaultMaxOutput = 5000
	// TruncationMarker is appended to a body cut at the output limit.
	TruncationMarker = "... (response truncated)"

	// maxBodyBytes caps how much of a response is read into memory.
	maxBodyBytes = 2 << 20
	// maxRedirects matches the net/http default.
	maxRedirects = 10
)

// ErrURLRequired is returned when a request has no URL. It is the only
// failure reported as an error; everything else is rendered into the result.
var ErrURLRequired = errors.New("url parameter is required")

// RedirectPolicy vets a redirect hop before it is followed. A non-nil
// error stops the request and is rendered into the result.
type RedirectPolicy func(method string, target *url.URL) error

// Request describes one outbound call.
type Request struct {
	Headers map[string]string
	Payload any
	// Redirect overrides the client's redirect policy for this call.
	Redirect RedirectPolicy
	URL      string
	Method   string
}

// Client executes Requests. It is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	credentials CredentialSource
	redirect    RedirectPolicy
	maxOutput   int
}

type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithMaxOutput sets how many characters of a body are kept.
func WithMaxOutput(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxOutput = n
		}
	}
}

// WithRateLimit throttles outbound calls to rps requests per second.
// A non-positive rps leaves the client unthrottled.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			burst := int(rps)
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithCredentials attaches Authorization values looked up per host.
func WithCredentials(source CredentialSource) Option {
	return func(c *Client) {
		c.credentials = source
	}
}

// WithRedirectPolicy checks every redirect hop with policy.
func WithRedirectPolicy(policy RedirectPolicy) Option {
	return func(c *Client) {
		c.redirect = policy
	}
}

// WithTransport replaces the underlying round tripper.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = transport
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		maxOutput:  DefaultMaxOutput,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs req once, without retries, and returns the rendered outcome.
//
// Success renders as "Status: <code>\nResult:\n<body>". Transport failures,
// timeouts and non-2xx statuses render as "Error executing request: ...".
func (c *Client) Do(ctx context.Context, req *Request) (string, error) {
	if req == nil || strings.TrimSpace(req.URL) == "" {
		return "", ErrURLRequired
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	target, err := url.Parse(req.URL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return renderError(fmt.Sprintf("invalid url %q", req.URL)), nil
	}

	var body io.Reader
	if req.Payload != nil {
		data, err := json.Marshal(req.Payload)
		if err != nil {
			return renderError(fmt.Sprintf("failed to encode payload: %v", err)), nil
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return renderError(err.Error()), nil
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.credentials != nil && httpReq.Header.Get("Authorization") == "" {
		if value, ok := c.credentials.Authorization(ctx, target.Hostname()); ok {
			httpReq.Header.Set("Authorization", value)
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return renderError(fmt.Sprintf("rate limit: %v", err)), nil
		}
	}

	slog.Info("Executing outbound HTTP request", "method", method, "url", target.Redacted())

	resp, err := c.clientFor(req).Do(httpReq)
	if err != nil {
		slog.Warn("Outbound HTTP request failed", "method", method, "url", target.Redacted(), "error", err)
		return renderError(err.Error()), nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return renderError(fmt.Sprintf("failed to read response: %v", err)), nil
	}

	rendered := strutil.TruncateWithMarker(renderBody(raw), c.maxOutput, TruncationMarker)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result := renderError(fmt.Sprintf("%s for url: %s", resp.Status, target.Redacted()))
		if rendered != "" {
			result += "\n" + rendered
		}
		return result, nil
	}

	result := fmt.Sprintf("Status: %d\nResult:\n%s", resp.StatusCode, rendered)
	slog.Debug("Outbound HTTP request completed", "status", resp.StatusCode, "preview", strutil.Truncate(result, 500))
	return result, nil
}

// clientFor returns the http.Client enforcing the redirect policy of req.
func (c *Client) clientFor(req *Request) *http.Client {
	policy := req.Redirect
	if policy == nil {
		policy = c.redirect
	}
	if policy == nil {
		return c.httpClient
	}

	client := *c.httpClient
	client.CheckRedirect = func(next *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return errors.Errorf("stopped after %d redirects", maxRedirects)
		}
		if err := policy(next.Method, next.URL); err != nil {
			slog.Info("Outbound redirect refused", "method", next.Method, "url", next.URL.Redacted(), "error", err)
			return err
		}
		return nil
	}
	return &client
}

func renderError(reason string) string {
	return "Error executing request: " + reason
}

// renderBody re-serializes a JSON body compactly, or returns the raw text.
func renderBody(raw []byte) string {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return string(raw)
	}
	if _, err := decoder.Token(); err != io.EOF {
		return string(raw)
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return string(raw)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
