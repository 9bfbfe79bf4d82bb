package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hrygo/wingman/ai/core/llm"
	"github.com/hrygo/wingman/plugin/httpcall"
)

// HTTPRequestToolName is the name the model uses to call HTTPRequestTool.
const HTTPRequestToolName = "http_request"

// HTTPRequestTool lets the model call an arbitrary HTTP endpoint.
type HTTPRequestTool struct {
	client *httpcall.Client
	policy *URLPolicy
}

// NewHTTPRequestTool creates the tool. A nil policy allows every URL.
func NewHTTPRequestTool(client *httpcall.Client, policy *URLPolicy) *HTTPRequestTool {
	return &HTTPRequestTool{client: client, policy: policy}
}

func (t *HTTPRequestTool) Name() string {
	return HTTPRequestToolName
}

func (t *HTTPRequestTool) Description() string {
	return "Performs an HTTP request to any API or web endpoint and returns the response status and body. " +
		"Use it to read data from, or send data to, external services such as task managers, calendars or public APIs."
}

func (t *HTTPRequestTool) Parameters() *llm.JSONSchema {
	return &llm.JSONSchema{
		Type: "object",
		Properties: map[string]*llm.JSONSchema{
			"url": {
				Type:        "string",
				Description: "Full URL of the endpoint, including scheme.",
			},
			"method": {
				Type:        "string",
				Description: "HTTP method.",
				Enum:        []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD"},
				Default:     "GET",
			},
			"headers": {
				Type:                 "object",
				Description:          "Request headers as name/value pairs.",
				AdditionalProperties: true,
			},
			"payload": {
				Type:                 "object",
				Description:          "JSON body for POST, PUT or PATCH requests.",
				AdditionalProperties: true,
			},
		},
		Required: []string{"url"},
	}
}

type httpRequestArgs struct {
	Headers map[string]any `json:"headers"`
	Payload any            `json:"payload"`
	URL     string         `json:"url"`
	Method  string         `json:"method"`
}

// Call executes the request described by input, a JSON object.
// Only a missing url is returned as an error.
func (t *HTTPRequestTool) Call(ctx context.Context, input string) (string, error) {
	var args httpRequestArgs
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(args.URL) == "" {
		return "", httpcall.ErrURLRequired
	}
	if args.Method == "" {
		args.Method = http.MethodGet
	}

	allowed, err := t.policy.Allow(args.Method, args.URL)
	if err != nil {
		slog.Warn("URL policy evaluation failed", "url", args.URL, "error", err)
		return fmt.Sprintf("Error: request to %s could not be checked against the url policy", args.URL), nil
	}
	if !allowed {
		slog.Info("URL policy denied outbound request", "method", args.Method, "url", args.URL)
		return fmt.Sprintf("Error: request to %s denied by url policy", args.URL), nil
	}

	headers := make(map[string]string, len(args.Headers))
	for key, value := range args.Headers {
		if s, ok := value.(string); ok {
			headers[key] = s
			continue
		}
		headers[key] = fmt.Sprint(value)
	}

	req := &httpcall.Request{
		URL:     args.URL,
		Method:  args.Method,
		Headers: headers,
		Payload: args.Payload,
	}
	if t.policy != nil {
		req.Redirect = t.checkRedirect
	}
	return t.client.Do(ctx, req)
}

// checkRedirect applies the url policy to a redirect hop.
func (t *HTTPRequestTool) checkRedirect(method string, target *url.URL) error {
	allowed, err := t.policy.Allow(method, target.String())
	if err != nil {
		return fmt.Errorf("redirect to %s could not be checked against the url policy: %w", target.Redacted(), err)
	}
	if !allowed {
		return fmt.Errorf("redirect to %s denied by url policy", target.Redacted())
	}
	return nil
}
