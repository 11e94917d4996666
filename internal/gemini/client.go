package gemini

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

	"go.uber.org/zap"

	"github.com/muurk/bootmaster/internal/advisor"
	"github.com/muurk/bootmaster/internal/logging"
	"github.com/muurk/bootmaster/internal/urls"
	"github.com/muurk/bootmaster/internal/version"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 60 * time.Second

	// APIKeyHeader carries the credential on every request
	APIKeyHeader = "x-goog-api-key"

	// maxResponseBytes bounds how much of a reply is read
	maxResponseBytes = 4 << 20
)

// Client calls the generateContent endpoint. It implements advisor.Generator.
type Client struct {
	// BaseURL is the API root (default: https://generativelanguage.googleapis.com)
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// UserAgent is sent with every request
	UserAgent string
}

var _ advisor.Generator = (*Client)(nil)

// NewClient creates a client for the public Gemini endpoint
func NewClient() *Client {
	return NewClientWithURL(urls.GeminiEndpoint)
}

// NewClientWithURL creates a client with a custom API root
// baseURL: e.g. "http://127.0.0.1:8089" for a local stub
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		UserAgent:  version.UserAgent(),
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// BuildRequest converts an advisor request into the wire format
func BuildRequest(req advisor.Request) *GenerateRequest {
	body := &GenerateRequest{
		Contents:         make([]Content, 0, len(req.Turns)),
		GenerationConfig: &GenerationConfig{Temperature: req.Temperature},
	}
	for _, turn := range req.Turns {
		body.Contents = append(body.Contents, Content{
			Role:  turn.Speaker.WireRole(),
			Parts: []Part{{Text: turn.Text}},
		})
	}
	if req.SystemInstruction != "" {
		body.SystemInstruction = &Content{Parts: []Part{{Text: req.SystemInstruction}}}
	}
	return body
}

// Generate sends the conversation and returns the model's reply text.
// Failed requests are not retried.
func (c *Client) Generate(ctx context.Context, req advisor.Request) (string, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return "", NewConfigError("API key is not set")
	}
	if req.Model == "" {
		req.Model = advisor.DefaultModel
	}

	payload, err := json.Marshal(BuildRequest(req))
	if err != nil {
		return "", NewParseError("failed to encode request", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.BaseURL, url.PathEscape(req.Model))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", NewNetworkError("failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(APIKeyHeader, req.APIKey)
	if c.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.UserAgent)
	}

	logging.Debug("Sending generateContent request",
		zap.String("model", req.Model),
		zap.Int("turns", len(req.Turns)),
	)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		classified := ClassifyNetworkError(err, c.host())
		classified.Message = "generateContent request failed: " + classified.Message
		return "", classified
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", NewNetworkError("failed to read response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", httpError(resp.StatusCode, body)
	}

	var parsed GenerateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", NewParseError("failed to parse JSON response", err)
	}

	if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
		return "", NewBlockedError(parsed.PromptFeedback.BlockReason)
	}
	text := parsed.Text()
	if strings.TrimSpace(text) == "" {
		if len(parsed.Candidates) > 0 && parsed.Candidates[0].FinishReason == "SAFETY" {
			return "", NewBlockedError("SAFETY")
		}
		return "", NewParseError("response contained no text", nil)
	}
	return text, nil
}

// httpError builds an error from a non-200 reply, using the API's own
// message when the body carries one.
func httpError(statusCode int, body []byte) *APIError {
	message := fmt.Sprintf("unexpected status code: %d", statusCode)
	var er errorResponse
	if json.Unmarshal(body, &er) == nil && er.Error.Message != "" {
		message = er.Error.Message
	}
	apiErr := NewHTTPError(statusCode, message)
	apiErr.Status = er.Error.Status
	return apiErr
}

func (c *Client) host() string {
	if u, err := url.Parse(c.BaseURL); err == nil && u.Host != "" {
		return u.Host
	}
	return c.BaseURL
}
