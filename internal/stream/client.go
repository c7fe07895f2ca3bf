package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	"github.com/diogo/chatstream/internal/config"
	apierrors "github.com/diogo/chatstream/internal/errors"
	"github.com/diogo/chatstream/internal/models"
)

// Doer sends an HTTP request. tls_client.HttpClient satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Response is an open streamed reply
type Response struct {
	Body        io.ReadCloser
	ContentType string
	StatusCode  int
}

// Client posts prompts to the completion endpoint
type Client struct {
	doer           Doer
	endpoint       config.Endpoint
	timeoutSeconds int
	userAgent      string
	logger         *slog.Logger
}

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithDoer replaces the HTTP transport
func WithDoer(d Doer) ClientOption {
	return func(c *Client) {
		c.doer = d
	}
}

// WithTimeout sets the transport's overall timeout in seconds
func WithTimeout(seconds int) ClientOption {
	return func(c *Client) {
		c.timeoutSeconds = seconds
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithClientLogger sets the logger used for request diagnostics
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client for endpoint
func NewClient(endpoint config.Endpoint, opts ...ClientOption) (*Client, error) {
	client := &Client{
		endpoint:       endpoint,
		timeoutSeconds: 300,
		userAgent:      "chatstream",
		logger:         discardLogger(),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.doer == nil {
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(client.timeoutSeconds),
			tls_client.WithClientProfile(profiles.Chrome_120),
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.doer = httpClient
	}

	return client, nil
}

// Endpoint returns the endpoint the client posts to
func (c *Client) Endpoint() config.Endpoint {
	return c.endpoint
}

// Open sends prompt and returns the streamed body. The caller closes Body.
func (c *Client) Open(ctx context.Context, requestID, prompt string) (*Response, error) {
	if !c.endpoint.IsConfigured() {
		return nil, apierrors.ErrEndpointNotConfigured
	}
	endpoint := c.endpoint.String()

	payload, err := json.Marshal(models.PromptRequest{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("failed to build payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(models.HeaderContentType, models.ContentTypeJSON)
	req.Header.Set(models.HeaderAccept, "*/*")
	req.Header.Set(models.HeaderUserAgent, c.userAgent)
	if requestID != "" {
		req.Header.Set(models.HeaderRequestID, requestID)
	}

	c.logger.Debug("sending prompt", "request_id", requestID, "endpoint", endpoint, "bytes", len(payload))

	resp, err := c.doer.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, apierrors.NewNetworkErrorWithEndpoint("send prompt", endpoint, ctxErr)
		}
		return nil, apierrors.NewNetworkErrorWithEndpoint("send prompt", endpoint, err)
	}

	c.logger.Debug("response headers received", "request_id", requestID, "status", resp.StatusCode,
		"content_type", resp.Header.Get(models.HeaderContentType))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body []byte
		if resp.Body != nil {
			body, _ = io.ReadAll(io.LimitReader(resp.Body, 4096))
			_ = resp.Body.Close()
		}
		return nil, apierrors.NewAPIErrorWithBody(resp.StatusCode, endpoint, "request failed", string(body))
	}

	if resp.Body == nil || resp.Body == http.NoBody || resp.StatusCode == http.StatusNoContent {
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, apierrors.ErrNoBody
	}

	return &Response{
		Body:        resp.Body,
		ContentType: resp.Header.Get(models.HeaderContentType),
		StatusCode:  resp.StatusCode,
	}, nil
}
