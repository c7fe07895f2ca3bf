package stream

import (
	"context"
	"errors"
	"io"
	"testing"

	http "github.com/bogdanfinn/fhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/chatstream/internal/config"
	apierrors "github.com/diogo/chatstream/internal/errors"
)

const testEndpoint = "http://localhost:8000/chat"

func newTestClient(t *testing.T, doer Doer) *Client {
	t.Helper()
	ep, err := config.ParseEndpoint(testEndpoint)
	require.NoError(t, err)
	c, err := NewClient(ep, WithDoer(doer))
	require.NoError(t, err)
	return c
}

func TestClientOpenSendsPrompt(t *testing.T) {
	doer := &fakeDoer{respond: func(*http.Request) (*http.Response, error) {
		return textResponse(200, "text/plain; charset=utf-8", "hi"), nil
	}}
	c := newTestClient(t, doer)

	resp, err := c.Open(context.Background(), "req-1", "hello")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, 1, doer.calls())
	req := doer.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, testEndpoint, req.URL.String())
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, "req-1", req.Header.Get("X-Request-Id"))
	assert.JSONEq(t, `{"prompt":"hello"}`, doer.bodies[0])

	assert.Equal(t, "text/plain; charset=utf-8", resp.ContentType)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(body))
}

func TestClientOpenUnconfigured(t *testing.T) {
	doer := &fakeDoer{}
	c, err := NewClient(config.Unconfigured(), WithDoer(doer))
	require.NoError(t, err)

	_, err = c.Open(context.Background(), "id", "hello")
	assert.ErrorIs(t, err, apierrors.ErrEndpointNotConfigured)
	assert.Equal(t, 0, doer.calls())
}

func TestClientOpenStatusError(t *testing.T) {
	doer := &fakeDoer{respond: func(*http.Request) (*http.Response, error) {
		return textResponse(503, "application/json", `{"error":{"message":"overloaded"}}`), nil
	}}
	c := newTestClient(t, doer)

	_, err := c.Open(context.Background(), "id", "hello")
	require.Error(t, err)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 503, apiErr.StatusCode)
	assert.Equal(t, "overloaded", apiErr.Message)
	assert.Equal(t, testEndpoint, apiErr.Endpoint)
}

func TestClientOpenTransportError(t *testing.T) {
	cause := errors.New("connection refused")
	doer := &fakeDoer{respond: func(*http.Request) (*http.Response, error) {
		return nil, cause
	}}
	c := newTestClient(t, doer)

	_, err := c.Open(context.Background(), "id", "hello")
	assert.True(t, apierrors.IsNetworkError(err))
	assert.ErrorIs(t, err, cause)
}

func TestClientOpenNoBody(t *testing.T) {
	tests := []struct {
		name string
		resp *http.Response
	}{
		{"nil body", &http.Response{StatusCode: 200, Header: http.Header{}}},
		{"no body sentinel", &http.Response{StatusCode: 200, Header: http.Header{}, Body: http.NoBody}},
		{"no content", textResponse(204, "", "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &fakeDoer{respond: func(*http.Request) (*http.Response, error) {
				return tt.resp, nil
			}}
			c := newTestClient(t, doer)

			_, err := c.Open(context.Background(), "id", "hello")
			assert.ErrorIs(t, err, apierrors.ErrNoBody)
		})
	}
}
