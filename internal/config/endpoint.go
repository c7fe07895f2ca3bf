package config

import (
	"fmt"
	"net/url"
	"strings"

	apierrors "github.com/diogo/chatstream/internal/errors"
)

// Endpoint is the completion URL, or the explicit unconfigured value.
type Endpoint struct {
	u *url.URL
}

// Unconfigured returns the endpoint used when no URL was provided
func Unconfigured() Endpoint {
	return Endpoint{}
}

// ParseEndpoint validates raw. An empty or blank string yields Unconfigured.
func ParseEndpoint(raw string) (Endpoint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Unconfigured(), nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Unconfigured(), fmt.Errorf("%w: %v", apierrors.ErrInvalidEndpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Unconfigured(), fmt.Errorf("%w: scheme must be http or https, got %q", apierrors.ErrInvalidEndpoint, u.Scheme)
	}
	if u.Host == "" {
		return Unconfigured(), fmt.Errorf("%w: missing host in %q", apierrors.ErrInvalidEndpoint, raw)
	}

	return Endpoint{u: u}, nil
}

// IsConfigured reports whether a URL is present
func (e Endpoint) IsConfigured() bool {
	return e.u != nil
}

// String returns the URL, or "" when unconfigured
func (e Endpoint) String() string {
	if e.u == nil {
		return ""
	}
	return e.u.String()
}

// Host returns the URL host, or "" when unconfigured
func (e Endpoint) Host() string {
	if e.u == nil {
		return ""
	}
	return e.u.Host
}
