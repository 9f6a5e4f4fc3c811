package client

import (
	"errors"
	"net/url"
	"strings"
)

const (
	tokenPath  = "/api/realtime/token"
	streamPath = "/api/realtime/stream"
)

// Endpoints are the realtime URLs derived from a base URL.
type Endpoints struct {
	BaseURL   string
	TokenURL  string
	StreamURL string
}

// BuildEndpoints normalizes raw (any pasted path, query or fragment is
// dropped) and derives the realtime URLs from it.
func BuildEndpoints(raw string) (Endpoints, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return Endpoints{}, ErrBaseURLRequired
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return Endpoints{}, err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return Endpoints{}, errors.New("client: expected absolute URL like https://example.com")
	}
	if !strings.EqualFold(parsed.Scheme, "http") && !strings.EqualFold(parsed.Scheme, "https") {
		return Endpoints{}, errors.New("client: base URL scheme must be http or https")
	}

	parsed.Path = ""
	parsed.RawPath = ""
	parsed.RawQuery = ""
	parsed.Fragment = ""
	base := strings.TrimRight(parsed.String(), "/")

	return Endpoints{
		BaseURL:   base,
		TokenURL:  base + tokenPath,
		StreamURL: base + streamPath,
	}, nil
}
