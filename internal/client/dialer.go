package client

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"realtime-srv/internal/subscriber"
	"realtime-srv/internal/sse"
)

// DefaultResponseHeaderTimeout bounds how long Dial waits for the stream's
// response headers.
const DefaultResponseHeaderTimeout = 15 * time.Second

// NewStreamHTTPClient returns a client for long lived streams: no
// whole-request timeout, but a server that accepts the connection and never
// answers fails after headerTimeout.
func NewStreamHTTPClient(headerTimeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = headerTimeout
	return &http.Client{Transport: transport}
}

// SSEDialer opens the stream endpoint. Its client must not have a
// whole-request timeout since the response never ends on its own.
type SSEDialer struct {
	http      *http.Client
	streamURL string
}

var _ subscriber.Dialer = (*SSEDialer)(nil)

func NewSSEDialer(httpClient *http.Client, endpoints Endpoints) *SSEDialer {
	if httpClient == nil {
		httpClient = NewStreamHTTPClient(DefaultResponseHeaderTimeout)
	}
	return &SSEDialer{http: httpClient, streamURL: endpoints.StreamURL}
}

// Dial returns the open stream body. Cancelling ctx closes it.
func (d *SSEDialer) Dial(ctx context.Context, token string) (io.ReadCloser, error) {
	u, err := url.Parse(d.streamURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", sse.ContentType)
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return resp.Body, nil
}
