package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"realtime-srv/internal/subscriber"
	"realtime-srv/pkg/log"
	"realtime-srv/pkg/response"
)

const (
	defaultRequestTimeout = 15 * time.Second
	maxResponseBytes      = 1 << 20
)

// SessionTokenSource provides the session token sent with credential
// requests.
type SessionTokenSource interface {
	Token() string
}

type tokenData struct {
	Token               string    `json:"token"`
	ExpiresAt           time.Time `json:"expires_at"`
	RefreshAfterSeconds int64     `json:"refresh_after_seconds"`
}

// CredentialClient mints stream credentials through the token endpoint.
type CredentialClient struct {
	http     *http.Client
	tokenURL string
	session  SessionTokenSource
	logger   log.Logger
}

var _ subscriber.CredentialSource = (*CredentialClient)(nil)

// NewCredentialClient uses a client with a request timeout when httpClient
// is nil.
func NewCredentialClient(httpClient *http.Client, endpoints Endpoints, session SessionTokenSource, logger log.Logger) *CredentialClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &CredentialClient{
		http:     httpClient,
		tokenURL: endpoints.TokenURL,
		session:  session,
		logger:   logger,
	}
}

func (c *CredentialClient) FetchCredential(ctx context.Context) (subscriber.Credential, error) {
	sessionToken := c.session.Token()
	if sessionToken == "" {
		return subscriber.Credential{}, ErrNotSignedIn
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader("{}"))
	if err != nil {
		return subscriber.Credential{}, err
	}
	req.Header.Set("Authorization", "Bearer "+sessionToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return subscriber.Credential{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return subscriber.Credential{}, fmt.Errorf("read token response: %w", err)
	}

	var data tokenData
	envelope := response.Resp{Data: &data}
	decodeErr := json.Unmarshal(body, &envelope)

	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Warnf(ctx, "Stream token request failed: %s", resp.Status)
		statusErr := &HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
		if decodeErr == nil {
			statusErr.Message = envelope.Message
		}
		return subscriber.Credential{}, statusErr
	}
	if decodeErr != nil {
		return subscriber.Credential{}, fmt.Errorf("invalid token response: %w", decodeErr)
	}
	if strings.TrimSpace(data.Token) == "" {
		return subscriber.Credential{}, ErrMissingToken
	}

	c.logger.Debugf(ctx, "Stream token acquired, expires at %s", data.ExpiresAt)
	return subscriber.Credential{
		Token:        data.Token,
		ExpiresAt:    data.ExpiresAt,
		RefreshAfter: time.Duration(data.RefreshAfterSeconds) * time.Second,
	}, nil
}
