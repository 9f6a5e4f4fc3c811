package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"realtime-srv/internal/envelope"
	"realtime-srv/pkg/log"
)

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message any) *goredis.IntCmd
}

// Publisher lets domain code push envelopes to a user from any process.
type Publisher struct {
	client redisPublisher
	logger log.Logger
}

// NewPublisher creates a Publisher on client.
func NewPublisher(client redisPublisher, logger log.Logger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

// PublishToUser publishes env on the user's channel and returns the number
// of subscribers that received it.
func (p *Publisher) PublishToUser(ctx context.Context, userID string, env envelope.Envelope) (int64, error) {
	if userID == "" {
		return 0, ErrEmptyUserID
	}
	payload, err := env.MarshalJSON()
	if err != nil {
		return 0, fmt.Errorf("marshal envelope: %w", err)
	}
	receivers, err := p.client.Publish(ctx, UserChannel(userID), payload).Result()
	if err != nil {
		return 0, fmt.Errorf("publish to %s: %w", UserChannel(userID), err)
	}
	p.logger.Debugf(ctx, "Published %s event to user %s (receivers: %d)", env.Type(), userID, receivers)
	return receivers, nil
}
