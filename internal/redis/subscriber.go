package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	goredis "github.com/redis/go-redis/v9"

	"realtime-srv/internal/envelope"
	"realtime-srv/pkg/log"
)

// Broadcaster is the part of the stream hub the subscriber feeds.
type Broadcaster interface {
	Broadcast(userID string, env envelope.Envelope)
	ForceLogout(userID string, logout envelope.Logout)
}

type pubSubClient interface {
	PSubscribe(ctx context.Context, channels ...string) *goredis.PubSub
}

// SubscriberConfig tunes reconnection.
type SubscriberConfig struct {
	MaxRetries     uint
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

// DefaultSubscriberConfig returns the default reconnection settings.
func DefaultSubscriberConfig() SubscriberConfig {
	return SubscriberConfig{
		MaxRetries:     10,
		RetryBaseDelay: 500 * time.Millisecond,
		RetryMaxDelay:  30 * time.Second,
	}
}

// Subscriber relays envelopes published on per-user channels to the hub.
type Subscriber struct {
	client pubSubClient
	hub    Broadcaster
	logger log.Logger
	cfg    SubscriberConfig

	pubsub         *goredis.PubSub
	connectedUsers map[string]struct{}
	mu             sync.RWMutex
	patternChannel string

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	lastMessageAt     time.Time
	started           atomic.Bool
	isActive          atomic.Bool
	messagesRelayed   atomic.Int64
	messagesMalformed atomic.Int64
}

// NewSubscriber creates a Subscriber. Call Start to begin listening.
func NewSubscriber(client pubSubClient, hub Broadcaster, logger log.Logger, cfg SubscriberConfig) *Subscriber {
	ctx, cancel := context.WithCancel(context.Background())
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultSubscriberConfig().MaxRetries
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = DefaultSubscriberConfig().RetryBaseDelay
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = DefaultSubscriberConfig().RetryMaxDelay
	}

	return &Subscriber{
		client:         client,
		hub:            hub,
		logger:         logger,
		cfg:            cfg,
		connectedUsers: make(map[string]struct{}),
		patternChannel: ChannelPattern,
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
	}
}

// Start subscribes to the user channel pattern and starts relaying.
func (s *Subscriber) Start() error {
	pubsub := s.client.PSubscribe(s.ctx, s.patternChannel)
	if _, err := pubsub.Receive(s.ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", s.patternChannel, err)
	}

	s.mu.Lock()
	s.pubsub = pubsub
	s.mu.Unlock()
	s.isActive.Store(true)
	s.started.Store(true)

	s.logger.Infof(s.ctx, "Redis subscriber started, listening on pattern: %s", s.patternChannel)

	go s.listen(pubsub.Channel())
	return nil
}

func (s *Subscriber) listen(ch <-chan *goredis.Message) {
	defer close(s.done)

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info(context.Background(), "Redis subscriber shutting down...")
			return

		case msg, ok := <-ch:
			if !ok {
				if s.ctx.Err() != nil {
					return
				}
				s.logger.Error(s.ctx, "Redis pub/sub channel closed, attempting to reconnect...")
				pubsub, err := s.reconnect()
				if err != nil {
					s.isActive.Store(false)
					s.logger.Errorf(s.ctx, "Failed to reconnect to Redis: %v", err)
					return
				}
				ch = pubsub.Channel()
				continue
			}
			s.handleMessage(msg.Channel, msg.Payload)
		}
	}
}

// handleMessage decodes one published envelope and hands it to the hub.
// Malformed payloads are logged and dropped.
func (s *Subscriber) handleMessage(channel, payload string) {
	s.mu.Lock()
	s.lastMessageAt = time.Now()
	s.mu.Unlock()

	userID, err := userFromChannel(channel)
	if err != nil {
		s.messagesMalformed.Add(1)
		s.logger.Warnf(s.ctx, "Invalid channel format: %s", channel)
		return
	}

	env, err := envelope.Decode([]byte(payload))
	if err != nil {
		s.messagesMalformed.Add(1)
		s.logger.Errorf(s.ctx, "Dropping malformed envelope for user %s: %v", userID, err)
		return
	}

	if logout, ok := env.Data().(envelope.Logout); ok {
		s.hub.ForceLogout(userID, logout)
	} else {
		s.hub.Broadcast(userID, env)
	}
	s.messagesRelayed.Add(1)

	if !s.isUserConnected(userID) {
		s.logger.Debugf(s.ctx, "Dropped %s event for user %s: no open streams", env.Type(), userID)
		return
	}
	s.logger.Debugf(s.ctx, "Routed %s event to user %s", env.Type(), userID)
}

func (s *Subscriber) reconnect() (*goredis.PubSub, error) {
	s.mu.Lock()
	if s.pubsub != nil {
		_ = s.pubsub.Close()
		s.pubsub = nil
	}
	s.mu.Unlock()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.cfg.RetryBaseDelay
	policy.MaxInterval = s.cfg.RetryMaxDelay

	attempt := 0
	pubsub, err := backoff.Retry(s.ctx, func() (*goredis.PubSub, error) {
		attempt++
		s.logger.Infof(s.ctx, "Reconnecting to Redis (attempt %d/%d)...", attempt, s.cfg.MaxRetries)

		ps := s.client.PSubscribe(s.ctx, s.patternChannel)
		if _, err := ps.Receive(s.ctx); err != nil {
			_ = ps.Close()
			if errors.Is(err, context.Canceled) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return ps, nil
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(s.cfg.MaxRetries),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.logger.Warnf(s.ctx, "Redis reconnect failed: %v (next retry in %s)", err, next)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconnect to Redis after %d attempts: %w", attempt, err)
	}

	s.mu.Lock()
	s.pubsub = pubsub
	s.mu.Unlock()

	s.logger.Info(s.ctx, "Successfully reconnected to Redis")
	return pubsub, nil
}

// OnUserConnected records that userID has at least one open stream.
func (s *Subscriber) OnUserConnected(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connectedUsers[userID] = struct{}{}
	s.logger.Debugf(s.ctx, "User %s marked as connected in Redis subscriber", userID)
	return nil
}

// OnUserDisconnected forgets userID once its last stream is gone.
func (s *Subscriber) OnUserDisconnected(userID string, hasOtherConnections bool) error {
	if hasOtherConnections {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.connectedUsers, userID)
	s.logger.Debugf(s.ctx, "User %s marked as disconnected in Redis subscriber", userID)
	return nil
}

func (s *Subscriber) isUserConnected(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.connectedUsers[userID]
	return ok
}

// HealthInfo is a snapshot of the subscriber state.
type HealthInfo struct {
	Active            bool      `json:"active"`
	Pattern           string    `json:"pattern"`
	LastMessageAt     time.Time `json:"last_message_at,omitzero"`
	ConnectedUsers    int       `json:"connected_users"`
	MessagesRelayed   int64     `json:"messages_relayed"`
	MessagesMalformed int64     `json:"messages_malformed"`
}

// GetHealthInfo returns the current health info of the subscriber.
func (s *Subscriber) GetHealthInfo() HealthInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return HealthInfo{
		Active:            s.isActive.Load(),
		Pattern:           s.patternChannel,
		LastMessageAt:     s.lastMessageAt,
		ConnectedUsers:    len(s.connectedUsers),
		MessagesRelayed:   s.messagesRelayed.Load(),
		MessagesMalformed: s.messagesMalformed.Load(),
	}
}

// Shutdown stops relaying and closes the subscription.
func (s *Subscriber) Shutdown(ctx context.Context) error {
	s.isActive.Store(false)
	s.cancel()

	s.mu.Lock()
	pubsub := s.pubsub
	s.pubsub = nil
	s.mu.Unlock()

	if pubsub != nil {
		if err := pubsub.Close(); err != nil {
			s.logger.Errorf(context.Background(), "Error closing pub/sub: %v", err)
		}
	}
	if !s.started.Load() {
		return nil
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
