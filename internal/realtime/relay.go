package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRelay fans envelopes out to every API instance through a Redis pub/sub channel.
type RedisRelay struct {
	client     *redis.Client
	channel    string
	logger     *zap.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
}

// NewRedisRelay constructs a relay on channel.
func NewRedisRelay(client *redis.Client, channel string, logger *zap.Logger) *RedisRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRelay{
		client:     client,
		channel:    channel,
		logger:     logger,
		minBackoff: relayMinBackoff,
		maxBackoff: relayMaxBackoff,
	}
}

// Publish sends env to all subscribed instances, including this one.
func (r *RedisRelay) Publish(ctx context.Context, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode relay envelope: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish relay envelope: %w", err)
	}
	return nil
}

const (
	relayMinBackoff = 500 * time.Millisecond
	relayMaxBackoff = 30 * time.Second
)

// Run subscribes to the channel and hands each envelope to deliver until ctx ends.
// A failed or dropped subscription is retried with exponential backoff.
func (r *RedisRelay) Run(ctx context.Context, deliver func(Envelope) int) error {
	backoff := r.minBackoff
	for {
		subscribed, err := r.subscribe(ctx, deliver)
		if ctx.Err() != nil {
			return nil
		}
		if subscribed {
			backoff = r.minBackoff
		}
		r.logger.Warn("relay subscription lost, retrying",
			zap.String("channel", r.channel),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		if backoff *= 2; backoff > r.maxBackoff {
			backoff = r.maxBackoff
		}
	}
}

// subscribe runs one subscription until it ends. subscribed reports whether the
// channel was joined before the failure.
func (r *RedisRelay) subscribe(ctx context.Context, deliver func(Envelope) int) (subscribed bool, err error) {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return false, fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.logger.Info("relay subscribed", zap.String("channel", r.channel))

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return true, nil
		case msg, ok := <-messages:
			if !ok {
				return true, fmt.Errorf("relay channel %s closed", r.channel)
			}
			env, err := decodeEnvelope(msg.Payload)
			if err != nil {
				r.logger.Warn("drop malformed relay message", zap.Error(err))
				continue
			}
			deliver(env)
		}
	}
}

func decodeEnvelope(payload string) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return Envelope{}, fmt.Errorf("decode relay envelope: %w", err)
	}
	if env.Room == "" || env.Event == "" {
		return Envelope{}, fmt.Errorf("relay envelope missing room or event")
	}
	return env, nil
}
