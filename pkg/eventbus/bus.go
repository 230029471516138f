package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"statusdeck/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Bus is an at-least-once pub/sub fabric on named redis channels.
// Publishing is fire-and-forget: with no subscriber the message is gone.
type Bus struct {
	rdb    *redis.Client
	logger *zerolog.Logger
}

func New(cfg *config.RedisConfig, logger *zerolog.Logger) (*Bus, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opt.DialTimeout = cfg.DialTimeout
	opt.ReadTimeout = cfg.ReadTimeout
	opt.WriteTimeout = cfg.WriteTimeout
	opt.PoolSize = cfg.PoolSize
	opt.MinIdleConns = cfg.MinIdleConns
	opt.ConnMaxLifetime = cfg.ConnMaxLifetime
	opt.ConnMaxIdleTime = cfg.ConnMaxIdleTime

	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Bus{rdb: rdb, logger: logger}, nil
}

func (b *Bus) Close() error {
	return b.rdb.Close()
}

// Publish sends one message on a channel. Strings and raw bytes go out
// as-is, anything else is JSON encoded first.
func (b *Bus) Publish(ctx context.Context, channel string, payload any) error {
	var msg any

	switch p := payload.(type) {
	case string:
		msg = p
	case []byte:
		msg = p
	default:
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode event for %s: %w", channel, err)
		}
		msg = raw
	}

	return b.rdb.Publish(ctx, channel, msg).Err()
}

// Message is one delivery from a subscription.
type Message struct {
	Channel string
	Payload string
}

// Subscribe opens a subscription on the given channels. The returned
// channel closes when ctx is cancelled or the connection dies.
func (b *Bus) Subscribe(ctx context.Context, channels ...string) (<-chan Message, error) {
	pubsub := b.rdb.Subscribe(ctx, channels...)

	// Confirm the subscription before handing out the channel
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %v: %w", channels, err)
	}

	out := make(chan Message, 64)

	go func() {
		defer close(out)
		defer pubsub.Close()

		src := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-src:
				if !ok {
					return
				}
				select {
				case out <- Message{Channel: m.Channel, Payload: m.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	b.logger.Info().Strs("channels", channels).Msg("event bus subscription opened")
	return out, nil
}
