package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/examtree/examtree-backend/internal/platform/logger"
)

// InvalidationBus relays cache-invalidation prefixes between instances so
// a cascade applied on one node drops stale reads everywhere. Messages
// carry an origin id; the forwarder skips its own.
type InvalidationBus interface {
	Publish(ctx context.Context, prefix string) error
	StartForwarder(ctx context.Context, onPrefix func(prefix string)) error
	Close() error
}

type invalidationMessage struct {
	Prefix string `json:"prefix"`
	Origin string `json:"origin"`
}

type invalidationBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
	origin  string
}

// NewInvalidationBus connects using REDIS_ADDR and REDIS_CHANNEL. A
// missing REDIS_ADDR is an error; the caller decides whether the bus is
// optional.
func NewInvalidationBus(log *logger.Logger) (InvalidationBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_CHANNEL"))
	if ch == "" {
		ch = "cache-invalidation"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &invalidationBus{
		log:     log.With("client", "InvalidationBus"),
		rdb:     rdb,
		channel: ch,
		origin:  uuid.NewString(),
	}, nil
}

func (b *invalidationBus) Publish(ctx context.Context, prefix string) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("invalidation bus not initialized")
	}
	raw, err := json.Marshal(invalidationMessage{Prefix: prefix, Origin: b.origin})
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *invalidationBus) StartForwarder(ctx context.Context, onPrefix func(prefix string)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("invalidation bus not initialized")
	}
	if onPrefix == nil {
		return fmt.Errorf("onPrefix callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-sub.Channel():
				if !ok {
					return
				}
				var msg invalidationMessage
				if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
					b.log.Warn("Dropping malformed invalidation message", "error", err)
					continue
				}
				if msg.Origin == b.origin || msg.Prefix == "" {
					continue
				}
				onPrefix(msg.Prefix)
			}
		}
	}()
	return nil
}

func (b *invalidationBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
