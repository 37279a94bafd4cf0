package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/skillforge-backend/internal/platform/logger"
	"github.com/yungbote/skillforge-backend/internal/realtime"
)

const (
	DefaultChannel = "skillforge:sse"

	// envelopeVersion guards against other publishers sharing the channel.
	envelopeVersion = 1
)

type envelope struct {
	V   int                 `json:"v"`
	Msg realtime.SSEMessage `json:"msg"`
}

type redisBus struct {
	log     *logger.Logger
	rdb     goredis.UniversalClient
	channel string
}

// NewRedisBus publishes user events on channel. rdb is owned by the caller.
func NewRedisBus(log *logger.Logger, rdb goredis.UniversalClient, channel string) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = DefaultChannel
	}
	return &redisBus{
		log:     log.With("service", "RedisEventBus", "channel", channel),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (b *redisBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	if msg.Channel == "" {
		return fmt.Errorf("publish %q: message has no recipient", msg.Event)
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	raw, err := json.Marshal(envelope{V: envelopeVersion, Msg: msg})
	if err != nil {
		return fmt.Errorf("encode %q: %w", msg.Event, err)
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// decode returns false for payloads this bus did not produce.
func decode(payload string) (realtime.SSEMessage, bool) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return realtime.SSEMessage{}, false
	}
	if env.V != envelopeVersion || env.Msg.Channel == "" || env.Msg.Event == "" {
		return realtime.SSEMessage{}, false
	}
	return env.Msg, true
}

func (b *redisBus) StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}
	b.log.Info("Event forwarder subscribed")

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				if m == nil {
					continue
				}
				msg, ok := decode(m.Payload)
				if !ok {
					b.log.Warn("Dropping foreign event payload", "bytes", len(m.Payload))
					continue
				}
				onMsg(msg)
			}
		}
	}()
	return nil
}

func (b *redisBus) Close() error { return nil }
