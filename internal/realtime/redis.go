package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	publishTimeout = 2 * time.Second
	outboxSize     = 256
)

// RedisBroker shares events between server instances. Publish queues the
// event for redis only; Run sends the queue and receives every board channel
// back into the local Hub, so the publishing instance gets its own events too.
type RedisBroker struct {
	client *redis.Client
	prefix string
	hub    *Hub
	log    *logrus.Logger

	outbox     chan outbound
	retryDelay time.Duration
}

type outbound struct {
	channel string
	event   string
	boardID uuid.UUID
	data    []byte
}

func NewRedisBroker(client *redis.Client, prefix string, hub *Hub, log *logrus.Logger) *RedisBroker {
	return &RedisBroker{
		client:     client,
		prefix:     prefix,
		hub:        hub,
		log:        log,
		outbox:     make(chan outbound, outboxSize),
		retryDelay: time.Second,
	}
}

func (b *RedisBroker) channel(boardID uuid.UUID) string {
	return b.prefix + boardID.String()
}

// Publish encodes ev and queues it without waiting for redis. A full queue
// drops the event.
func (b *RedisBroker) Publish(_ context.Context, ev Event) {
	fields := logrus.Fields{"board_id": ev.BoardID, "event": ev.Type}

	data, err := sonic.Marshal(ev)
	if err != nil {
		b.log.WithError(err).WithFields(fields).Error("encode realtime event")
		return
	}

	select {
	case b.outbox <- outbound{channel: b.channel(ev.BoardID), event: ev.Type, boardID: ev.BoardID, data: data}:
	default:
		b.log.WithFields(fields).Warn("realtime outbox full, dropping event")
	}
}

func (b *RedisBroker) sendLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-b.outbox:
			b.send(ctx, msg)
		}
	}
}

func (b *RedisBroker) send(ctx context.Context, msg outbound) {
	// needs Options.ContextTimeoutEnabled to bound the socket wait
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := b.client.Publish(ctx, msg.channel, msg.data).Err(); err != nil {
		b.log.WithError(err).WithFields(logrus.Fields{
			"board_id": msg.boardID,
			"event":    msg.event,
		}).Error("publish realtime event")
	}
}

type wireEvent struct {
	Type    string          `json:"type"`
	BoardID uuid.UUID       `json:"boardId"`
	Payload json.RawMessage `json:"payload"`
}

// Run blocks until ctx is done. It drains the publish queue and resubscribes
// whenever the pubsub channel closes.
func (b *RedisBroker) Run(ctx context.Context) {
	go b.sendLoop(ctx)

	for {
		sub := b.client.PSubscribe(ctx, b.prefix+"*")
		b.consume(ctx, sub.Channel())
		_ = sub.Close()

		if ctx.Err() != nil {
			return
		}
		b.log.Error("redis pubsub channel closed, reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(b.retryDelay):
		}
	}
}

func (b *RedisBroker) consume(ctx context.Context, ch <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev wireEvent
			if err := sonic.UnmarshalString(msg.Payload, &ev); err != nil {
				b.log.WithError(err).WithField("channel", msg.Channel).Error("decode realtime event")
				continue
			}
			if !strings.HasSuffix(msg.Channel, ev.BoardID.String()) {
				b.log.WithField("channel", msg.Channel).Warn("realtime event board mismatch")
				continue
			}
			b.hub.Publish(ctx, Event{Type: ev.Type, BoardID: ev.BoardID, Payload: ev.Payload})
		}
	}
}
