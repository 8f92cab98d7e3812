package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// RelayChannel is the Redis pub/sub channel shared by every API process.
const RelayChannel = "tasktracker:rooms"

const (
	publishTimeout   = 2 * time.Second
	relayQueueLength = 256
)

type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// relayMessage carries either an event frame or, with Evict set, a request to
// drop that user's connections from Room.
type relayMessage struct {
	Room  string          `json:"room"`
	Frame json.RawMessage `json:"frame,omitempty"`
	Evict uint64          `json:"evict,omitempty"`
}

// RedisRelay publishes events through Redis so every process delivers them to
// its own connections. Emit only queues; Run publishes the queue in order and
// delivers locally when an event certainly never reached Redis.
type RedisRelay struct {
	hub     *Hub
	pub     publisher
	sub     subscriber
	queue   chan relayMessage
	timeout time.Duration
	logger  *slog.Logger
}

func NewRedisRelay(client *redis.Client, hub *Hub, logger *slog.Logger) *RedisRelay {
	if logger == nil {
		logger = slog.Default()
	}
	return newRelay(hub, client, client, logger)
}

func newRelay(hub *Hub, pub publisher, sub subscriber, logger *slog.Logger) *RedisRelay {
	return &RedisRelay{
		hub:     hub,
		pub:     pub,
		sub:     sub,
		queue:   make(chan relayMessage, relayQueueLength),
		timeout: publishTimeout,
		logger:  logger.With("component", "realtime-relay"),
	}
}

// Emit implements the same contract as Hub.Emit across processes. It never
// blocks: when the queue is full the event is dropped.
func (r *RedisRelay) Emit(room, event string, payload any) {
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		r.logger.Error("failed to encode event", "room", room, "event", event, "error", err)
		return
	}

	r.enqueue(relayMessage{Room: room, Frame: frame})
}

// EvictUser removes userID's connections from room in every process.
func (r *RedisRelay) EvictUser(room string, userID uint64) {
	r.enqueue(relayMessage{Room: room, Evict: userID})
}

func (r *RedisRelay) enqueue(msg relayMessage) {
	select {
	case r.queue <- msg:
	default:
		r.logger.Warn("relay queue full, dropping message", "room", msg.Room)
	}
}

// Run publishes queued events and delivers relayed ones to the local hub until
// ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	ps := r.sub.Subscribe(ctx, RelayChannel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return err
	}
	r.logger.Info("relay subscribed", "channel", RelayChannel)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.publishLoop(ctx)
		return nil
	})
	g.Go(func() error {
		ch := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return nil
			case m, ok := <-ch:
				if !ok {
					return nil
				}
				r.handle(m.Payload)
			}
		}
	})
	return g.Wait()
}

// publishLoop is the queue's only consumer, so events leave in emit order.
func (r *RedisRelay) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-r.queue:
			r.publish(ctx, msg)
		}
	}
}

func (r *RedisRelay) publish(ctx context.Context, msg relayMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error("failed to encode relay message", "room", msg.Room, "error", err)
		r.apply(msg)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err = r.pub.Publish(ctx, RelayChannel, data).Err()
	switch {
	case err == nil:
	case mayHaveReachedRedis(err):
		r.logger.Warn("relay publish outcome unknown, not applying locally", "room", msg.Room, "error", err)
	default:
		r.logger.Warn("relay publish failed, applying locally", "room", msg.Room, "error", err)
		r.apply(msg)
	}
}

// mayHaveReachedRedis reports whether the command could have been sent before
// err happened: a timeout or cancellation after a successful dial.
func mayHaveReachedRedis(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return false
	}
	if errors.Is(err, redis.ErrClosed) {
		return false
	}
	var netErr net.Error
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		(errors.As(err, &netErr) && netErr.Timeout())
}

func (r *RedisRelay) handle(payload string) {
	var msg relayMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		r.logger.Warn("dropping malformed relay message", "error", err)
		return
	}
	if msg.Room == "" || (msg.Evict == 0 && (len(msg.Frame) == 0 || string(msg.Frame) == "null")) {
		r.logger.Warn("dropping incomplete relay message")
		return
	}
	r.apply(msg)
}

// apply acts on a message in this process only.
func (r *RedisRelay) apply(msg relayMessage) {
	if msg.Evict != 0 {
		r.hub.EvictUser(msg.Room, msg.Evict)
		return
	}
	r.hub.Deliver(msg.Room, msg.Frame)
}
