package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel flags are broadcast on.
const DefaultChannel = "parley:flags"

// ErrEmptyFlag is returned when publishing a blank flag name.
var ErrEmptyFlag = errors.New("flag name is empty")

// FlagBus broadcasts flag names between processes over Redis pub/sub.
// It implements ports.FlagPublisher.
type FlagBus struct {
	client  *backend.Client
	channel string
	logger  *slog.Logger
}

// BusOption configures a FlagBus.
type BusOption func(*FlagBus)

// WithChannel overrides the pub/sub channel.
func WithChannel(channel string) BusOption {
	return func(b *FlagBus) {
		b.channel = channel
	}
}

// WithLogger sets the logger for the bus.
func WithLogger(logger *slog.Logger) BusOption {
	return func(b *FlagBus) {
		b.logger = logger
	}
}

var _ ports.FlagPublisher = (*FlagBus)(nil)

// NewFlagBus creates a bus on top of an existing client.
func NewFlagBus(client *backend.Client, opts ...BusOption) *FlagBus {
	b := &FlagBus{
		client:  client,
		channel: DefaultChannel,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish broadcasts a flag name to every subscriber.
func (b *FlagBus) Publish(ctx context.Context, flag string) error {
	flag = strings.TrimSpace(flag)
	if flag == "" {
		return ErrEmptyFlag
	}
	if err := b.client.Publish(ctx, b.channel, flag).Err(); err != nil {
		return fmt.Errorf("redis error publishing flag: %w", err)
	}
	return nil
}

// Subscription is an active flag subscription.
type Subscription struct {
	pubsub *backend.PubSub
	done   chan struct{}
	once   sync.Once
}

// Subscribe forwards every broadcast flag name to sink.
// It returns once Redis has confirmed the subscription. The sink runs on the
// subscription goroutine.
func (b *FlagBus) Subscribe(ctx context.Context, sink ports.FlagSink) (*Subscription, error) {
	ps := b.client.Subscribe(ctx, b.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis error subscribing to %s: %w", b.channel, err)
	}

	s := &Subscription{pubsub: ps, done: make(chan struct{})}
	ch := ps.Channel()
	go func() {
		defer close(s.done)
		for {
			select {
			case <-ctx.Done():
				_ = s.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				b.logger.Debug("flag received", "flag", msg.Payload, "channel", msg.Channel)
				sink(msg.Payload)
			}
		}
	}()
	return s, nil
}

// Close stops the subscription. It is safe to call more than once.
func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		err = s.pubsub.Close()
	})
	return err
}

// Done is closed once the forwarding goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}
