// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/seatcast/internal/metrics"
	"github.com/tomtom215/seatcast/internal/resilience"
)

// ErrClosed is returned by a closed bus.
var ErrClosed = errors.New("event bus is closed")

// Config configures the bus transport.
type Config struct {
	// URL is the NATS server URL. Empty selects the in-process transport.
	URL string

	// MaxReconnects is the NATS reconnect limit (-1 for unlimited).
	MaxReconnects int

	// ReconnectWait is the delay between NATS reconnect attempts.
	ReconnectWait time.Duration

	// BufferSize is the per-subscriber channel buffer of the in-process
	// transport.
	BufferSize int64
}

// Bus publishes and subscribes to run events.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	breaker    *gobreaker.CircuitBreaker[any]
	logger     zerolog.Logger
	transport  string

	mu     sync.RWMutex
	closed bool
}

// NewBus creates a bus on the configured transport.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBus(cfg Config, logger zerolog.Logger) (*Bus, error) {
	logger = logger.With().Str("component", "events").Logger()
	wmLogger := NewZerologAdapter(logger)

	if cfg.URL == "" {
		if cfg.BufferSize <= 0 {
			cfg.BufferSize = 64
		}
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: cfg.BufferSize}, wmLogger)
		return &Bus{
			publisher:  ch,
			subscriber: ch,
			breaker:    resilience.NewCircuitBreaker[any](resilience.DefaultBreakerConfig("events"), logger),
			logger:     logger,
			transport:  "gochannel",
		}, nil
	}

	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = -1
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	natsOpts := []natsgo.Option{
		natsgo.Name("seatcast"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				wmLogger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			wmLogger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:            cfg.URL,
		CloseTimeout:   5 * time.Second,
		AckWaitTimeout: 5 * time.Second,
		NatsOptions:    natsOpts,
		Unmarshaler:    &wmNats.NATSMarshaler{},
		JetStream:      wmNats.JetStreamConfig{Disabled: true},
	}, wmLogger)
	if err != nil {
		_ = pub.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("create NATS subscriber: %w", err)
	}

	return &Bus{
		publisher:  pub,
		subscriber: sub,
		breaker:    resilience.NewCircuitBreaker[any](resilience.DefaultBreakerConfig("events"), logger),
		logger:     logger,
		transport:  "nats",
	}, nil
}

// Transport names the active transport.
func (b *Bus) Transport() string { return b.transport }

// Publish sends a run event on its topic.
func (b *Bus) Publish(ctx context.Context, event *RunEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	if err := event.Validate(); err != nil {
		return err
	}

	payload, err := event.Encode()
	if err != nil {
		return fmt.Errorf("encode run event: %w", err)
	}
	msg := message.NewMessage(event.EventID, payload)
	msg.Metadata.Set("run_id", event.RunID)
	msg.Metadata.Set("trigger", event.Trigger)
	msg.SetContext(ctx)

	_, err = b.breaker.Execute(func() (any, error) {
		return nil, b.publisher.Publish(event.Topic, msg)
	})
	metrics.RecordEventPublished(event.Topic, err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Topic, err)
	}
	return nil
}

// Subscribe returns decoded events for every run topic until ctx is
// cancelled. Undecodable messages are acknowledged and dropped.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *RunEvent, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrClosed
	}

	out := make(chan *RunEvent, 16)
	var wg sync.WaitGroup
	for _, topic := range RunTopics {
		messages, err := b.subscriber.Subscribe(ctx, topic)
		if err != nil {
			return nil, fmt.Errorf("subscribe %s: %w", topic, err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.forward(ctx, messages, out)
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out, nil
}

func (b *Bus) forward(ctx context.Context, messages <-chan *message.Message, out chan<- *RunEvent) {
	for msg := range messages {
		event, err := DecodeRunEvent(msg.Payload)
		msg.Ack()
		if err != nil {
			b.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("dropping undecodable run event")
			continue
		}
		select {
		case out <- event:
		case <-ctx.Done():
			return
		}
	}
}

// Close shuts down the transport. It is safe to call more than once.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, err)
	}
	if b.transport != "gochannel" {
		if err := b.subscriber.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
