// Package nats carries the change feed over core NATS subjects.
package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/jwalitptl/maintenance-desk/pkg/logger"
	"github.com/jwalitptl/maintenance-desk/pkg/messaging"
)

type Config struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
}

type NATSBroker struct {
	conn   *nats.Conn
	logger *logger.Logger
}

func NewNATSBroker(config Config, logger *logger.Logger) (messaging.Broker, error) {
	conn, err := nats.Connect(config.URL,
		nats.Name(config.Name),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, "NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATSBroker{conn: conn, logger: logger}, nil
}

func (b *NATSBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	payload, err := messaging.Encode(message)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return b.conn.Publish(channel, payload)
}

func (b *NATSBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	incoming := make(chan *nats.Msg, 100)
	sub, err := b.conn.ChanSubscribe(channel, incoming)
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", channel, err)
	}
	// Flush so the server has registered the interest before we return.
	if err := b.conn.FlushWithContext(ctx); err != nil {
		sub.Unsubscribe()
		return nil, fmt.Errorf("subscribe to %s: %w", channel, err)
	}

	msgChan := make(chan []byte, 100)
	go func() {
		defer close(msgChan)
		defer func() {
			if err := sub.Unsubscribe(); err != nil && err != nats.ErrConnectionClosed {
				b.logger.Error(err, "Failed to unsubscribe", "subject", channel)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-incoming:
				select {
				case msgChan <- msg.Data:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return msgChan, nil
}

func (b *NATSBroker) Close() error {
	return b.conn.Drain()
}
