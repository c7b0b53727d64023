package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	subjectPrefix     = "geoparty.sessions."
	natsMaxReconnects = -1
	natsReconnectWait = 2 * time.Second
)

// Bridge relays events between service instances over NATS. Publish sends
// to the session's subject; every instance, including the sender, delivers
// received events to its local Broker.
type Bridge struct {
	nc     *nats.Conn
	sub    *nats.Subscription
	broker *Broker
	logger *slog.Logger
}

// Dial connects to NATS and subscribes to all session subjects.
func Dial(url string, broker *Broker, logger *slog.Logger) (*Bridge, error) {
	nc, err := nats.Connect(url,
		nats.Name("geoparty"),
		nats.MaxReconnects(natsMaxReconnects),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	return NewBridge(nc, broker, logger)
}

// NewBridge wires an existing connection to broker.
func NewBridge(nc *nats.Conn, broker *Broker, logger *slog.Logger) (*Bridge, error) {
	b := &Bridge{nc: nc, broker: broker, logger: logger}

	sub, err := nc.Subscribe(subjectPrefix+"*", b.receive)
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s*: %w", subjectPrefix, err)
	}
	b.sub = sub
	return b, nil
}

func (b *Bridge) receive(msg *nats.Msg) {
	sessionID := strings.TrimPrefix(msg.Subject, subjectPrefix)
	b.broker.deliver(sessionID, msg.Data)
}

// Publish sends ev to every instance. On failure the event is still
// delivered locally.
func (b *Bridge) Publish(ev Event) {
	data, _ := json.Marshal(ev)
	if err := b.nc.Publish(subjectPrefix+ev.SessionID, data); err != nil {
		b.logger.Warn("publishing event to nats failed", "session_id", ev.SessionID, "error", err)
		b.broker.deliver(ev.SessionID, data)
	}
}

// Check reports whether the NATS connection is usable.
func (b *Bridge) Check(_ context.Context) error {
	if !b.nc.IsConnected() {
		return fmt.Errorf("nats status %s", b.nc.Status())
	}
	return nil
}

// Close drains the subscription and closes the connection.
func (b *Bridge) Close() error {
	if err := b.sub.Unsubscribe(); err != nil {
		b.logger.Warn("unsubscribing from nats failed", "error", err)
	}
	return b.nc.Drain()
}
