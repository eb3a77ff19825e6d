package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomotos141/dental-x-ray-navigatar/internal/platform/db"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/platform/websocket"
)

// HubPublisher pushes each change to websocket subscribers of the collection.
type HubPublisher struct {
	pub websocket.EventPublisher
}

func NewHubPublisher(pub websocket.EventPublisher) *HubPublisher {
	return &HubPublisher{pub: pub}
}

func (p *HubPublisher) Publish(ctx context.Context, ch Change) error {
	data, err := json.Marshal(ch.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return p.pub.Publish(ctx, websocket.Event{
		Type:       websocket.EventSnapshot,
		Topic:      ch.Collection,
		ResourceID: ch.ID,
		Action:     string(ch.Action),
		Timestamp:  ch.At,
		Data:       data,
	})
}

// natsMessage is the payload on <prefix>.<collection>.changed. Other services
// reload what they need; the snapshot itself is not shipped over the bus.
type natsMessage struct {
	Collection string    `json:"collection"`
	ID         string    `json:"id,omitempty"`
	Action     Action    `json:"action"`
	Count      int       `json:"count"`
	At         time.Time `json:"at"`
}

// Conn is the subset of *nats.Conn used for publishing.
type Conn interface {
	Publish(subject string, data []byte) error
}

type NATSPublisher struct {
	conn   Conn
	prefix string
}

func NewNATSPublisher(conn Conn, prefix string) *NATSPublisher {
	if prefix == "" {
		prefix = "dentx"
	}
	return &NATSPublisher{conn: conn, prefix: prefix}
}

// Subject returns the subject a collection's changes are published on.
func (p *NATSPublisher) Subject(collection string) string {
	return p.prefix + "." + collection + ".changed"
}

func (p *NATSPublisher) Publish(ctx context.Context, ch Change) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	data, err := json.Marshal(natsMessage{
		Collection: ch.Collection,
		ID:         ch.ID,
		Action:     ch.Action,
		Count:      snapshotLen(ch.Snapshot),
		At:         ch.At,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return p.conn.Publish(p.Subject(ch.Collection), data)
}

func snapshotLen(snapshot interface{}) int {
	v := reflect.ValueOf(snapshot)
	if v.Kind() != reflect.Slice {
		return 0
	}
	return v.Len()
}

// ConnectNATS dials the bus with reconnect handling logged through logger.
func ConnectNATS(url string, logger zerolog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("dentx-server"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return nc, nil
}

// NATSHealth reports the bus connection on the health endpoint.
func NATSHealth(nc *nats.Conn) db.Component {
	return db.Component{
		Name: "nats",
		Check: func(context.Context) error {
			if !nc.IsConnected() {
				return errors.New(nc.Status().String())
			}
			return nil
		},
	}
}
