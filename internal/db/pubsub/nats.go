package pubsub

import (
	"context"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATS implements Client on a nats.Conn
type NATS struct {
	nc *nats.Conn
}

// NewNATS connects to NATS and returns the pubsub Client
func NewNATS(url string, options ...nats.Option) Client {
	nc, err := nats.Connect(url, options...)
	if err != nil {
		panic(err)
	}
	return &NATS{
		nc: nc,
	}
}

// Publish sends a message on the given topic. A cancelled context fails the
// publish before anything is handed to the connection.
func (n *NATS) Publish(ctx context.Context, topic string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.nc.Publish(topic, value)
}

// Subscribe delivers messages on the given topic to f until the context is
// cancelled
func (n *NATS) Subscribe(ctx context.Context, topic string, f func([]byte)) error {
	sub, err := n.nc.Subscribe(topic, func(m *nats.Msg) {
		log.Trace().Str("topic", topic).Str("data", string(m.Data)).Msg("message from NATS")
		f(m.Data)
	})
	if err != nil {
		return err
	}
	<-ctx.Done()
	_ = sub.Unsubscribe()
	return nil
}

// Close drains the connection so buffered publishes flush before shutdown
func (n *NATS) Close() {
	n.nc.Drain()
}
