// Package rabbitmq is the AMQP counterpart of the kafka input: snapshot
// messages consumed from a queue and published to the broker.
package rabbitmq

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"examboard-api/internal/broker"
	"examboard-api/internal/models"
)

type message struct {
	Room string          `json:"room"`
	Rows models.Snapshot `json:"rows"`
}

type Consumer struct {
	url    string
	queue  string
	broker *broker.Broker
}

func New(url, queue string, b *broker.Broker) *Consumer {
	return &Consumer{url: url, queue: queue, broker: b}
}

func (c *Consumer) Run(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	msgs, err := ch.Consume(c.queue, "", true, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-msgs:
			if !ok {
				return nil
			}
			var msg message
			if err := json.Unmarshal(m.Body, &msg); err != nil {
				log.Warn().Err(err).Msg("amqp decode")
				continue
			}
			if msg.Room == "" {
				msg.Room = "default"
			}
			c.broker.Publish(msg.Room, msg.Rows)
		}
	}
}
