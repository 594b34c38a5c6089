// Package kafka feeds the broker from a Kafka topic, for deployments where
// the scraper publishes snapshots through a queue instead of posting HTML
// to the API directly.
package kafka

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"examboard-api/internal/broker"
	"examboard-api/internal/models"
)

type message struct {
	Room string          `json:"room"`
	Rows models.Snapshot `json:"rows"`
}

type Consumer struct {
	reader *kafka.Reader
	broker *broker.Broker
}

func New(brokers []string, topic, group string, b *broker.Broker) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  group,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: r, broker: b}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}
		var msg message
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			log.Warn().Err(err).Msg("kafka decode")
			continue
		}
		if msg.Room == "" {
			msg.Room = "default"
		}
		c.broker.Publish(msg.Room, msg.Rows)
	}
}
