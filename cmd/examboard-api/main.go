package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"examboard-api/internal/broker"
	"examboard-api/internal/config"
	httpx "examboard-api/internal/http"
	"examboard-api/internal/input/kafka"
	"examboard-api/internal/input/rabbitmq"
	"examboard-api/internal/roster"
	"examboard-api/internal/stream"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	cfg := config.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := broker.NewBuffered(cfg.StreamBuffer)
	rosterH := roster.NewHandler(roster.New(cfg.RosterPath))

	if cfg.MockEnabled {
		gen := &stream.Generator{Broker: b, Room: cfg.MockRoom}
		go gen.Run(ctx)
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) > 0 {
		c := kafka.New(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroup, b)
		go func() {
			if err := c.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("kafka input")
			}
		}()
	}
	if cfg.AmqpEnabled {
		c := rabbitmq.New(cfg.AmqpURL, cfg.AmqpQueue, b)
		go func() {
			if err := c.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("amqp input")
			}
		}()
	}

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: httpx.Router(cfg, b, rosterH)}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("roster", cfg.RosterPath).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	<-ctx.Done()
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdown)
}
