package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"examboard-api/internal/broker"
	"examboard-api/internal/ingest"
	"examboard-api/internal/rank"
)

const pingInterval = 20 * time.Second

// SSE streams every snapshot published to the requested room as one
// server-sent event. The connection stays open until the client goes away;
// a write failure counts as a disconnect. With ?ranked=1 the rows are
// leaderboard-ordered before serialization, otherwise they arrive in
// source order and the client ranks locally.
func SSE(b *broker.Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "stream unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache, no-transform")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		room := ingest.Room(r)
		ranked := r.URL.Query().Get("ranked") != ""

		sub := b.Subscribe(room)
		defer b.Unsubscribe(sub)

		log.Debug().Str("room", room).Msg("stream open")

		// Opens the stream cleanly through browsers and proxies.
		_, _ = fmt.Fprint(w, ": connected\n\n")
		flusher.Flush()

		ping := time.NewTicker(pingInterval)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				log.Debug().Str("room", room).Msg("stream closed")
				return
			case <-ping.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				flusher.Flush()
			case snap, ok := <-sub.C():
				if !ok {
					return
				}
				if ranked {
					snap = rank.Sorted(snap)
				}
				payload, err := json.Marshal(snap)
				if err != nil {
					log.Error().Err(err).Str("room", room).Msg("encode snapshot")
					continue
				}
				if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
					log.Debug().Err(err).Str("room", room).Msg("stream write failed")
					return
				}
				flusher.Flush()
			}
		}
	}
}
