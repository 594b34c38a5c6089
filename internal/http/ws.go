package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"examboard-api/internal/broker"
	"examboard-api/internal/ingest"
	"examboard-api/internal/rank"
)

// WS is the WebSocket twin of the SSE stream: same room scoping, same
// snapshot-per-message delivery, for clients that cannot hold an
// EventSource open (the tampermonkey-style scraper console, mostly).
func WS(allowedOrigins []string, b *broker.Broker) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" { // CLI/servers
				return true
			}
			for _, o := range allowedOrigins {
				o = strings.TrimSpace(o)
				if o == "*" || strings.EqualFold(o, origin) {
					return true
				}
			}
			return false
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		conn.SetReadLimit(1)

		room := ingest.Room(r)
		ranked := r.URL.Query().Get("ranked") != ""

		sub := b.Subscribe(room)
		defer b.Unsubscribe(sub)

		tick := time.NewTicker(15 * time.Second)
		defer tick.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-tick.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
					return
				}
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
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					return
				}
			}
		}
	}
}
