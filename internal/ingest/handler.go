package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"examboard-api/internal/broker"
	"examboard-api/internal/models"
)

type response struct {
	Message   string          `json:"message"`
	RowsCount int             `json:"rowsCount"`
	Data      models.Snapshot `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// envelope is the body shape posted by the copy-paste scraper script; plain
// clients post the markup directly.
type envelope struct {
	HTML string `json:"html"`
}

// Handler processes a scraped attempts table: normalize, publish the full
// snapshot to the room's subscribers, echo the rows to the caller. Each
// call is stateless; concurrent posts to one room resolve as
// last-publish-wins at the broker.
func Handler(b *broker.Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "Request body too large"})
				return
			}
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
			return
		}
		if len(bytes.TrimSpace(body)) == 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No HTML content provided"})
			return
		}

		markup := body
		if bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
			var env envelope
			if err := json.Unmarshal(body, &env); err == nil && env.HTML != "" {
				markup = []byte(env.HTML)
			}
		}

		snapshot, err := Parse(bytes.NewReader(markup))
		if err != nil {
			if errors.Is(err, ErrNoTable) {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Ignored: No table element found in the provided HTML."})
				return
			}
			log.Error().Err(err).Msg("ingest parse")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
			return
		}

		room := Room(r)
		b.Publish(room, snapshot)
		log.Info().Str("room", room).Int("rows", len(snapshot)).Msg("snapshot published")

		writeJSON(w, http.StatusOK, response{
			Message:   "Successfully processed HTML table",
			RowsCount: len(snapshot),
			Data:      snapshot,
		})
	}
}

// Room resolves the target room from the request query, defaulting to
// "default". Room names are opaque; nothing beyond URL decoding is applied.
func Room(r *http.Request) string {
	if room := r.URL.Query().Get("room"); room != "" {
		return room
	}
	return "default"
}
