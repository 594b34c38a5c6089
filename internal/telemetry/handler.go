// Package telemetry accepts error reports from the leaderboard UI and the
// scraper script. Reports are logged, never stored; anything that looks
// like a credential is masked first.
package telemetry

import (
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"
)

type Report struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Room    string            `json:"room"`
	Tags    map[string]string `json:"tags"`
	TS      time.Time         `json:"ts"`
}

var re = regexp.MustCompile(`(?i)(bearer\s+[A-Za-z0-9._-]+|api[-_]?key\s*[=:]\s*[A-Za-z0-9._-]+|token\s*[=:]\s*[A-Za-z0-9._-]+)`)

func mask(s string) string { return re.ReplaceAllString(s, "***redacted***") }

func Handle(w http.ResponseWriter, r *http.Request) {
	var rep Report
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rep); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	rep.Message = mask(rep.Message)
	for k, v := range rep.Tags {
		rep.Tags[k] = mask(v)
	}
	if rep.TS.IsZero() {
		rep.TS = time.Now().UTC()
	}

	log.Warn().
		Str("type", rep.Type).
		Str("room", rep.Room).
		Str("message", rep.Message).
		Time("client_ts", rep.TS).
		Msg("client report")

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
}
