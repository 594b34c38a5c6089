package roster

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"examboard-api/internal/models"
)

// Seat is one randomized seat assignment.
type Seat struct {
	Seat    int         `json:"seat"`
	Student *models.Row `json:"student"`
}

// Assign shuffles the students of one class into numbered seats. An empty
// class selects the whole roster.
func Assign(rows []*models.Row, class string, rng *rand.Rand) []Seat {
	var picked []*models.Row
	for _, row := range rows {
		if class == "" || Class(row) == class {
			picked = append(picked, row)
		}
	}

	shuffled := make([]*models.Row, len(picked))
	copy(shuffled, picked)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	seats := make([]Seat, len(shuffled))
	for i, row := range shuffled {
		seats[i] = Seat{Seat: i + 1, Student: row}
	}
	return seats
}

// Handler serves the roster endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// List answers GET /api/sheets with the configured course ids.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ids, err := h.svc.Sources()
	if err != nil {
		log.Error().Err(err).Msg("roster sources")
		writeError(w, http.StatusInternalServerError, "failed to read sheet sources")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sheets": ids})
}

// Sheet answers GET /api/sheets/{id} with the parsed roster.
func (h *Handler) Sheet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rows, err := h.svc.Fetch(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrUnknownSheet) {
			writeError(w, http.StatusNotFound, "unknown sheet id")
			return
		}
		log.Error().Err(err).Str("sheet", id).Msg("roster fetch")
		writeError(w, http.StatusBadGateway, "failed to fetch sheet data")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(rows),
		"classes": Classes(rows),
		"data":    rows,
	})
}

// Seating answers GET /api/sheets/{id}/seating?class=&seed= with a
// randomized seat assignment. A seed makes the shuffle reproducible so the
// projected chart can be regenerated mid-exam.
func (h *Handler) Seating(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rows, err := h.svc.Fetch(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrUnknownSheet) {
			writeError(w, http.StatusNotFound, "unknown sheet id")
			return
		}
		log.Error().Err(err).Str("sheet", id).Msg("roster fetch")
		writeError(w, http.StatusBadGateway, "failed to fetch sheet data")
		return
	}

	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	if s := r.URL.Query().Get("seed"); s != "" {
		if seed, err := strconv.ParseUint(s, 10, 64); err == nil {
			rng = rand.New(rand.NewPCG(seed, seed))
		}
	}

	class := r.URL.Query().Get("class")
	seats := Assign(rows, class, rng)
	writeJSON(w, http.StatusOK, map[string]any{
		"class": class,
		"count": len(seats),
		"seats": seats,
	})
}
