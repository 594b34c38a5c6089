package httpx

import (
	"encoding/json"
	"net/http"
)

type Error struct {
	Message string `json:"error"`
}

// WriteError emits the API's {"error": ...} envelope.
func WriteError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Error{Message: msg})
}
