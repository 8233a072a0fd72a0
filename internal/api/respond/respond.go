// Package respond provides JSON response helpers shared by all handlers.
package respond

import (
	"encoding/json"
	"net/http"
)

// WriteJSONObject writes v as a JSON response with the given status.
func WriteJSONObject(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteRaw writes pre-encoded JSON bytes.
func WriteRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// WriteError writes a {"error": message} response.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSONObject(w, status, map[string]string{"error": message})
}
