package middleware

import (
	"encoding/json"
	"net/http"
)

// errorJSON answers with the {"error": msg} body the API uses for every
// failure.
func errorJSON(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
