package handlers

import (
	"encoding/json"
	"net/http"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondError writes a structured error payload carrying the failing
// condition category.
func respondError(w http.ResponseWriter, status int, category string) {
	respondJSON(w, status, map[string]string{"error": category})
}
