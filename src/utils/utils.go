package utils

import (
	"encoding/json"
	"net/http"
)

// JSONErrorResponse is the envelope used for every error reply.
type JSONErrorResponse struct {
	Error string `json:"error"`
}

// SendJSONError writes a JSON error body with the given status code.
func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(JSONErrorResponse{Error: message})
}
