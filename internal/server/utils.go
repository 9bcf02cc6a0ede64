package server

import (
	"encoding/json"
	"net/http"
)

// writeJSON encodes v as JSON and writes it to the response writer.
func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Error("failed to encode JSON response")
	}
}

// writeJSONError writes an error response as JSON with the given status code.
func (s *Server) writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	s.writeJSON(w, map[string]string{"error": message})
}

// writeJSONStatus writes a simple status response as JSON.
func (s *Server) writeJSONStatus(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	s.writeJSON(w, map[string]string{"status": status})
}
