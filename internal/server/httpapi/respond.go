// Package httpapi exposes the services over HTTP JSON using gorilla/mux.
// Errors cross the boundary as status codes plus a small JSON body; the
// status is derived from the service sentinel and nothing else leaks.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/plume-im/plume/internal/api"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := api.StatusFromError(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(ctx, "request failed", "error", err)
		writeJSON(w, status, api.ErrorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, api.ErrorResponse{Error: err.Error()})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
