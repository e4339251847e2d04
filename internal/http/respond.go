package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

func writeJSON(logger *slog.Logger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", "error", err)
	}
}

// writeError answers validation failures with their messages and
// everything else with a bare status.
func writeError(logger *slog.Logger, w http.ResponseWriter, msg string, err error) {
	var verr ValidationError
	if errors.As(err, &verr) {
		writeJSON(logger, w, http.StatusBadRequest, map[string]any{"errors": verr})
		return
	}
	logger.Error(msg, "error", err)
	w.WriteHeader(http.StatusInternalServerError)
}
