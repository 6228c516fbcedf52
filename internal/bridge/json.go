package bridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// CommandResponse is the body of a successful command. Commands without a
// value encode as {"result":null}.
type CommandResponse struct {
	Result any `json:"result"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON sends data with the given status. Encoding errors are logged only,
// since the status line is already on the wire.
func writeJSON(ctx context.Context, w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.ErrorContext(ctx, "failed to encode JSON response", "error", err)
	}
}

func writeResult(ctx context.Context, w http.ResponseWriter, result any) {
	writeJSON(ctx, w, CommandResponse{Result: result}, http.StatusOK)
}

func writeJSONError(ctx context.Context, w http.ResponseWriter, message string, status int) {
	writeJSON(ctx, w, ErrorResponse{Error: message}, status)
}
