package respond

import (
	"bytes"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// ErrorBody is the flat error object every failing endpoint returns.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSON writes payload as the response body with the given status. A payload
// that cannot be encoded turns into a 500 with an error body.
func JSON(w http.ResponseWriter, status int, payload any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		zap.L().Error("respond: encode payload failed", zap.Error(err))
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(ErrorBody{Error: "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		zap.L().Warn("respond: write body failed", zap.Error(err))
	}
}

// Error writes {"error": message} with the given status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}

// Decode reads a JSON request body into v.
func Decode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
