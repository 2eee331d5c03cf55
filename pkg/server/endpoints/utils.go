package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/doodlesbykumbi/devicehub/pkg/store"
)

// ResponseInfo is the message envelope returned by write endpoints and
// by every error response.
type ResponseInfo struct {
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func newResponseInfo(message string, details interface{}) ResponseInfo {
	if details == nil {
		details = map[string]interface{}{}
	}
	return ResponseInfo{Message: message, Details: details}
}

func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	var details interface{}
	if err != nil {
		details = map[string]string{"error_text": err.Error()}
	}
	respondWithJSON(w, code, newResponseInfo(message, details))
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// statusFor maps store errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// parseID reads an optional unsigned id. An empty value is 0.
func parseID(raw string) (uint, error) {
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || id == 0 {
		return 0, errors.New("id must be a positive integer")
	}
	return uint(id), nil
}

func companyIDParam(r *http.Request) (uint, error) {
	return parseID(r.URL.Query().Get("company_id"))
}
