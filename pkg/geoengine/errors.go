package geoengine

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/forest-carbon/internal/resilience"
)

// ErrUnauthorized matches any engine or token-endpoint rejection of the
// service-account credentials.
var ErrUnauthorized = eris.New("geoengine: unauthorized")

// APIError is a non-2xx response from the engine or the token endpoint.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("geoengine: %s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrUnauthorized) match credential rejections.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Unauthorized()
}

// Unauthorized reports whether the response rejected the credentials.
func (e *APIError) Unauthorized() bool {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return true
	}
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "invalid_grant") || strings.Contains(msg, "invalid jwt")
}

// engine errors look like {"error":{"code":500,"message":"...","status":"INTERNAL"}};
// the token endpoint uses {"error":"invalid_grant","error_description":"..."}.
type errorBody struct {
	Error            json.RawMessage `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

type engineError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func parseErrorMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Error) == 0 {
		return strings.TrimSpace(string(body))
	}

	var code string
	if err := json.Unmarshal(eb.Error, &code); err == nil {
		if eb.ErrorDescription != "" {
			return code + ": " + eb.ErrorDescription
		}
		return code
	}

	var ee engineError
	if err := json.Unmarshal(eb.Error, &ee); err == nil && ee.Message != "" {
		return ee.Message
	}
	return strings.TrimSpace(string(body))
}

// classify turns a failed response into the error returned to callers:
// credential rejections are permanent, retryable statuses are transient.
func classify(op string, status int, body []byte) error {
	apiErr := &APIError{Op: op, StatusCode: status, Message: parseErrorMessage(body)}
	switch {
	case apiErr.Unauthorized():
		return resilience.Permanent(apiErr)
	case resilience.IsTransientHTTPStatus(status):
		return resilience.NewTransientError(apiErr, status)
	default:
		return apiErr
	}
}
