package diarysdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/carelog/carediary/pkg/httpx"
)

// APIError is the decoded error envelope of a non-2xx response. It implements
// the error interface and is used on both sides of the wire: handlers write
// it, the SDK client returns it.
type APIError struct {
	// StatusCode is the HTTP status the error was delivered with.
	StatusCode int `json:"-"`

	// Code is the stable machine-readable error code.
	Code string `json:"error"`

	// Description is a human-readable description of the error.
	Description string `json:"error_description,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Success:          false,
		Error:            e.Code,
		ErrorDescription: e.Description,
	})
}

// NewAPIError builds an APIError for handlers to write.
func NewAPIError(status int, code, description string) *APIError {
	return &APIError{StatusCode: status, Code: code, Description: description}
}
