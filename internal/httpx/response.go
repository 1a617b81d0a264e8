// Package httpx holds the JSON response helpers shared by the handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxBodyBytes bounds request bodies read by DecodeJSON.
const maxBodyBytes = 1 << 20

// Envelope is the response shape used by the account endpoints.
type Envelope struct {
	StatusCode int      `json:"statusCode"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
	Result     any      `json:"result,omitempty"`
}

// ErrorBody is the response shape for catalog and middleware errors.
type ErrorBody struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": msg}.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorBody{Error: msg})
}

// WriteOK writes a successful envelope.
func WriteOK(w http.ResponseWriter, result any) {
	WriteJSON(w, http.StatusOK, Envelope{StatusCode: http.StatusOK, Success: true, Errors: []string{}, Result: result})
}

// WriteFailure writes a failed envelope carrying msgs.
func WriteFailure(w http.ResponseWriter, status int, msgs ...string) {
	if msgs == nil {
		msgs = []string{}
	}
	WriteJSON(w, status, Envelope{StatusCode: status, Success: false, Errors: msgs})
}

// DecodeJSON reads a single JSON object from the request body into dst.
// Unknown fields are ignored.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
