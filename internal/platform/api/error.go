// Package api holds the JSON envelopes shared by the HTTP handlers.
package api

import (
	"net/http"
)

// Envelope wraps every error body as {"error": {...}}.
type Envelope struct {
	Error Problem `json:"error"`
}

// Problem describes a failed request. Status is the HTTP status and is not serialized.
type Problem struct {
	Status    int            `json:"-"`
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

func (p Problem) Error() string {
	return p.Code + ": " + p.Message
}

// Fail writes p. A zero Status is sent as 500.
func Fail(w http.ResponseWriter, p Problem) {
	if p.Status == 0 {
		p.Status = http.StatusInternalServerError
	}
	WriteJSON(w, p.Status, Envelope{Error: p})
}

func BadRequest(w http.ResponseWriter, code, message, requestID string, details map[string]any) {
	Fail(w, Problem{Status: http.StatusBadRequest, Code: code, Message: message, RequestID: requestID, Details: details})
}

func Unauthorized(w http.ResponseWriter, code, message, requestID string) {
	Fail(w, Problem{Status: http.StatusUnauthorized, Code: code, Message: message, RequestID: requestID})
}

func Forbidden(w http.ResponseWriter, code, message, requestID string) {
	Fail(w, Problem{Status: http.StatusForbidden, Code: code, Message: message, RequestID: requestID})
}

func NotFound(w http.ResponseWriter, code, message, requestID string) {
	Fail(w, Problem{Status: http.StatusNotFound, Code: code, Message: message, RequestID: requestID})
}

func Conflict(w http.ResponseWriter, code, message, requestID string, details map[string]any) {
	Fail(w, Problem{Status: http.StatusConflict, Code: code, Message: message, RequestID: requestID, Details: details})
}

// Unprocessable reports input that was understood but rejected, with per-field details.
func Unprocessable(w http.ResponseWriter, code, message, requestID string, details map[string]any) {
	Fail(w, Problem{Status: http.StatusUnprocessableEntity, Code: code, Message: message, RequestID: requestID, Details: details})
}

func ServiceUnavailable(w http.ResponseWriter, code, message, requestID string) {
	Fail(w, Problem{Status: http.StatusServiceUnavailable, Code: code, Message: message, RequestID: requestID})
}

func Internal(w http.ResponseWriter, requestID string) {
	Fail(w, Problem{Code: "INTERNAL", Message: "Internal server error", RequestID: requestID})
}
