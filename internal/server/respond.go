package server

import (
	"encoding/json"
	"net/http"
)

// Error codes used in the JSON error envelope.
const (
	codeBadRequest       = "BAD_REQUEST"
	codeUnauthorized     = "UNAUTHORIZED"
	codeNotFound         = "NOT_FOUND"
	codeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	codeConflict         = "CONFLICT"
	codeNotImplemented   = "NOT_IMPLEMENTED"
	codeInternalError    = "INTERNAL_ERROR"
)

// ErrorResponse is the JSON error envelope returned for every non-2xx
// response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries a stable machine-readable code and a human-readable
// message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// Encoding failures at this point can only be reported by the transport;
	// the status line has already been written.
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: ErrorBody{Code: code, Message: message},
	})
}
