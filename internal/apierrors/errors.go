package apierrors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// ErrorResponse is the canonical error envelope returned by the tracker API.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// ToStatusCode maps a domain specific error code to an HTTP status for default responses.
func ToStatusCode(code string) int {
	switch code {
	case "not_found":
		return http.StatusNotFound
	case "unauthorized":
		return http.StatusUnauthorized
	case "forbidden":
		return http.StatusForbidden
	case "conflict":
		return http.StatusConflict
	case "bad_request":
		return http.StatusBadRequest
	case "bad_gateway":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Write renders the envelope for the given code, tagging it with the request id when present.
func Write(w http.ResponseWriter, r *http.Request, code, message string) {
	resp := ErrorResponse{Code: code, Message: message}
	if r != nil {
		resp.RequestID = middleware.GetReqID(r.Context())
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ToStatusCode(code))
	_ = json.NewEncoder(w).Encode(resp)
}
