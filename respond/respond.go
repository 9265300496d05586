// Package respond padroniza as respostas JSON (sucesso e erro) usadas pelos
// handlers e middlewares.
package respond

import (
	"encoding/json"
	"net/http"
)

// Tipos de erro expostos no corpo {"error": {"type": ...}}.
const (
	TypeInvalidRequest   = "invalid_request"
	TypeUnauthorized     = "unauthorized"
	TypeForbidden        = "forbidden"
	TypeNotFound         = "not_found"
	TypeMethodNotAllowed = "method_not_allowed"
	TypePayloadTooLarge  = "payload_too_large"
	TypeUnsupportedMedia = "unsupported_media_type"
	TypeParseFailed      = "parse_failed"
	TypeRateLimited      = "rate_limited"
	TypeFetchFailed      = "fetch_failed"
	TypeTimeout          = "timeout"
	TypeUnavailable      = "unavailable"
	TypeInternal         = "internal_error"
)

type ErrorDetail struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Status  int            `json:"status"`
	Details map[string]any `json:"details"`
}

type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Error(w http.ResponseWriter, status int, typ, msg string) {
	ErrorWithDetails(w, status, typ, msg, nil)
}

func ErrorWithDetails(w http.ResponseWriter, status int, typ, msg string, details map[string]any) {
	JSON(w, status, ErrorBody{Error: ErrorDetail{
		Type:    typ,
		Message: msg,
		Status:  status,
		Details: details,
	}})
}
