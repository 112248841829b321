package handlers

import (
	"encoding/json"
	"net/http"
)

// maxBodyBytes caps request bodies. Host lookup batches stay far below
// this; anything larger is a misbehaving client.
const maxBodyBytes = 1 << 20

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type successBody struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSONResponse writes v as JSON with the given status code
func JSONResponse(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// ErrorResponse writes a JSON error envelope. err may be nil when the
// message alone says enough.
func ErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	body := errorBody{Error: message}
	if err != nil {
		body.Details = err.Error()
	}
	JSONResponse(w, statusCode, body)
}

// SuccessResponse writes a JSON success envelope with an optional payload
func SuccessResponse(w http.ResponseWriter, message string, data any) {
	JSONResponse(w, http.StatusOK, successBody{Message: message, Data: data})
}

// DecodeJSON decodes a request body into v, refusing bodies larger than
// maxBodyBytes.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
