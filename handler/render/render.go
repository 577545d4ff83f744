package render

import (
	"encoding/json"
	"net/http"

	"lever/core"
)

type H map[string]interface{}

// JSON render with json
func JSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	_ = json.NewEncoder(w).Encode(v)
}

// Error write error. Domain error codes ride along in the envelope.
func Error(w http.ResponseWriter, statusCode int, err error) {
	code := int(core.ErrUnknown)
	if ec, ok := err.(core.ErrorCode); ok {
		code = int(ec)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	_ = json.NewEncoder(w).Encode(H{"code": code, "msg": err.Error()})
}

// BadRequest bad request error
func BadRequest(w http.ResponseWriter, err error) {
	Error(w, http.StatusBadRequest, err)
}

// NotFoundRequest not found request error
func NotFoundRequest(w http.ResponseWriter, err error) {
	Error(w, http.StatusNotFound, err)
}
