package api

import (
	"encoding/json"
	"errors"
	"net/http"

	pderr "github.com/amterp/postdeck/internal/errors"
)

const (
	HCType    = "Content-Type"
	CTypeHTML = "text/html; charset=utf-8"
	CTypeJSON = "application/json"
	CTypeCSS  = "text/css; charset=utf-8"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set(HCType, CTypeJSON)
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error writes an error response, mapping domain errors to HTTP status codes.
func Error(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	var notFound *pderr.NotFoundError
	var validation *pderr.ValidationError

	switch {
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &validation):
		status = http.StatusBadRequest
	default:
		message = "internal error"
	}

	JSON(w, status, map[string]string{"error": message})
}

// BadRequest writes a 400 error with the given message.
func BadRequest(w http.ResponseWriter, message string) {
	JSON(w, http.StatusBadRequest, map[string]string{"error": message})
}

// NoContent writes a bare 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
