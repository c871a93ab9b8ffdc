package httpapi

import (
	"errors"
	"net/http"

	"github.com/slackmgr/todos"
)

var errMalformedBody = errors.New("request body must be a JSON object")

// MapHTTPStatus converts core errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch todos.KindOf(err) {
	case todos.KindInvalidRequest:
		return http.StatusBadRequest
	case todos.KindItemNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func publicMessage(status int, err error) string {
	switch status {
	case http.StatusBadRequest:
		return err.Error()
	case http.StatusNotFound:
		return "item not found"
	default:
		return "internal server error"
	}
}
