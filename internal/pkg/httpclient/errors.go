package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

func IsNotFoundErr(err error) bool {
	return IsStatusErr(err, http.StatusNotFound)
}

func IsConflictErr(err error) bool {
	return IsStatusErr(err, http.StatusConflict)
}

func IsAuthErr(err error) bool {
	return IsStatusErr(err, http.StatusUnauthorized) || IsStatusErr(err, http.StatusForbidden)
}

// IsStatusErr reports whether err is an *Error with the given status code.
func IsStatusErr(err error, statusCode int) bool {
	var e *Error
	return errors.As(err, &e) && e.StatusCode == statusCode
}

type Error struct {
	Method     string `json:"method"`
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
	Status     string `json:"status"`
	Body       []byte `json:"body"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s - %s with status %s", e.Method, e.URL, e.Status)
}
