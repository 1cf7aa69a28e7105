// Package response defines the JSON envelope every endpoint answers with.
package response

import (
	"net/http"

	"gamelibrary/internal/apperror"
)

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`
	StatusCode int         `json:"status_code"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Success wraps data in a success envelope.
func Success(statusCode int, data interface{}) Response {
	return Response{Status: StatusSuccess, StatusCode: statusCode, Data: data}
}

// Error wraps a client-facing message in an error envelope.
func Error(statusCode int, msg string) Response {
	return Response{Status: StatusError, StatusCode: statusCode, Error: msg}
}

// OK and Created return the status together with the envelope, ready for gin's c.JSON.
func OK(data interface{}) (int, Response) {
	return http.StatusOK, Success(http.StatusOK, data)
}

func Created(data interface{}) (int, Response) {
	return http.StatusCreated, Success(http.StatusCreated, data)
}

// FromError maps err to its status code and error envelope. Internal detail never leaves the server.
func FromError(err error) (int, Response) {
	status := apperror.HTTPStatus(err)
	return status, Error(status, apperror.PublicMessage(err))
}
