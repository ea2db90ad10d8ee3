// Package response writes the JSON envelopes every endpoint answers with:
// {"data": ...} on success, {"error": "..."} on failure and {"message": "..."} for
// plain notices.
package response

import (
	"encoding/json"
	"errors"
	"marina/shared/constant"
	"marina/shared/failure"
	"marina/shared/logger"
	"net/http"
)

type envelope struct {
	Data    any     `json:"data,omitempty"`
	Error   *string `json:"error,omitempty"`
	Message *string `json:"message,omitempty"`
}

func WithMessage(writer http.ResponseWriter, code int, message string) {
	write(writer, code, envelope{Message: &message})
}

func WithJSON(writer http.ResponseWriter, code int, payload any) {
	write(writer, code, envelope{Data: payload})
}

// WithError answers with the status and message of the Failure in err. Anything
// else is hidden behind a generic 500 so storage details never reach the client.
func WithError(writer http.ResponseWriter, err error) {
	code, msg := http.StatusInternalServerError, constant.ResponseErrorInternal

	var fail *failure.Failure
	if errors.As(err, &fail) {
		code, msg = fail.Code, fail.Message
	}

	write(writer, code, envelope{Error: &msg})
}

func WithRequestLimitExceeded(writer http.ResponseWriter) {
	WithMessage(writer, http.StatusTooManyRequests, constant.ResponseErrorRequestLimitExceeded)
}

func WithPreparingShutdown(writer http.ResponseWriter) {
	WithMessage(writer, http.StatusServiceUnavailable, constant.ResponseErrorPrepareShutdown)
}

func WithUnhealthy(writer http.ResponseWriter) {
	WithMessage(writer, http.StatusServiceUnavailable, constant.ResponseErrorUnhealthy)
}

func write(writer http.ResponseWriter, code int, body envelope) {
	writer.Header().Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)
	writer.WriteHeader(code)

	if err := json.NewEncoder(writer).Encode(body); err != nil {
		logger.ErrorWithStack(err)
	}
}
