// Package rest implements the HTTP handlers. Every response, success or
// failure, uses the same JSON envelope.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel"

	"github.com/plefebvre/task-api/internal"
)

// envelope is the uniform response wrapper.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Count   *int        `json:"count,omitempty"`
}

func renderData(w http.ResponseWriter, status int, data interface{}) {
	renderResponse(w, envelope{Success: true, Data: data}, status)
}

func renderMessage(w http.ResponseWriter, status int, msg string, data interface{}) {
	renderResponse(w, envelope{Success: true, Message: msg, Data: data}, status)
}

func renderList(w http.ResponseWriter, data interface{}, count int) {
	renderResponse(w, envelope{Success: true, Data: data, Count: &count}, http.StatusOK)
}

func renderErrorResponse(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	var ierr *internal.Error
	if errors.As(err, &ierr) {
		switch ierr.Code() {
		case internal.ErrorCodeNotFound:
			status = http.StatusNotFound
		case internal.ErrorCodeInvalidArgument:
			status = http.StatusBadRequest
		case internal.ErrorCodeConflict:
			status = http.StatusConflict
		case internal.ErrorCodeUnauthorized:
			status = http.StatusUnauthorized
		}

		if status != http.StatusInternalServerError {
			msg = ierr.Error()
		}
	}

	if err != nil {
		_, span := otel.Tracer("rest").Start(ctx, "rest.renderErrorResponse")
		defer span.End()

		span.RecordError(err)
	}

	renderResponse(w, envelope{Success: false, Message: msg}, status)
}

func renderResponse(w http.ResponseWriter, res interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")

	content, err := json.Marshal(res)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(content); err != nil { //nolint: staticcheck
		// Nothing sensible left to do, headers are already out.
	}
}
