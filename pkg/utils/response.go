package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"statusdeck/pkg/apperror"

	"github.com/rs/zerolog/log"
)

// SuccessResponse is the envelope every 2xx reply travels in.
type SuccessResponse[T any] struct {
	Success   bool   `json:"success"`
	RequestID string `json:"request_id"`
	Message   string `json:"message"`
	Data      T      `json:"data,omitempty"`
}

// ErrorBody carries the error kind, not the HTTP code.
type ErrorBody struct {
	Kind    apperror.Kind `json:"kind"`
	Message string        `json:"message,omitempty"`
}

type ErrorResponse struct {
	Success   bool      `json:"success"`
	RequestID string    `json:"request_id"`
	Error     ErrorBody `json:"error"`
}

func WriteJSON[T any](w http.ResponseWriter, status int, reqID string, message string, data T) {
	writeBody(w, status, SuccessResponse[T]{
		Success:   true,
		RequestID: reqID,
		Message:   message,
		Data:      data,
	})
}

func WriteError(w http.ResponseWriter, httpStatus int, reqID string, kind apperror.Kind, message string) {
	writeBody(w, httpStatus, ErrorResponse{
		Success:   false,
		RequestID: reqID,
		Error:     ErrorBody{Kind: kind, Message: message},
	})
}

// FromAppError translates a service error into its HTTP shape. Errors
// that are not apperror values leak no detail to the client.
func FromAppError(w http.ResponseWriter, reqID string, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		WriteError(w, http.StatusInternalServerError, reqID, apperror.Internal, "internal server error")
		return
	}

	WriteError(w, apperror.GetHTTPStatus(appErr.Kind), reqID, appErr.Kind, appErr.Message)
}

func writeBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response body")
	}
}
