package apperror

import "net/http"

// GetHTTPStatus maps an error kind to the response status it travels as.
func GetHTTPStatus(kind Kind) int {
	switch kind {
	case InvalidInput:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case AlreadyExists, Conflict:
		return http.StatusConflict
	case RequestTimeout:
		return http.StatusGatewayTimeout
	case Internal, DatabaseErr:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
