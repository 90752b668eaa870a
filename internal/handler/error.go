// Package handler contains HTTP handlers for the report lifecycle API.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/civicdesk/civicdesk/internal/domain"
)

// ErrorResponse writes a JSON error response, mapping domain error codes to
// HTTP status codes. Guard rejections additionally expose their stable
// reason code so clients can branch without parsing messages.
func ErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := domain.ErrorCode(err)
	message := domain.ErrorMessage(err)
	reason := domain.ErrorReason(err)
	status := ErrorCodeToHTTPStatus(code)

	logError(logger, r, err, code, status)

	body := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
	if reason != "" {
		body["error"].(map[string]any)["reason"] = reason
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized // 401
	case domain.EFORBIDDEN:
		return http.StatusForbidden // 403
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.ECONFLICT:
		return http.StatusConflict // 409
	case domain.EINTERNAL:
		return http.StatusInternalServerError // 500
	default:
		return http.StatusInternalServerError // 500
	}
}

// logError logs the error with request context at a level matching severity.
func logError(logger *slog.Logger, r *http.Request, err error, code string, status int) {
	attrs := []any{
		"error", err.Error(),
		"code", code,
		"status", status,
		"method", r.Method,
		"path", r.URL.Path,
	}
	if status >= 500 {
		logger.Error("request failed", attrs...)
	} else {
		logger.Info("request rejected", attrs...)
	}
}
