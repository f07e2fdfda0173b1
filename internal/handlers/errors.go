package handlers

import (
	"errors"
	"net/http"

	"taskManager/internal/logger"
	"taskManager/internal/service"

	"go.uber.org/zap"
)

func handleBusinessError(w http.ResponseWriter, err error, defaultMessage string) bool {
	var businessErr *service.BusinessError
	if errors.As(err, &businessErr) {
		statusCode := mapBusinessErrorToHTTP(businessErr.Code)

		logger.Warn("HTTP: Бизнес-ошибка",
			zap.String("error_code", businessErr.Code),
			zap.Int("http_status", statusCode))

		responseWithFields(w, statusCode,
			toPayload("error", businessErr.Code),
			toPayload("message", businessErr.Message),
			toPayload("details", businessErr.Details),
		)
		return true
	}
	return false
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case "NOT_FOUND":
		return http.StatusNotFound
	case "VALIDATION_ERROR":
		return http.StatusBadRequest
	case "VERSION_CONFLICT", "ALREADY_EXISTS":
		return http.StatusConflict
	case "FORBIDDEN":
		return http.StatusForbidden
	case "UNAUTHORIZED", "INVALID_CREDENTIALS":
		return http.StatusUnauthorized
	case "CORRUPTED_PAYLOAD":
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// serviceError — общая точка выхода для ошибок сервисного слоя:
// бизнес-ошибки мапятся в свой статус, остальное отдаёт 500.
func serviceError(w http.ResponseWriter, err error, operation string) {
	if handleBusinessError(w, err, "") {
		return
	}
	logger.Error("HTTP: Ошибка Service", err, zap.String("operation", operation))
	responseWithError(w, http.StatusInternalServerError, err.Error())
}
