package handlers

import (
	"mime"
	"net/http"

	"taskManager/internal/logger"
	"taskManager/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

// pathID достаёт uuid из chi-параметра. При ошибке сам пишет 400 и
// возвращает false.
func pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		logger.Warn("HTTP: Не удалось получить id",
			zap.String("param", param),
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "не удалось получить "+param+": "+err.Error())
		return uuid.Nil, false
	}

	if id == uuid.Nil {
		logger.Warn("HTTP: Неверное значение id",
			zap.String("param", param),
			zap.String("error", "nil id"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, param+" не может быть пустым")
		return uuid.Nil, false
	}

	return id, true
}

// requestUser достаёт идентичность из контекста. Отсутствие означает,
// что маршрут подключён мимо Auth-middleware.
func requestUser(w http.ResponseWriter, r *http.Request) (middleware.UserInfo, bool) {
	u, ok := middleware.GetUser(r.Context())
	if !ok {
		logger.Error("HTTP: Запрос без идентичности", nil,
			zap.String("path", r.URL.Path))
		responseWithError(w, http.StatusUnauthorized, "требуется аутентификация")
		return middleware.UserInfo{}, false
	}
	return u, true
}
