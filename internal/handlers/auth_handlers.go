package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"
	"taskManager/internal/service"

	"go.uber.org/zap"
)

type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) AuthHandler {
	return AuthHandler{Auth: auth}
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	p, err := h.Auth.SignUp(r.Context(), request.Email, request.Password, request.FullName)
	if err != nil {
		serviceError(w, err, "sign_up")
		return
	}

	logger.Info("HTTP_OUT: Пользователь зарегистрирован",
		zap.String("user_id", p.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, dto.FromProfile(p))
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	p, pair, err := h.Auth.SignIn(r.Context(), request.Email, request.Password)
	if err != nil {
		serviceError(w, err, "sign_in")
		return
	}

	logger.Info("HTTP_OUT: Вход выполнен",
		zap.String("user_id", p.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.AuthResponse{
		User:   dto.FromProfile(p),
		Tokens: pair,
	})
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u, ok := requestUser(w, r)
	if !ok {
		return
	}

	// Выход не возвращает ошибок: сессии либо сняты, либо истекут сами.
	h.Auth.SignOut(r.Context(), u.ID)

	logger.Info("HTTP_OUT: Выход выполнен",
		zap.String("user_id", u.ID.String()),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Restore(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	if request.RefreshToken == "" {
		responseWithError(w, http.StatusBadRequest, "refresh_token не может быть пустым")
		return
	}

	p, pair, err := h.Auth.Restore(r.Context(), request.RefreshToken)
	if err != nil {
		serviceError(w, err, "restore")
		return
	}

	logger.Info("HTTP_OUT: Сессия восстановлена",
		zap.String("user_id", p.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.AuthResponse{
		User:   dto.FromProfile(p),
		Tokens: pair,
	})
}
