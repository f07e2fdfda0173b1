package middleware

import (
	"context"
	"net/http"
	"strings"

	"taskManager/internal/logger"
	"taskManager/internal/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const userKey contextKey = "user"

// UserInfo — идентичность запроса после проверки access-токена.
type UserInfo struct {
	ID    uuid.UUID
	Email string
}

// Auth проверяет заголовок Authorization и кладёт идентичность в контекст.
// Запрос без валидного Bearer-токена не доходит до handler'ов.
func Auth(tokens *token.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				unauthorized(w, r, "missing bearer token")
				return
			}

			claims, err := tokens.ParseAccess(raw)
			if err != nil {
				logger.Warn("Auth: Невалидный access-токен",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.Error(err),
				)
				unauthorized(w, r, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, UserInfo{
				ID:    claims.UserID,
				Email: claims.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser возвращает идентичность из контекста. Второе значение false
// означает, что запрос не проходил через Auth.
func GetUser(ctx context.Context) (UserInfo, bool) {
	u, ok := ctx.Value(userKey).(UserInfo)
	return u, ok
}

func unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"UNAUTHORIZED","message":"` + message + `","request_id":"` + GetRequestID(r.Context()) + `"}`))
}
