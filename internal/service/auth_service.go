package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskManager/internal/logger"
	"taskManager/internal/models/profile"
	"taskManager/internal/models/session"
	rep "taskManager/internal/repository"
	"taskManager/internal/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	profiles rep.ProfileRepository
	sessions rep.SessionRepository
	tokens   *token.Manager
}

func NewAuthService(profiles rep.ProfileRepository, sessions rep.SessionRepository, tokens *token.Manager) AuthService {
	return AuthService{
		profiles: profiles,
		sessions: sessions,
		tokens:   tokens,
	}
}

// SignUp создаёт профиль, но не выполняет вход.
func (s *AuthService) SignUp(ctx context.Context, email, password, fullName string) (*profile.Profile, error) {
	if email == "" {
		return nil, NewValidationError("email", "не может быть пустым")
	}
	if password == "" {
		return nil, NewValidationError("password", "не может быть пустым")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("хэширование пароля: %w", err)
	}

	p := &profile.Profile{
		ID:           uuid.New(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
	}

	if err := s.profiles.CreateProfile(ctx, p); err != nil {
		if errors.Is(err, rep.ErrAlreadyExists) {
			return nil, NewAlreadyExists("Профиль с таким email")
		}
		return nil, fmt.Errorf("создание профиля: %w", err)
	}

	logger.Info("Service: Профиль создан", zap.String("user_id", p.ID.String()))
	return p, nil
}

// SignIn проверяет учётные данные и выдаёт пару токенов.
// Несуществующий email и неверный пароль дают одну и ту же ошибку.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*profile.Profile, token.Pair, error) {
	p, err := s.profiles.GetProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, token.Pair{}, NewInvalidCredentials()
		}
		return nil, token.Pair{}, fmt.Errorf("получение профиля: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
		return nil, token.Pair{}, NewInvalidCredentials()
	}

	pair, err := s.issueSession(ctx, p)
	if err != nil {
		return nil, token.Pair{}, err
	}

	logger.Info("Service: Вход выполнен", zap.String("user_id", p.ID.String()))
	return p, pair, nil
}

// SignOut отзывает сессии пользователя. Ошибки провайдера глотаются:
// выход не может завершиться неуспешно для вызывающего.
func (s *AuthService) SignOut(ctx context.Context, userID uuid.UUID) {
	if err := s.sessions.DeleteSessionsByUser(ctx, userID); err != nil {
		logger.Warn("Service: Ошибка отзыва сессий", zap.Error(err), zap.String("user_id", userID.String()))
	}
}

// Restore восстанавливает сессию по сохранённой паре токенов.
// Ровно одна попытка: любой сбой отзывает сессию и возвращает UNAUTHORIZED.
func (s *AuthService) Restore(ctx context.Context, refresh string) (*profile.Profile, token.Pair, error) {
	claims, err := s.tokens.ParseRefresh(refresh)
	if err != nil {
		return nil, token.Pair{}, NewUnauthorized("refresh-токен не прошёл проверку")
	}

	sessions, err := s.sessions.GetSessionsByUser(ctx, claims.UserID)
	if err != nil {
		s.SignOut(ctx, claims.UserID)
		return nil, token.Pair{}, NewUnauthorized("сессии недоступны")
	}

	matched := false
	now := time.Now()
	for _, sess := range sessions {
		if sess.ExpiresAt.After(now) && token.CompareRefresh(sess.RefreshHash, refresh) {
			matched = true
			break
		}
	}
	if !matched {
		s.SignOut(ctx, claims.UserID)
		return nil, token.Pair{}, NewUnauthorized("сессия не найдена или истекла")
	}

	p, err := s.profiles.GetProfileByID(ctx, claims.UserID)
	if err != nil {
		s.SignOut(ctx, claims.UserID)
		return nil, token.Pair{}, NewUnauthorized("профиль недоступен")
	}

	// ротация: старые сессии отзываются, выдаётся новая пара
	s.SignOut(ctx, claims.UserID)
	pair, err := s.issueSession(ctx, p)
	if err != nil {
		return nil, token.Pair{}, err
	}

	logger.Info("Service: Сессия восстановлена", zap.String("user_id", p.ID.String()))
	return p, pair, nil
}

func (s *AuthService) issueSession(ctx context.Context, p *profile.Profile) (token.Pair, error) {
	pair, err := s.tokens.Issue(p.ID, p.Email)
	if err != nil {
		return token.Pair{}, fmt.Errorf("выпуск токенов: %w", err)
	}

	hash, err := token.HashRefresh(pair.Refresh)
	if err != nil {
		return token.Pair{}, err
	}

	sess := &session.Session{
		ID:          uuid.New(),
		UserID:      p.ID,
		RefreshHash: hash,
		ExpiresAt:   time.Now().Add(s.tokens.RefreshTTL()),
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return token.Pair{}, fmt.Errorf("сохранение сессии: %w", err)
	}
	return pair, nil
}
