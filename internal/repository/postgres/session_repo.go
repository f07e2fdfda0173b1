package postgres

import (
	"context"
	"fmt"
	"time"

	"taskManager/internal/logger"
	"taskManager/internal/models/session"

	"github.com/google/uuid"
)

func (s *Storage) CreateSession(ctx context.Context, sess *session.Session) error {
	query := `INSERT INTO sessions (id, user_id, refresh_hash, created_at, expires_at)
				VALUES ($1, $2, $3, NOW(), $4)
				RETURNING created_at`

	err := s.pool.QueryRow(ctx, query, sess.ID, sess.UserID, sess.RefreshHash, sess.ExpiresAt).
		Scan(&sess.CreatedAt)
	if err != nil {
		logger.Error("Repository: Не удалось создать сессию", err)
		return fmt.Errorf("создание сессии: %w", err)
	}
	return nil
}

func (s *Storage) GetSessionsByUser(ctx context.Context, userID uuid.UUID) ([]*session.Session, error) {
	query := `SELECT id, user_id, refresh_hash, created_at, expires_at
				FROM sessions WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		logger.Error("Repository: Не удалось получить сессии", err)
		return nil, fmt.Errorf("получение сессий: %w", err)
	}
	defer rows.Close()

	sessions := []*session.Session{}
	for rows.Next() {
		sess := &session.Session{}
		err := rows.Scan(&sess.ID, &sess.UserID, &sess.RefreshHash, &sess.CreatedAt, &sess.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("сканирование сессии: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return sessions, nil
}

func (s *Storage) DeleteSessionsByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		logger.Error("Repository: Удаление сессий", err)
		return fmt.Errorf("удаление сессий: %w", err)
	}
	return nil
}

func (s *Storage) DeleteExpiredSessions(ctx context.Context, before time.Time) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, before)
	if err != nil {
		logger.Error("Repository: Удаление просроченных сессий", err)
		return fmt.Errorf("удаление просроченных сессий: %w", err)
	}
	return nil
}
