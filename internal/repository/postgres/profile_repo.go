package postgres

import (
	"context"
	"errors"
	"fmt"

	"taskManager/internal/logger"
	"taskManager/internal/models/profile"
	repo "taskManager/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const profileColumns = `id, email, full_name, password_hash, created_at`

func scanProfile(row pgx.Row) (*profile.Profile, error) {
	p := &profile.Profile{}
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.PasswordHash, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Storage) CreateProfile(ctx context.Context, p *profile.Profile) error {
	query := `INSERT INTO profiles (id, email, full_name, password_hash, created_at)
				VALUES ($1, $2, $3, $4, NOW())
				RETURNING created_at`

	err := s.pool.QueryRow(ctx, query, p.ID, p.Email, p.FullName, p.PasswordHash).Scan(&p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 — нарушение уникальности email
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: Не удалось создать профиль", err)
		return fmt.Errorf("создание профиля: %w", err)
	}
	return nil
}

func (s *Storage) GetProfileByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	p, err := scanProfile(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить профиль", err)
		return nil, fmt.Errorf("получение профиля: %w", err)
	}
	return p, nil
}

func (s *Storage) GetProfileByEmail(ctx context.Context, email string) (*profile.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE email = $1`

	p, err := scanProfile(s.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить профиль", err)
		return nil, fmt.Errorf("получение профиля: %w", err)
	}
	return p, nil
}

func (s *Storage) GetAllProfiles(ctx context.Context) ([]*profile.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		logger.Error("Repository: Не удалось получить профили", err)
		return nil, fmt.Errorf("получение профилей: %w", err)
	}
	defer rows.Close()

	profiles := []*profile.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("сканирование профиля: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return profiles, nil
}
