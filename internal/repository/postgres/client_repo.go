package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskManager/internal/logger"
	"taskManager/internal/models/client"
	repo "taskManager/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const clientColumns = `id, owner, person_phone, person_email, gst, ntn, nic,
				city, area, branch_name, branch_address, billing_address`

func scanClient(row pgx.Row) (*client.Client, error) {
	c := &client.Client{}
	err := row.Scan(
		&c.ID,
		&c.Owner,
		&c.PersonPhone,
		&c.PersonEmail,
		&c.GST,
		&c.NTN,
		&c.NIC,
		&c.City,
		&c.Area,
		&c.BranchName,
		&c.BranchAddress,
		&c.BillingAddress,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Storage) CreateClient(ctx context.Context, c *client.Client) error {
	start := time.Now()

	query := `INSERT INTO clients
				(id, owner, person_phone, person_email, gst, ntn, nic,
				city, area, branch_name, branch_address, billing_address)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.pool.Exec(ctx, query,
		c.ID, c.Owner, c.PersonPhone, c.PersonEmail, c.GST, c.NTN, c.NIC,
		c.City, c.Area, c.BranchName, c.BranchAddress, c.BillingAddress,
	)
	if err != nil {
		logger.Error("Repository: Не удалось добавить клиента", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление клиента: %w", err)
	}
	return nil
}

func (s *Storage) GetClientByID(ctx context.Context, id uuid.UUID) (*client.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`

	c, err := scanClient(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить клиента", err)
		return nil, fmt.Errorf("получение клиента: %w", err)
	}
	return c, nil
}

func (s *Storage) GetAllClients(ctx context.Context) ([]*client.Client, error) {
	start := time.Now()

	query := `SELECT ` + clientColumns + ` FROM clients ORDER BY branch_name`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		logger.Error("Repository: Не удалось получить клиентов", err)
		return nil, fmt.Errorf("получение клиентов: %w", err)
	}
	defer rows.Close()

	clients := []*client.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			logger.Error("Repository: Ошибка сканирования клиента", err)
			return nil, fmt.Errorf("сканирование клиента: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return clients, nil
}

func (s *Storage) UpdateClient(ctx context.Context, c *client.Client) error {
	query := `UPDATE clients
			SET person_phone = $1,
				person_email = $2,
				gst = $3,
				ntn = $4,
				nic = $5,
				city = $6,
				area = $7,
				branch_name = $8,
				branch_address = $9,
				billing_address = $10
			WHERE id = $11`

	ct, err := s.pool.Exec(ctx, query,
		c.PersonPhone, c.PersonEmail, c.GST, c.NTN, c.NIC,
		c.City, c.Area, c.BranchName, c.BranchAddress, c.BillingAddress, c.ID,
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить клиента", err)
		return fmt.Errorf("обновление клиента: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// удаление клиента не трогает задачи: висячий client_id остаётся на совести вызывающего
func (s *Storage) DeleteClient(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Удаление клиента", err)
		return fmt.Errorf("удаление клиента: %w", err)
	}
	return nil
}
