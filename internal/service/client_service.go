package service

import (
	"context"
	"errors"
	"fmt"

	"taskManager/internal/logger"
	"taskManager/internal/models/client"
	rep "taskManager/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ClientService struct {
	clients rep.ClientRepository
}

func NewClientService(clients rep.ClientRepository) ClientService {
	return ClientService{clients: clients}
}

func (s *ClientService) AddClient(ctx context.Context, actor uuid.UUID, c *client.Client) (*client.Client, error) {
	c.ID = uuid.New()
	c.Owner = actor

	if err := s.clients.CreateClient(ctx, c); err != nil {
		return nil, fmt.Errorf("создание клиента: %w", err)
	}

	logger.Info("Service: Клиент создан",
		zap.String("client_id", c.ID.String()),
		zap.String("label", c.Label()))
	return c, nil
}

// FetchClients возвращает весь справочник: как и в источнике,
// список клиентов общий для всех пользователей.
func (s *ClientService) FetchClients(ctx context.Context) ([]*client.Client, error) {
	clients, err := s.clients.GetAllClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение клиентов: %w", err)
	}
	return clients, nil
}

// UpdateClient доступен только владельцу записи.
func (s *ClientService) UpdateClient(ctx context.Context, actor uuid.UUID, c *client.Client) (*client.Client, error) {
	existing, err := s.clients.GetClientByID(ctx, c.ID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("Клиент", c.ID.String())
		}
		return nil, fmt.Errorf("получение клиента: %w", err)
	}
	if existing.Owner != actor {
		return nil, NewForbidden("клиент", c.ID.String())
	}

	c.Owner = existing.Owner
	if err := s.clients.UpdateClient(ctx, c); err != nil {
		return nil, fmt.Errorf("обновление клиента: %w", err)
	}
	return c, nil
}

// DeleteClient не проверяет ссылки из задач: висячий client_id
// в задаче остаётся, это осознанное поведение источника.
func (s *ClientService) DeleteClient(ctx context.Context, actor, id uuid.UUID) error {
	existing, err := s.clients.GetClientByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound("Клиент", id.String())
		}
		return fmt.Errorf("получение клиента: %w", err)
	}
	if existing.Owner != actor {
		return NewForbidden("клиент", id.String())
	}

	if err := s.clients.DeleteClient(ctx, id); err != nil {
		return fmt.Errorf("удаление клиента: %w", err)
	}

	logger.Info("Service: Клиент удалён", zap.String("client_id", id.String()))
	return nil
}
