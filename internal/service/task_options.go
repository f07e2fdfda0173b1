package service

import (
	"taskManager/internal/models/task"

	"github.com/google/uuid"
)

// TaskOption — частичное обновление задачи: каждая опция меняет одно поле,
// остальные остаются как есть.
type TaskOption func(*task.Task)

func WithTitle(title string) TaskOption {
	return func(t *task.Task) {
		t.Title = title
	}
}

func WithDescription(description string) TaskOption {
	return func(t *task.Task) {
		t.Description = description
	}
}

func WithStatus(status task.Status) TaskOption {
	return func(t *task.Task) {
		t.Status = status
	}
}

func WithClientID(clientID *uuid.UUID) TaskOption {
	return func(t *task.Task) {
		t.ClientID = clientID
	}
}
