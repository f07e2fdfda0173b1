package repository

import (
	"context"
	"time"

	"taskManager/internal/models/client"
	"taskManager/internal/models/profile"
	"taskManager/internal/models/session"
	"taskManager/internal/models/task"

	"github.com/google/uuid"
)

// Интерфейсы хранилища. Сервисный слой работает только через них,
// реализации — postgres и inmemory.

type TaskRepository interface {
	Create(ctx context.Context, t *task.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error)
	// GetForUser: задачи, где пользователь владелец или входит в исполнители,
	// без дублей, по убыванию updated_at.
	GetForUser(ctx context.Context, userID uuid.UUID) ([]*task.Task, error)
	GetAll(ctx context.Context) ([]*task.Task, error)
	// Update перезаписывает изменяемые поля строки целиком;
	// при несовпадении версии возвращает ErrVersionConflict.
	Update(ctx context.Context, t *task.Task) error
	SetSubtasks(ctx context.Context, id uuid.UUID, version int, subs []task.Subtask) error
	SetComments(ctx context.Context, id uuid.UUID, version int, comments []task.Comment) error
	SetAssignees(ctx context.Context, id uuid.UUID, version int, assignees []uuid.UUID) error
	// SetPDF пишет pdf_url и статус одной операцией — как set_task_pdf у источника.
	SetPDF(ctx context.Context, id uuid.UUID, version int, pdfURL *string, status task.Status) error
	Delete(ctx context.Context, id uuid.UUID) error
	HealthCheck(ctx context.Context) error
}

type ClientRepository interface {
	CreateClient(ctx context.Context, c *client.Client) error
	GetClientByID(ctx context.Context, id uuid.UUID) (*client.Client, error)
	GetAllClients(ctx context.Context) ([]*client.Client, error)
	UpdateClient(ctx context.Context, c *client.Client) error
	DeleteClient(ctx context.Context, id uuid.UUID) error
}

type ProfileRepository interface {
	CreateProfile(ctx context.Context, p *profile.Profile) error
	GetProfileByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*profile.Profile, error)
	GetAllProfiles(ctx context.Context) ([]*profile.Profile, error)
}

type SessionRepository interface {
	CreateSession(ctx context.Context, s *session.Session) error
	GetSessionsByUser(ctx context.Context, userID uuid.UUID) ([]*session.Session, error)
	DeleteSessionsByUser(ctx context.Context, userID uuid.UUID) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) error
}
