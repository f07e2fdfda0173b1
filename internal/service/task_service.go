package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	rep "taskManager/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// здесь происходит проверка бизнес-правил: видимость, владение, версии

type TaskService struct {
	tasks    rep.TaskRepository
	profiles rep.ProfileRepository
}

func NewTaskService(tasks rep.TaskRepository, profiles rep.ProfileRepository) TaskService {
	return TaskService{
		tasks:    tasks,
		profiles: profiles,
	}
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	return s.tasks.HealthCheck(ctx)
}

// AddTask создаёт задачу с пустыми коллекциями и статусом open.
// Дубликаты заголовков допустимы.
func (s *TaskService) AddTask(ctx context.Context, actor uuid.UUID, title, description string, clientID *uuid.UUID) (*task.Task, error) {
	if title == "" {
		return nil, NewValidationError("title", "не может быть пустым")
	}

	t := &task.Task{
		ID:          uuid.New(),
		Owner:       actor,
		Title:       title,
		Description: description,
		Status:      task.StatusOpen,
		ClientID:    clientID,
		Assignees:   []uuid.UUID{},
		Subtasks:    []task.Subtask{},
		Comments:    []task.Comment{},
	}

	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, s.wrapRepoError(err, t.ID, 0)
	}

	logger.Info("Service: Задача создана", zap.String("task_id", t.ID.String()))
	return t, nil
}

// FetchTasksForUser — задачи, где пользователь владелец или исполнитель.
// Ошибки хранилища не превращаются в пустой список.
func (s *TaskService) FetchTasksForUser(ctx context.Context, actor uuid.UUID) ([]*task.Task, error) {
	tasks, err := s.tasks.GetForUser(ctx, actor)
	if err != nil {
		return nil, s.wrapRepoError(err, uuid.Nil, 0)
	}
	return tasks, nil
}

func (s *TaskService) FetchTask(ctx context.Context, actor, id uuid.UUID) (*task.Task, error) {
	return s.getVisible(ctx, actor, id)
}

// UpdateTask — частичное обновление через опции; версия проверяется при записи.
func (s *TaskService) UpdateTask(ctx context.Context, actor, id uuid.UUID, version int, options ...TaskOption) (*task.Task, error) {
	t, err := s.getVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	for _, opt := range options {
		opt(t)
	}
	if !task.ValidStatus(t.Status) {
		return nil, NewValidationError("status", "недопустимое значение")
	}

	t.Version = version
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, s.wrapRepoError(err, id, version)
	}

	logger.Info("Service: Задача обновлена", zap.String("task_id", id.String()))
	return t, nil
}

// DeleteTask доступен только владельцу.
func (s *TaskService) DeleteTask(ctx context.Context, actor, id uuid.UUID) error {
	t, err := s.getVisible(ctx, actor, id)
	if err != nil {
		return err
	}
	if t.Owner != actor {
		return NewForbidden("задача", id.String())
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		return s.wrapRepoError(err, id, 0)
	}

	logger.Info("Service: Задача удалена", zap.String("task_id", id.String()))
	return nil
}

// ----- перезапись полей целиком -----

func (s *TaskService) SetSubtasks(ctx context.Context, actor, id uuid.UUID, version int, subs []task.Subtask) (*task.Task, error) {
	if _, err := s.getVisible(ctx, actor, id); err != nil {
		return nil, err
	}
	if err := s.tasks.SetSubtasks(ctx, id, version, subs); err != nil {
		return nil, s.wrapRepoError(err, id, version)
	}
	return s.reload(ctx, id)
}

func (s *TaskService) SetComments(ctx context.Context, actor, id uuid.UUID, version int, comments []task.Comment) (*task.Task, error) {
	if _, err := s.getVisible(ctx, actor, id); err != nil {
		return nil, err
	}
	if err := s.tasks.SetComments(ctx, id, version, comments); err != nil {
		return nil, s.wrapRepoError(err, id, version)
	}
	return s.reload(ctx, id)
}

func (s *TaskService) SetAssignees(ctx context.Context, actor, id uuid.UUID, version int, assignees []uuid.UUID) (*task.Task, error) {
	if _, err := s.getVisible(ctx, actor, id); err != nil {
		return nil, err
	}
	if err := s.tasks.SetAssignees(ctx, id, version, assignees); err != nil {
		return nil, s.wrapRepoError(err, id, version)
	}
	return s.reload(ctx, id)
}

// SetTaskPDF пишет ссылку на отчёт вместе со статусом:
// прикрепление закрывает задачу, очистка — открывает.
func (s *TaskService) SetTaskPDF(ctx context.Context, actor, id uuid.UUID, version int, pdfURL *string, status task.Status) (*task.Task, error) {
	if !task.ValidStatus(status) {
		return nil, NewValidationError("status", "недопустимое значение")
	}
	if _, err := s.getVisible(ctx, actor, id); err != nil {
		return nil, err
	}
	if err := s.tasks.SetPDF(ctx, id, version, pdfURL, status); err != nil {
		return nil, s.wrapRepoError(err, id, version)
	}
	return s.reload(ctx, id)
}

// ----- операции над подзадачами и комментариями -----
// Источник делал это на клиенте поверх перезаписи всего массива;
// здесь тот же приём, но версия защищает от потери чужой записи.

func (s *TaskService) AddSubtask(ctx context.Context, actor, id uuid.UUID, title string) (*task.Task, error) {
	if title == "" {
		return nil, NewValidationError("title", "не может быть пустым")
	}

	t, err := s.getVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	subs := append(t.Subtasks, task.Subtask{ID: uuid.New(), Title: title})
	if err := s.tasks.SetSubtasks(ctx, id, t.Version, subs); err != nil {
		return nil, s.wrapRepoError(err, id, t.Version)
	}
	return s.reload(ctx, id)
}

// ToggleSubtask меняет done ровно у одной подзадачи, соседние не трогаются.
func (s *TaskService) ToggleSubtask(ctx context.Context, actor, id, subID uuid.UUID, done bool) (*task.Task, error) {
	t, err := s.getVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == subID {
			t.Subtasks[i].Done = done
			found = true
		}
	}
	if !found {
		return nil, NewNotFound("Подзадача", subID.String())
	}

	if err := s.tasks.SetSubtasks(ctx, id, t.Version, t.Subtasks); err != nil {
		return nil, s.wrapRepoError(err, id, t.Version)
	}
	return s.reload(ctx, id)
}

func (s *TaskService) DeleteSubtask(ctx context.Context, actor, id, subID uuid.UUID) (*task.Task, error) {
	t, err := s.getVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	subs := []task.Subtask{}
	for _, sub := range t.Subtasks {
		if sub.ID != subID {
			subs = append(subs, sub)
		}
	}

	if err := s.tasks.SetSubtasks(ctx, id, t.Version, subs); err != nil {
		return nil, s.wrapRepoError(err, id, t.Version)
	}
	return s.reload(ctx, id)
}

// AddComment дописывает комментарий от имени пользователя; правок и удаления нет.
func (s *TaskService) AddComment(ctx context.Context, actor, id uuid.UUID, text string) (*task.Task, error) {
	if text == "" {
		return nil, NewValidationError("text", "не может быть пустым")
	}

	t, err := s.getVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	p, err := s.profiles.GetProfileByID(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("получение профиля автора: %w", err)
	}

	comments := append(t.Comments, task.NewComment(p.Email, text, time.Now()))
	if err := s.tasks.SetComments(ctx, id, t.Version, comments); err != nil {
		return nil, s.wrapRepoError(err, id, t.Version)
	}
	return s.reload(ctx, id)
}

// UsersMap — справочник id → отображаемое имя для списков исполнителей.
func (s *TaskService) UsersMap(ctx context.Context) (map[uuid.UUID]string, error) {
	profiles, err := s.profiles.GetAllProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение профилей: %w", err)
	}

	users := make(map[uuid.UUID]string, len(profiles))
	for _, p := range profiles {
		users[p.ID] = p.DisplayName()
	}
	return users, nil
}

// ----- вспомогательные -----

func (s *TaskService) getVisible(ctx context.Context, actor, id uuid.UUID) (*task.Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrapRepoError(err, id, 0)
	}
	if !t.VisibleTo(actor) {
		logger.Warn("Service: Попытка доступа к чужой задаче",
			zap.String("task_id", id.String()),
			zap.String("actor", actor.String()))
		return nil, NewForbidden("задача", id.String())
	}
	return t, nil
}

func (s *TaskService) reload(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrapRepoError(err, id, 0)
	}
	return t, nil
}

func (s *TaskService) wrapRepoError(err error, id uuid.UUID, version int) error {
	switch {
	case errors.Is(err, rep.ErrNotFound):
		return NewNotFound("Задача", id.String())
	case errors.Is(err, rep.ErrVersionConflict):
		return NewVersionConflict(id.String(), version)
	case errors.Is(err, rep.ErrCorruptedPayload):
		return NewBusinessError("CORRUPTED_PAYLOAD", "Встроенные данные задачи повреждены",
			ToDetail("id", id.String()))
	default:
		return fmt.Errorf("обращение к хранилищу: %w", err)
	}
}
