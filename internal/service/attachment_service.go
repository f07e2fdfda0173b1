package service

import (
	"context"
	"fmt"
	"strings"

	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	"taskManager/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const pdfContentType = "application/pdf"

// AttachmentService связывает PDF-отчёты с задачами и подзадачами.
// Загрузка и запись ссылки — два последовательных шага без общей транзакции;
// осиротевшие объекты подбирает фоновый уборщик.
type AttachmentService struct {
	tasks  *TaskService
	bucket storage.Bucket
}

func NewAttachmentService(tasks *TaskService, bucket storage.Bucket) AttachmentService {
	return AttachmentService{
		tasks:  tasks,
		bucket: bucket,
	}
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// AttachTaskPDF загружает отчёт и закрывает задачу.
func (s *AttachmentService) AttachTaskPDF(ctx context.Context, actor, taskID uuid.UUID, data []byte) (*task.Task, error) {
	if len(data) == 0 {
		return nil, NewValidationError("file", "пустое содержимое")
	}

	t, err := s.tasks.FetchTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/main_%s.pdf", taskID, randomSuffix())
	if err := s.bucket.Upload(ctx, key, data, pdfContentType); err != nil {
		return nil, fmt.Errorf("загрузка отчёта: %w", err)
	}

	url := s.bucket.PublicURL(key)
	updated, err := s.tasks.SetTaskPDF(ctx, actor, taskID, t.Version, &url, task.StatusClosed)
	if err != nil {
		// объект уже в хранилище, ссылки на него нет — его уберёт уборщик
		logger.Warn("Service: Отчёт загружен, но ссылка не записана",
			zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return updated, nil
}

// RemoveTaskPDF удаляет объект, очищает ссылку и открывает задачу заново.
func (s *AttachmentService) RemoveTaskPDF(ctx context.Context, actor, taskID uuid.UUID) (*task.Task, error) {
	t, err := s.tasks.FetchTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	if t.PDFURL == nil {
		return nil, NewNotFound("Отчёт задачи", taskID.String())
	}

	if key := s.bucket.KeyFromURL(*t.PDFURL); key != "" {
		if err := s.bucket.Remove(ctx, key); err != nil {
			logger.Warn("Service: Объект не удалился, ссылка всё равно очищается", zap.Error(err))
		}
	}

	return s.tasks.SetTaskPDF(ctx, actor, taskID, t.Version, nil, task.StatusOpen)
}

// AttachSubtaskPDF пишет ссылку внутрь массива подзадач; статус задачи не меняется.
func (s *AttachmentService) AttachSubtaskPDF(ctx context.Context, actor, taskID, subID uuid.UUID, data []byte) (*task.Task, error) {
	if len(data) == 0 {
		return nil, NewValidationError("file", "пустое содержимое")
	}

	t, err := s.tasks.FetchTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	if !hasSubtask(t, subID) {
		return nil, NewNotFound("Подзадача", subID.String())
	}

	key := fmt.Sprintf("%s/sub_%s_%s.pdf", taskID, subID, randomSuffix())
	if err := s.bucket.Upload(ctx, key, data, pdfContentType); err != nil {
		return nil, fmt.Errorf("загрузка отчёта: %w", err)
	}
	url := s.bucket.PublicURL(key)

	// свежая копия: между загрузкой и записью массив мог измениться
	t, err = s.tasks.FetchTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == subID {
			t.Subtasks[i].PDFURL = &url
		}
	}

	return s.tasks.SetSubtasks(ctx, actor, taskID, t.Version, t.Subtasks)
}

func (s *AttachmentService) RemoveSubtaskPDF(ctx context.Context, actor, taskID, subID uuid.UUID) (*task.Task, error) {
	t, err := s.tasks.FetchTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	var url *string
	for _, sub := range t.Subtasks {
		if sub.ID == subID {
			url = sub.PDFURL
		}
	}
	if url == nil {
		return nil, NewNotFound("Отчёт подзадачи", subID.String())
	}

	if key := s.bucket.KeyFromURL(*url); key != "" {
		if err := s.bucket.Remove(ctx, key); err != nil {
			logger.Warn("Service: Объект не удалился, ссылка всё равно очищается", zap.Error(err))
		}
	}

	for i := range t.Subtasks {
		if t.Subtasks[i].ID == subID {
			t.Subtasks[i].PDFURL = nil
		}
	}
	return s.tasks.SetSubtasks(ctx, actor, taskID, t.Version, t.Subtasks)
}

func hasSubtask(t *task.Task, subID uuid.UUID) bool {
	for _, sub := range t.Subtasks {
		if sub.ID == subID {
			return true
		}
	}
	return false
}
