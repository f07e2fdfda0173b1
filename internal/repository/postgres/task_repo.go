package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const taskColumns = `id, owner, title, description, status, client_id, pdf_url,
				assignees, subtasks, comments, created_at, updated_at, version`

// встроенные коллекции лежат в jsonb; nil-срез нормализуется в пустой массив
func marshalEmbedded(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("сериализация jsonb: %w", err)
	}
	if string(data) == "null" {
		return "[]", nil
	}
	return string(data), nil
}

func unmarshalEmbedded(data []byte, dst any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %v", repo.ErrCorruptedPayload, err)
	}
	return nil
}

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	var rawAssignees, rawSubtasks, rawComments []byte

	err := row.Scan(
		&t.ID,
		&t.Owner,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.ClientID,
		&t.PDFURL,
		&rawAssignees,
		&rawSubtasks,
		&rawComments,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.Version,
	)
	if err != nil {
		return nil, err
	}

	t.Assignees = []uuid.UUID{}
	t.Subtasks = []task.Subtask{}
	t.Comments = []task.Comment{}

	if err := unmarshalEmbedded(rawAssignees, &t.Assignees); err != nil {
		return nil, err
	}
	if err := unmarshalEmbedded(rawSubtasks, &t.Subtasks); err != nil {
		return nil, err
	}
	if err := unmarshalEmbedded(rawComments, &t.Comments); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Storage) Create(ctx context.Context, t *task.Task) error {
	start := time.Now()

	assignees, err := marshalEmbedded(t.Assignees)
	if err != nil {
		return err
	}
	subtasks, err := marshalEmbedded(t.Subtasks)
	if err != nil {
		return err
	}
	comments, err := marshalEmbedded(t.Comments)
	if err != nil {
		return err
	}

	query := `INSERT INTO tasks
				(id, owner, title, description, status, client_id, pdf_url,
				assignees, subtasks, comments, created_at, updated_at, version)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW(), 1)
				RETURNING created_at, updated_at`

	err = s.pool.QueryRow(ctx, query,
		t.ID,
		t.Owner,
		t.Title,
		t.Description,
		t.Status,
		t.ClientID,
		t.PDFURL,
		assignees,
		subtasks,
		comments,
	).Scan(&t.CreatedAt, &t.UpdatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}
	t.Version = 1

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	t, err := scanTask(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return t, nil
}

// GetForUser объединяет "мои" и "назначенные на меня" задачи одним запросом;
// дубли исключает сам предикат, порядок — по убыванию updated_at.
func (s *Storage) GetForUser(ctx context.Context, userID uuid.UUID) ([]*task.Task, error) {
	contains, err := marshalEmbedded([]uuid.UUID{userID})
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + taskColumns + ` FROM tasks
				WHERE owner = $1 OR assignees @> $2
				ORDER BY updated_at DESC`

	return s.queryTasks(ctx, query, userID, contains)
}

func (s *Storage) GetAll(ctx context.Context) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY updated_at DESC`
	return s.queryTasks(ctx, query)
}

func (s *Storage) queryTasks(ctx context.Context, query string, args ...any) ([]*task.Task, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			if errors.Is(err, repo.ErrCorruptedPayload) {
				logger.Error("Repository: Повреждённые данные задачи", err)
				return nil, err
			}
			logger.Error("Repository: Ошибка сканирования задачи", err)
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return tasks, nil
}

func (s *Storage) Update(ctx context.Context, t *task.Task) error {
	start := time.Now()

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				status = $3,
				client_id = $4,
				updated_at = NOW(),
				version = version + 1
			WHERE id = $5 AND version = $6
			RETURNING updated_at, version`

	err := s.pool.QueryRow(ctx, query,
		t.Title,
		t.Description,
		t.Status,
		t.ClientID,
		t.ID,
		t.Version,
	).Scan(&t.UpdatedAt, &t.Version)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.staleOrMissing(ctx, t.ID, t.Version)
		}
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) SetSubtasks(ctx context.Context, id uuid.UUID, version int, subs []task.Subtask) error {
	value, err := marshalEmbedded(subs)
	if err != nil {
		return err
	}
	return s.setTaskField(ctx, "subtasks", id, version, value)
}

func (s *Storage) SetComments(ctx context.Context, id uuid.UUID, version int, comments []task.Comment) error {
	value, err := marshalEmbedded(comments)
	if err != nil {
		return err
	}
	return s.setTaskField(ctx, "comments", id, version, value)
}

func (s *Storage) SetAssignees(ctx context.Context, id uuid.UUID, version int, assignees []uuid.UUID) error {
	value, err := marshalEmbedded(assignees)
	if err != nil {
		return err
	}
	return s.setTaskField(ctx, "assignees", id, version, value)
}

// SetPDF пишет ссылку и статус одной операцией: прикрепление отчёта
// закрывает задачу, удаление — открывает заново.
func (s *Storage) SetPDF(ctx context.Context, id uuid.UUID, version int, pdfURL *string, status task.Status) error {
	start := time.Now()

	query := `UPDATE tasks
			SET pdf_url = $1,
				status = $2,
				updated_at = NOW(),
				version = version + 1
			WHERE id = $3 AND version = $4
			RETURNING version`

	var newVersion int
	err := s.pool.QueryRow(ctx, query, pdfURL, status, id, version).Scan(&newVersion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.staleOrMissing(ctx, id, version)
		}
		logger.Error("Repository: Не удалось записать pdf_url", err)
		return fmt.Errorf("запись pdf_url: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// замена одного jsonb-поля целиком с проверкой версии
func (s *Storage) setTaskField(ctx context.Context, field string, id uuid.UUID, version int, value string) error {
	start := time.Now()

	query := fmt.Sprintf(`UPDATE tasks
			SET %s = $1,
				updated_at = NOW(),
				version = version + 1
			WHERE id = $2 AND version = $3
			RETURNING version`, field)

	var newVersion int
	err := s.pool.QueryRow(ctx, query, value, id, version).Scan(&newVersion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.staleOrMissing(ctx, id, version)
		}
		logger.Error("Repository: Не удалось обновить поле задачи", err, zap.String("field", field))
		return fmt.Errorf("обновление поля %s: %w", field, err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// различает "строки нет" и "версия устарела"
func (s *Storage) staleOrMissing(ctx context.Context, id uuid.UUID, version int) error {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("проверка существования задачи: %w", err)
	}
	if !exists {
		return repo.ErrNotFound
	}

	logger.Warn("Repository: Конфликт версий",
		zap.String("task_id", id.String()),
		zap.Int("expected_version", version))
	return repo.ErrVersionConflict
}

func (s *Storage) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()

	_, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}
