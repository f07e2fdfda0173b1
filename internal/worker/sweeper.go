package worker

import (
	"context"
	"time"

	"taskManager/internal/logger"
	"taskManager/internal/repository"
	"taskManager/internal/storage"

	"go.uber.org/zap"
)

// Sweeper убирает осиротевшие объекты хранилища: загрузка отчёта и запись
// ссылки — два шага без транзакции, при сбое второго объект повисает без
// ссылающейся задачи.
type Sweeper struct {
	tasks    repository.TaskRepository
	sessions repository.SessionRepository
	bucket   storage.Bucket
	interval time.Duration

	// кандидаты прошлого прохода: удаляем только то, что осталось
	// без ссылки два прохода подряд, чтобы не снести свежую загрузку
	candidates map[string]struct{}
}

func NewSweeper(tasks repository.TaskRepository, sessions repository.SessionRepository, bucket storage.Bucket, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Sweeper{
		tasks:      tasks,
		sessions:   sessions,
		bucket:     bucket,
		interval:   interval,
		candidates: make(map[string]struct{}),
	}
}

func (w *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logger.Info("Worker: Поиск осиротевших объектов", zap.Time("started_at", time.Now()))
			w.Sweep(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Уборщик останавливается")
			return
		}
	}
}

func (w *Sweeper) Sweep(ctx context.Context) {
	start := time.Now()

	// заодно чистим просроченные сессии: отдельного воркера под них нет
	if err := w.sessions.DeleteExpiredSessions(ctx, time.Now()); err != nil {
		logger.Warn("Worker: Ошибка удаления просроченных сессий", zap.Error(err))
	}

	keys, err := w.bucket.List(ctx)
	if err != nil {
		logger.Warn("Worker: Ошибка обхода хранилища", zap.Error(err))
		return
	}

	referenced, err := w.referencedKeys(ctx)
	if err != nil {
		logger.Warn("Worker: Ошибка получения задач", zap.Error(err))
		return
	}

	next := make(map[string]struct{})
	removed := 0
	for _, key := range keys {
		if _, ok := referenced[key]; ok {
			continue
		}
		if _, seen := w.candidates[key]; !seen {
			next[key] = struct{}{}
			continue
		}

		if err := w.bucket.Remove(ctx, key); err != nil {
			logger.Warn("Worker: Ошибка удаления объекта", zap.String("key", key), zap.Error(err))
			next[key] = struct{}{}
			continue
		}
		removed++
	}
	w.candidates = next

	logger.Info("Worker: Завершение уборки",
		zap.Duration("ms", time.Since(start)),
		zap.Int("checked", len(keys)),
		zap.Int("removed", removed),
	)
}

func (w *Sweeper) referencedKeys(ctx context.Context) (map[string]struct{}, error) {
	tasks, err := w.tasks.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	refs := make(map[string]struct{})
	for _, t := range tasks {
		if t.PDFURL != nil {
			if key := w.bucket.KeyFromURL(*t.PDFURL); key != "" {
				refs[key] = struct{}{}
			}
		}
		for _, sub := range t.Subtasks {
			if sub.PDFURL != nil {
				if key := w.bucket.KeyFromURL(*sub.PDFURL); key != "" {
					refs[key] = struct{}{}
				}
			}
		}
	}
	return refs, nil
}
