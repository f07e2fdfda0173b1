package storage

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"taskManager/internal/logger"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Bucket — граница объектного хранилища: загрузка, публичная ссылка, удаление.
type Bucket interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	PublicURL(key string) string
	Remove(ctx context.Context, keys ...string) error
	List(ctx context.Context) ([]string, error)
	KeyFromURL(url string) string
}

// DiskBucket хранит объекты на файловой системе afero:
// OsFs в проде, MemMapFs в тестах.
type DiskBucket struct {
	fs      afero.Fs
	root    string
	baseURL string
}

func NewDiskBucket(filesystem afero.Fs, root, baseURL string) (*DiskBucket, error) {
	if err := filesystem.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("создание каталога хранилища: %w", err)
	}
	return &DiskBucket{
		fs:      filesystem,
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (b *DiskBucket) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	full := path.Join(b.root, key)
	if err := b.fs.MkdirAll(path.Dir(full), 0o755); err != nil {
		return fmt.Errorf("создание каталога объекта: %w", err)
	}
	if err := afero.WriteFile(b.fs, full, data, 0o644); err != nil {
		logger.Error("Storage: Не удалось записать объект", err, zap.String("key", key))
		return fmt.Errorf("запись объекта: %w", err)
	}

	logger.Info("Storage: Объект загружен",
		zap.String("key", key),
		zap.String("content_type", contentType),
		zap.Int("bytes", len(data)))
	return nil
}

func (b *DiskBucket) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := afero.ReadFile(b.fs, path.Join(b.root, key))
	if err != nil {
		return nil, fmt.Errorf("чтение объекта: %w", err)
	}
	return data, nil
}

func (b *DiskBucket) PublicURL(key string) string {
	return b.baseURL + "/" + key
}

// Remove удаляет объекты по одному; ошибки отдельных ключей не прерывают остальные.
func (b *DiskBucket) Remove(ctx context.Context, keys ...string) error {
	var lastErr error
	for _, key := range keys {
		if err := b.fs.Remove(path.Join(b.root, key)); err != nil {
			logger.Warn("Storage: Не удалось удалить объект", zap.String("key", key), zap.Error(err))
			lastErr = err
		}
	}
	if lastErr != nil {
		return fmt.Errorf("удаление объектов: %w", lastErr)
	}
	return nil
}

func (b *DiskBucket) List(ctx context.Context) ([]string, error) {
	keys := []string{}
	err := afero.Walk(b.fs, b.root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		keys = append(keys, strings.TrimPrefix(strings.TrimPrefix(p, b.root), "/"))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("обход хранилища: %w", err)
	}
	return keys, nil
}

// KeyFromURL восстанавливает ключ из публичной ссылки.
// Для чужих ссылок возвращает пустую строку.
func (b *DiskBucket) KeyFromURL(url string) string {
	key, ok := strings.CutPrefix(url, b.baseURL+"/")
	if !ok {
		return ""
	}
	return key
}
