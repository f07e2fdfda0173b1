package handlers

import (
	"errors"
	"net/http"
	"os"
	"time"

	"taskManager/internal/logger"
	"taskManager/internal/storage"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type FileHandler struct {
	Bucket storage.Bucket
}

func NewFileHandler(bucket storage.Bucket) FileHandler {
	return FileHandler{Bucket: bucket}
}

// GetFile отдаёт объект хранилища по ключу из хвоста пути.
func (h *FileHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	key := chi.URLParam(r, "*")
	if key == "" {
		responseWithError(w, http.StatusBadRequest, "не указан ключ файла")
		return
	}

	data, err := h.Bucket.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("HTTP: Файл не найден",
				zap.String("key", key),
				zap.String("client_ip", r.RemoteAddr))
			responseWithError(w, http.StatusNotFound, "файл не найден")
			return
		}

		logger.Error("HTTP: Ошибка чтения файла", err, zap.String("key", key))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Файл отдан",
		zap.String("key", key),
		zap.Int("size", len(data)),
		zap.Duration("ms", time.Since(start)))

	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
