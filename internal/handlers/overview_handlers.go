package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"taskManager/internal/export"
	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"
	"taskManager/internal/overview"
	"taskManager/internal/service"

	"go.uber.org/zap"
)

type OverviewHandler struct {
	Tasks *service.TaskService
}

func NewOverviewHandler(tasks *service.TaskService) OverviewHandler {
	return OverviewHandler{Tasks: tasks}
}

// GetOverview отдаёт сводку задач пользователя: счётчики по всей выборке,
// строки — по фильтрам из query-параметров.
func (h *OverviewHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u, ok := requestUser(w, r)
	if !ok {
		return
	}

	filter := overview.Filter{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
	}
	if raw := r.URL.Query().Get("width"); raw != "" {
		width, err := strconv.Atoi(raw)
		if err != nil {
			logger.Warn("HTTP: Неверное значение параметра",
				zap.String("query", "width"),
				zap.Error(err),
				zap.String("client_ip", r.RemoteAddr))

			responseWithError(w, http.StatusBadRequest, "неверное значение width: "+err.Error())
			return
		}
		filter.Width = width
	}

	tasks, err := h.Tasks.FetchTasksForUser(r.Context(), u.ID)
	if err != nil {
		serviceError(w, err, "get_overview")
		return
	}

	users, err := h.Tasks.UsersMap(r.Context())
	if err != nil {
		serviceError(w, err, "get_overview")
		return
	}

	result := overview.Build(tasks, users, filter)

	logger.Info("HTTP_OUT: Сводка собрана",
		zap.Int("rows", len(result.Rows)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, result)
}

// ExportTasks выгружает задачи пользователя. CSV и JSON возвращаются
// как data-URI, XLSX отдаётся бинарным вложением.
func (h *OverviewHandler) ExportTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u, ok := requestUser(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	tasks, err := h.Tasks.FetchTasksForUser(r.Context(), u.ID)
	if err != nil {
		serviceError(w, err, "export_tasks")
		return
	}

	users, err := h.Tasks.UsersMap(r.Context())
	if err != nil {
		serviceError(w, err, "export_tasks")
		return
	}

	stamp := time.Now().Format("20060102_150405")

	switch format {
	case "csv":
		payload, err := export.CSV(tasks, users)
		if err != nil {
			serviceError(w, err, "export_tasks")
			return
		}
		responseWithJSON(w, http.StatusOK, dto.ExportResponse{
			Filename: fmt.Sprintf("tasks_%s.csv", stamp),
			Mime:     export.MimeCSV,
			DataURI:  export.DataURI(export.MimeCSV, payload),
		})

	case "json":
		payload, err := export.JSON(tasks)
		if err != nil {
			serviceError(w, err, "export_tasks")
			return
		}
		responseWithJSON(w, http.StatusOK, dto.ExportResponse{
			Filename: fmt.Sprintf("tasks_%s.json", stamp),
			Mime:     export.MimeJSON,
			DataURI:  export.DataURI(export.MimeJSON, payload),
		})

	case "xlsx":
		payload, err := export.XLSX(tasks, users)
		if err != nil {
			serviceError(w, err, "export_tasks")
			return
		}
		w.Header().Set("Content-Type", export.MimeXLSX)
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("tasks_%s.xlsx", stamp)))
		w.WriteHeader(http.StatusOK)
		w.Write(payload)

	default:
		logger.Warn("HTTP: Неверное значение параметра",
			zap.String("query", "format"),
			zap.String("received", format),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неподдерживаемый формат: "+format)
		return
	}

	logger.Info("HTTP_OUT: Выгрузка завершена",
		zap.String("format", format),
		zap.Int("tasks", len(tasks)),
		zap.Duration("ms", time.Since(start)))
}
