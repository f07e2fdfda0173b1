package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"time"

	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"
	"taskManager/internal/service"

	"go.uber.org/zap"
)

// maxPDFSize ограничивает тело загрузки отчёта.
const maxPDFSize = 10 << 20

type TaskHandler struct {
	Tasks       *service.TaskService
	Attachments *service.AttachmentService
}

func NewTaskHandler(tasks *service.TaskService, attachments *service.AttachmentService) TaskHandler {
	return TaskHandler{
		Tasks:       tasks,
		Attachments: attachments,
	}
}

func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := h.Tasks.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Health check провален", err)
		responseWithFields(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"))
		return
	}

	responseWithFields(w, http.StatusOK, toPayload("status", "ok"))
}

func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u, ok := requestUser(w, r)
	if !ok {
		return
	}

	tasks, err := h.Tasks.FetchTasksForUser(r.Context(), u.ID)
	if err != nil {
		serviceError(w, err, "get_tasks")
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.FromTaskList(tasks))
}

func (h *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u, ok := requestUser(w, r)
	if !ok {
		return
	}

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	t, err := h.Tasks.AddTask(r.Context(), u.ID, request.Title, request.Description, request.ClientID)
	if err != nil {
		serviceError(w, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", t.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, dto.FromTask(t))
}

func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u, ok := requestUser(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	t, err := h.Tasks.FetchTask(r.Context(), u.ID, id)
	if err != nil {
		serviceError(w, err, "get_task")
		return
	}

	logger.Info("HTTP_OUT: Задача получена",
		zap.String("task_id", t.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.FromTask(t))
}

func (h *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u, ok := requestUser(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var request dto.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверно переданы параметры обновления: "+err.Error())
		return
	}

	var options []service.TaskOption
	if request.Title != nil {
		options = append(options, service.WithTitle(*request.Title))
	}
	if request.Description != nil {
		options = append(options, service.WithDescription(*request.Description))
	}
	if request.Status != nil {
		options = append(options, service.WithStatus(*request.Status))
	}
	if request.ClientID != nil {
		options = append(options, service.WithClientID(request.ClientID))
	}

	t, err := h.Tasks.UpdateTask(r.Context(), u.ID, id, request.Version, options...)
	if err != nil {
		serviceError(w, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("task_id", t.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.FromTask(t))
}

func (h *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u, ok := requestUser(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Tasks.DeleteTask(r.Context(), u.ID, id); err != nil {
		serviceError(w, err, "delete_task")
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) PutSubtasks(w http.ResponseWriter, r *http.Request) {
	u, ok := requestUser(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var request dto.SetSubtasksRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	t, err := h.Tasks.SetSubtasks(r.Context(), u.ID, id, request.Version, request.Subtasks)
	if err != nil {
		serviceError(w, err, "set_subtasks")
		return
	}

	responseWithJSON(w, http.StatusOK, dto.FromTask(t))
}

func (h *TaskHandler) PutComments(w http.ResponseWriter, r *http.Request) {
	u, ok := requestUser(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var request dto.SetCommentsRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	t, err := h.Tasks.SetComments(r.Context(), u.ID, id, request.Version, request.Comments)
	if err != nil {
		serviceError(w, err, "set_comments")
		return
	}

	responseWithJSON(w, http.StatusOK, dto.FromTask(t))
}

func (h *TaskHandler) PutAssignees(w http.ResponseWriter, r *http.Request) {
	u, ok := requestUser(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var request dto.SetAssigneesRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	t, err := h.Tasks.SetAssignees(r.Context(), u.ID, id, request.Version, request.Assignees)
	if err != nil {
		serviceError(w, err, "set_assignees")
		return
	}

	responseWithJSON(w, http.StatusOK, dto.FromTask(t))
}

func (h *TaskHandler) PostSubtask(w http.ResponseWriter, r *http.Request) {
	u, ok := requestUser(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var request dto.AddSubtaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	t, err := h.Tasks.AddSubtask(r.Context(), u.ID, id, request.Title)
	if err != nil {
		serviceError(w, err, "add_subtask")
		return
	}

	responseWithJSON(w, http.StatusCreated, dto.FromTask(t))
}

func (h *TaskHandler) PatchSubtask(w http.ResponseWriter, r *http.Request) {
	u, ok := requestUser(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	subID, ok := pathID(w, r, "subID")
	if !ok {
		return
	}

	var request dto.ToggleSubtaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	t, err := h.Tasks.ToggleSubtask(r.Context(), u.ID, id, subID, request.Done)
	if err != nil {
		serviceError(w, err, "toggle_subtask")
		return
	}

	responseWithJSON(w, http.StatusOK, dto.FromTask(t))
}

func (h *TaskHandler) DeleteSubtask(w http.ResponseWriter, r *http.Request) {
	u, ok := requestUser(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	subID, ok := pathID(w, r, "subID")
	if !ok {
		return
	}

	t, err := h.Tasks.DeleteSubtask(r.Context(), u.ID, id, subID)
	if err != nil {
		serviceError(w, err, "delete_subtask")
		return
	}

	responseWithJSON(w, http.StatusOK, dto.FromTask(t))
}

func (h *TaskHandler) PostComment(w http.ResponseWriter, r *http.Request) {
	u, ok := requestUser(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var request dto.AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	t, err := h.Tasks.AddComment(r.Context(), u.ID, id, request.Text)
	if err != nil {
		serviceError(w, err, "add_comment")
		return
	}

	responseWithJSON(w, http.StatusCreated, dto.FromTask(t))
}

func (h *TaskHandler) readPDF(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if !checkContentType(r, "application/pdf") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/pdf"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/pdf")
		return nil, false
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPDFSize))
	if err != nil {
		logger.Warn("HTTP: Ошибка чтения тела",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusRequestEntityTooLarge, "не удалось прочитать файл: "+err.Error())
		return nil, false
	}

	if len(data) == 0 {
		responseWithError(w, http.StatusBadRequest, "файл не может быть пустым")
		return nil, false
	}

	return data, true
}

func (h *TaskHandler) AttachTaskPDF(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u, ok := requestUser(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	data, ok := h.readPDF(w, r)
	if !ok {
		return
	}

	t, err := h.Attachments.AttachTaskPDF(r.Context(), u.ID, id, data)
	if err != nil {
		serviceError(w, err, "attach_task_pdf")
		return
	}

	logger.Info("HTTP_OUT: Отчёт прикреплён",
		zap.String("task_id", t.ID.String()),
		zap.Int("size", len(data)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.FromTask(t))
}

func (h *TaskHandler) RemoveTaskPDF(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u, ok := requestUser(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	t, err := h.Attachments.RemoveTaskPDF(r.Context(), u.ID, id)
	if err != nil {
		serviceError(w, err, "remove_task_pdf")
		return
	}

	responseWithJSON(w, http.StatusOK, dto.FromTask(t))
}

func (h *TaskHandler) AttachSubtaskPDF(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u, ok := requestUser(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	subID, ok := pathID(w, r, "subID")
	if !ok {
		return
	}

	data, ok := h.readPDF(w, r)
	if !ok {
		return
	}

	t, err := h.Attachments.AttachSubtaskPDF(r.Context(), u.ID, id, subID, data)
	if err != nil {
		serviceError(w, err, "attach_subtask_pdf")
		return
	}

	logger.Info("HTTP_OUT: Отчёт подзадачи прикреплён",
		zap.String("task_id", t.ID.String()),
		zap.String("subtask_id", subID.String()),
		zap.Int("size", len(data)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.FromTask(t))
}

func (h *TaskHandler) RemoveSubtaskPDF(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u, ok := requestUser(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	subID, ok := pathID(w, r, "subID")
	if !ok {
		return
	}

	t, err := h.Attachments.RemoveSubtaskPDF(r.Context(), u.ID, id, subID)
	if err != nil {
		serviceError(w, err, "remove_subtask_pdf")
		return
	}

	responseWithJSON(w, http.StatusOK, dto.FromTask(t))
}

// GetUsers отдаёт справочник пользователей для выбора исполнителей.
func (h *TaskHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if _, ok := requestUser(w, r); !ok {
		return
	}

	users, err := h.Tasks.UsersMap(r.Context())
	if err != nil {
		serviceError(w, err, "get_users")
		return
	}

	type userEntry struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	result := make([]userEntry, 0, len(users))
	for id, name := range users {
		result = append(result, userEntry{ID: id.String(), Name: name})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	responseWithJSON(w, http.StatusOK, result)
}
