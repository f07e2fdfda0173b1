package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"
	"taskManager/internal/service"

	"go.uber.org/zap"
)

type ClientHandler struct {
	Clients *service.ClientService
}

func NewClientHandler(clients *service.ClientService) ClientHandler {
	return ClientHandler{Clients: clients}
}

func (h *ClientHandler) GetClients(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if _, ok := requestUser(w, r); !ok {
		return
	}

	clients, err := h.Clients.FetchClients(r.Context())
	if err != nil {
		serviceError(w, err, "get_clients")
		return
	}

	logger.Info("HTTP_OUT: Клиенты получены",
		zap.Int("count", len(clients)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, clients)
}

func (h *ClientHandler) PostClient(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u, ok := requestUser(w, r)
	if !ok {
		return
	}

	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	c, err := h.Clients.AddClient(r.Context(), u.ID, request.ToClient())
	if err != nil {
		serviceError(w, err, "create_client")
		return
	}

	logger.Info("HTTP_OUT: Клиент создан",
		zap.String("client_id", c.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, c)
}

func (h *ClientHandler) UpdateClientByID(w http.ResponseWriter, r *http.Request) {
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

	var request dto.ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	c := request.ToClient()
	c.ID = id

	updated, err := h.Clients.UpdateClient(r.Context(), u.ID, c)
	if err != nil {
		serviceError(w, err, "update_client")
		return
	}

	logger.Info("HTTP_OUT: Клиент обновлён",
		zap.String("client_id", updated.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, updated)
}

func (h *ClientHandler) DeleteClientByID(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u, ok := requestUser(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Clients.DeleteClient(r.Context(), u.ID, id); err != nil {
		serviceError(w, err, "delete_client")
		return
	}

	logger.Info("HTTP_OUT: Клиент удалён",
		zap.String("client_id", id.String()),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}
