package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"taskManager/internal/handlers"
	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"
	"taskManager/internal/middleware"
	"taskManager/internal/repository/inmemory"
	"taskManager/internal/service"
	"taskManager/internal/storage"
	"taskManager/internal/token"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init(true)
	os.Exit(m.Run())
}

type testEnv struct {
	router http.Handler
	bucket *storage.DiskBucket
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repos := inmemory.New()
	bucket, err := storage.NewDiskBucket(afero.NewMemMapFs(), "uploads", "http://localhost:8080/files")
	require.NoError(t, err)

	tokens := token.NewManager("access", "refresh", time.Minute, time.Hour)

	taskService := service.NewTaskService(repos, repos)
	authService := service.NewAuthService(repos, repos, tokens)
	clientService := service.NewClientService(repos)
	attachmentService := service.NewAttachmentService(&taskService, bucket)

	taskHandler := handlers.NewTaskHandler(&taskService, &attachmentService)
	authHandler := handlers.NewAuthHandler(&authService)
	clientHandler := handlers.NewClientHandler(&clientService)
	overviewHandler := handlers.NewOverviewHandler(&taskService)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	r.Post("/auth/signup", authHandler.SignUp)
	r.Post("/auth/signin", authHandler.SignIn)
	r.Post("/auth/restore", authHandler.Restore)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tokens))
		r.Post("/auth/signout", authHandler.SignOut)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.GetTasks)
			r.Post("/", taskHandler.PostTask)
			r.Get("/overview", overviewHandler.GetOverview)
			r.Get("/export", overviewHandler.ExportTasks)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.GetTaskByID)
				r.Put("/", taskHandler.UpdateTaskByID)
				r.Delete("/", taskHandler.DeleteTaskByID)
				r.Put("/pdf", taskHandler.AttachTaskPDF)
				r.Delete("/pdf", taskHandler.RemoveTaskPDF)
				r.Post("/subtasks", taskHandler.PostSubtask)
				r.Post("/comments", taskHandler.PostComment)
			})
		})

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", clientHandler.GetClients)
			r.Post("/", clientHandler.PostClient)
		})
	})

	return &testEnv{router: r, bucket: bucket}
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) signUpAndIn(t *testing.T, email string) (dto.ProfileResponse, string) {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/auth/signup", "", dto.SignUpRequest{
		Email: email, Password: "secret", FullName: "Мастер",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/auth/signin", "", dto.SignInRequest{Email: email, Password: "secret"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var auth dto.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &auth))
	return auth.User, auth.Tokens.Access
}

func decodeTask(t *testing.T, rec *httptest.ResponseRecorder) dto.TaskResponse {
	t.Helper()
	var resp dto.TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestAuth_SignUpDuplicate(t *testing.T) {
	env := newTestEnv(t)

	body := dto.SignUpRequest{Email: "master@firm.ru", Password: "secret"}
	rec := env.do(t, http.MethodPost, "/auth/signup", "", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/signup", "", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "ALREADY_EXISTS")
}

func TestAuth_SignInWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.signUpAndIn(t, "master@firm.ru")

	rec := env.do(t, http.MethodPost, "/auth/signin", "", dto.SignInRequest{
		Email: "master@firm.ru", Password: "чужой",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_CREDENTIALS")
}

func TestAuth_RestoreRotatesRefresh(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/signup", "", dto.SignUpRequest{Email: "m@f.ru", Password: "secret"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(t, http.MethodPost, "/auth/signin", "", dto.SignInRequest{Email: "m@f.ru", Password: "secret"})
	require.Equal(t, http.StatusOK, rec.Code)

	var auth dto.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &auth))

	rec = env.do(t, http.MethodPost, "/auth/restore", "", dto.RestoreRequest{RefreshToken: auth.Tokens.Refresh})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// старый refresh отозван ротацией
	rec = env.do(t, http.MethodPost, "/auth/restore", "", dto.RestoreRequest{RefreshToken: auth.Tokens.Refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTasks_RequireAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/tasks", "мусорный-токен", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTasks_CreateAndFetch(t *testing.T) {
	env := newTestEnv(t)
	user, access := env.signUpAndIn(t, "master@firm.ru")

	rec := env.do(t, http.MethodPost, "/tasks", access, dto.CreateTaskRequest{
		Title: "Монтаж вывески", Description: "по договору 17",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decodeTask(t, rec)
	assert.Equal(t, user.ID, created.Owner)
	assert.Equal(t, "open", created.Status)
	assert.Equal(t, 1, created.Version)

	rec = env.do(t, http.MethodGet, "/tasks", access, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []dto.TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestTasks_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	_, access := env.signUpAndIn(t, "master@firm.ru")

	rec := env.do(t, http.MethodPost, "/tasks", access, dto.CreateTaskRequest{Title: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestTasks_UpdateVersionConflict(t *testing.T) {
	env := newTestEnv(t)
	_, access := env.signUpAndIn(t, "master@firm.ru")

	rec := env.do(t, http.MethodPost, "/tasks", access, dto.CreateTaskRequest{Title: "Задача"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeTask(t, rec)

	title := "Правка"
	rec = env.do(t, http.MethodPut, "/tasks/"+created.ID.String(), access, dto.UpdateTaskRequest{
		Version: created.Version, Title: &title,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// повтор с той же версией проигрывает
	stale := "Потерянная правка"
	rec = env.do(t, http.MethodPut, "/tasks/"+created.ID.String(), access, dto.UpdateTaskRequest{
		Version: created.Version, Title: &stale,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "VERSION_CONFLICT")
}

func TestTasks_VisibilityBetweenUsers(t *testing.T) {
	env := newTestEnv(t)
	_, ownerAccess := env.signUpAndIn(t, "owner@firm.ru")
	_, strangerAccess := env.signUpAndIn(t, "stranger@firm.ru")

	rec := env.do(t, http.MethodPost, "/tasks", ownerAccess, dto.CreateTaskRequest{Title: "Приватная"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeTask(t, rec)

	rec = env.do(t, http.MethodGet, "/tasks/"+created.ID.String(), strangerAccess, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/tasks", strangerAccess, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []dto.TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list)
}

func TestTasks_AttachAndRemovePDF(t *testing.T) {
	env := newTestEnv(t)
	_, access := env.signUpAndIn(t, "master@firm.ru")

	rec := env.do(t, http.MethodPost, "/tasks", access, dto.CreateTaskRequest{Title: "С отчётом"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeTask(t, rec)

	req := httptest.NewRequest(http.MethodPut, "/tasks/"+created.ID.String()+"/pdf",
		bytes.NewReader([]byte("%PDF-1.4 отчёт")))
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Authorization", "Bearer "+access)
	attach := httptest.NewRecorder()
	env.router.ServeHTTP(attach, req)
	require.Equal(t, http.StatusOK, attach.Code, attach.Body.String())

	closed := decodeTask(t, attach)
	require.NotNil(t, closed.PDFURL)
	assert.Equal(t, "closed", closed.Status)

	// загруженный объект действительно лежит в хранилище
	keys, err := env.bucket.List(req.Context())
	require.NoError(t, err)
	require.Len(t, keys, 1)

	rec = env.do(t, http.MethodDelete, "/tasks/"+created.ID.String()+"/pdf", access, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	reopened := decodeTask(t, rec)
	assert.Nil(t, reopened.PDFURL)
	assert.Equal(t, "open", reopened.Status)
}

func TestTasks_AttachPDFWrongContentType(t *testing.T) {
	env := newTestEnv(t)
	_, access := env.signUpAndIn(t, "master@firm.ru")

	rec := env.do(t, http.MethodPost, "/tasks", access, dto.CreateTaskRequest{Title: "Задача"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeTask(t, rec)

	rec = env.do(t, http.MethodPut, "/tasks/"+created.ID.String()+"/pdf", access, map[string]string{"не": "pdf"})
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestTasks_SubtasksAndComments(t *testing.T) {
	env := newTestEnv(t)
	user, access := env.signUpAndIn(t, "master@firm.ru")

	rec := env.do(t, http.MethodPost, "/tasks", access, dto.CreateTaskRequest{Title: "Монтаж"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeTask(t, rec)

	rec = env.do(t, http.MethodPost, "/tasks/"+created.ID.String()+"/subtasks", access,
		dto.AddSubtaskRequest{Title: "Замер"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	withSub := decodeTask(t, rec)
	require.Len(t, withSub.Subtasks, 1)
	assert.Equal(t, "Замер", withSub.Subtasks[0].Title)
	assert.False(t, withSub.Subtasks[0].Done)

	rec = env.do(t, http.MethodPost, "/tasks/"+created.ID.String()+"/comments", access,
		dto.AddCommentRequest{Text: "выезд в пятницу"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	withComment := decodeTask(t, rec)
	require.Len(t, withComment.Comments, 1)
	assert.Equal(t, user.Email, withComment.Comments[0].Author)
}

func TestOverviewEndpoint(t *testing.T) {
	env := newTestEnv(t)
	_, access := env.signUpAndIn(t, "master@firm.ru")

	rec := env.do(t, http.MethodPost, "/tasks", access, dto.CreateTaskRequest{Title: "Без подзадач"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/tasks/overview?width=500", access, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		Counters struct {
			Total int `json:"total"`
			Open  int `json:"open"`
		} `json:"counters"`
		Rows   []map[string]any `json:"rows"`
		Layout string           `json:"layout"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	assert.Equal(t, 1, result.Counters.Total)
	assert.Equal(t, 1, result.Counters.Open)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, true, result.Rows[0]["placeholder"])
	assert.Equal(t, "cards", result.Layout)
}

func TestExportEndpoint(t *testing.T) {
	env := newTestEnv(t)
	_, access := env.signUpAndIn(t, "master@firm.ru")

	rec := env.do(t, http.MethodPost, "/tasks", access, dto.CreateTaskRequest{Title: "Задача"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/tasks/export?format=csv", access, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp dto.ExportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Filename, ".csv")
	assert.True(t, len(resp.DataURI) > 0 && resp.DataURI[:5] == "data:")

	rec = env.do(t, http.MethodGet, "/tasks/export?format=шахматы", access, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClients_CRUD(t *testing.T) {
	env := newTestEnv(t)
	user, access := env.signUpAndIn(t, "master@firm.ru")

	rec := env.do(t, http.MethodPost, "/clients", access, dto.ClientRequest{
		BranchName: "Филиал на Ленина",
		City:       "Пермь",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, user.ID.String(), created["owner"])

	rec = env.do(t, http.MethodGet, "/clients", access, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Филиал на Ленина", list[0]["branch_name"])
}

func TestRequestIDHeaderPropagated(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/signin", "", dto.SignInRequest{Email: "x@y.z", Password: "p"})
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
