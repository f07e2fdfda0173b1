package app

import (
	"context"
	"fmt"
	"net/http"

	"taskManager/internal/config"
	"taskManager/internal/handlers"
	"taskManager/internal/logger"
	"taskManager/internal/middleware"
	"taskManager/internal/repository"
	"taskManager/internal/repository/inmemory"
	"taskManager/internal/repository/postgres"
	"taskManager/internal/service"
	"taskManager/internal/storage"
	"taskManager/internal/token"
	"taskManager/internal/worker"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// storage — одна реализация на все репозитории
type repositories interface {
	repository.TaskRepository
	repository.ClientRepository
	repository.ProfileRepository
	repository.SessionRepository
}

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	repos     repositories
	bucket    storage.Bucket
	sweeper   *worker.Sweeper
	shutdowns []func() // функции для graceful shutdown, вызываются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	if err := a.initRepository(ctx); err != nil {
		return err
	}

	if err := a.initBucket(); err != nil {
		return err
	}

	a.initRouter()

	a.sweeper = worker.NewSweeper(a.repos, a.repos, a.bucket, a.config.Worker.SweepInterval)

	a.server = &http.Server{
		Addr:    a.config.GetServerAddr(),
		Handler: a.router,
	}

	return nil
}

func (a *App) initRepository(ctx context.Context) error {
	switch a.config.Repository.Type {
	case "postgres":
		if err := postgres.Migrate(a.config.Database.URL, a.config.Database.MigrationsPath); err != nil {
			return fmt.Errorf("миграции: %w", err)
		}

		pg, err := postgres.New(ctx,
			a.config.Database.URL,
			a.config.Database.MaxConnections,
			a.config.Database.MinConnections,
		)
		if err != nil {
			return fmt.Errorf("подключение к postgres: %w", err)
		}

		a.repos = pg
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("Закрытие пула соединений...")
			pg.Close()
		})

	case "inmemory":
		a.repos = inmemory.New()

	default:
		return fmt.Errorf("неизвестный тип репозитория: %s", a.config.Repository.Type)
	}

	return nil
}

func (a *App) initBucket() error {
	bucket, err := storage.NewDiskBucket(afero.NewOsFs(), a.config.Storage.Root, a.config.Storage.BaseURL)
	if err != nil {
		return fmt.Errorf("инициализация хранилища файлов: %w", err)
	}
	a.bucket = bucket
	return nil
}

func (a *App) initRouter() {
	tokens := token.NewManager(
		a.config.Auth.AccessSecret,
		a.config.Auth.RefreshSecret,
		a.config.Auth.AccessTTL,
		a.config.Auth.RefreshTTL,
	)

	taskService := service.NewTaskService(a.repos, a.repos)
	authService := service.NewAuthService(a.repos, a.repos, tokens)
	clientService := service.NewClientService(a.repos)
	attachmentService := service.NewAttachmentService(&taskService, a.bucket)

	taskHandler := handlers.NewTaskHandler(&taskService, &attachmentService)
	authHandler := handlers.NewAuthHandler(&authService)
	clientHandler := handlers.NewClientHandler(&clientService)
	overviewHandler := handlers.NewOverviewHandler(&taskService)
	fileHandler := handlers.NewFileHandler(a.bucket)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.RateLimit(a.config.Server.RateLimitRPM))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.SignUp)   // POST /auth/signup
		r.Post("/signin", authHandler.SignIn)   // POST /auth/signin
		r.Post("/restore", authHandler.Restore) // POST /auth/restore

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokens))
			r.Post("/signout", authHandler.SignOut) // POST /auth/signout
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tokens))

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.GetTasks)  // GET /tasks
			r.Post("/", taskHandler.PostTask) // POST /tasks

			r.Get("/overview", overviewHandler.GetOverview) // GET /tasks/overview
			r.Get("/export", overviewHandler.ExportTasks)   // GET /tasks/export

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.GetTaskByID)       // GET /tasks/{id}
				r.Put("/", taskHandler.UpdateTaskByID)    // PUT /tasks/{id}
				r.Delete("/", taskHandler.DeleteTaskByID) // DELETE /tasks/{id}

				r.Put("/subtasks", taskHandler.PutSubtasks)   // PUT /tasks/{id}/subtasks
				r.Put("/comments", taskHandler.PutComments)   // PUT /tasks/{id}/comments
				r.Put("/assignees", taskHandler.PutAssignees) // PUT /tasks/{id}/assignees

				r.Post("/subtasks", taskHandler.PostSubtask) // POST /tasks/{id}/subtasks
				r.Post("/comments", taskHandler.PostComment) // POST /tasks/{id}/comments

				r.Put("/pdf", taskHandler.AttachTaskPDF)      // PUT /tasks/{id}/pdf
				r.Delete("/pdf", taskHandler.RemoveTaskPDF)   // DELETE /tasks/{id}/pdf

				r.Route("/subtasks/{subID}", func(r chi.Router) {
					r.Patch("/", taskHandler.PatchSubtask)   // PATCH /tasks/{id}/subtasks/{subID}
					r.Delete("/", taskHandler.DeleteSubtask) // DELETE /tasks/{id}/subtasks/{subID}

					r.Put("/pdf", taskHandler.AttachSubtaskPDF)    // PUT /tasks/{id}/subtasks/{subID}/pdf
					r.Delete("/pdf", taskHandler.RemoveSubtaskPDF) // DELETE /tasks/{id}/subtasks/{subID}/pdf
				})
			})
		})

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", clientHandler.GetClients)  // GET /clients
			r.Post("/", clientHandler.PostClient) // POST /clients

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", clientHandler.UpdateClientByID)    // PUT /clients/{id}
				r.Delete("/", clientHandler.DeleteClientByID) // DELETE /clients/{id}
			})
		})

		r.Get("/users", taskHandler.GetUsers) // GET /users
		r.Get("/files/*", fileHandler.GetFile) // GET /files/{key}
	})

	r.Get("/health", taskHandler.HealthCheck)

	a.router = r
}

// Run блокируется до отмены контекста, затем гасит сервер и фоновые задачи.
func (a *App) Run(ctx context.Context) error {
	workerCtx, cancelWorker := context.WithCancel(context.Background())
	go a.sweeper.Start(workerCtx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		cancelWorker()
		return fmt.Errorf("ошибка сервера: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Получен сигнал остановки, завершение работы...")
	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка при остановке сервера", err)
	}

	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}

	return nil
}

// Router отдаёт собранный маршрутизатор, нужен интеграционным тестам.
func (a *App) Router() http.Handler {
	return a.router
}
