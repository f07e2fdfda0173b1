package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"taskManager/internal/app"
	"taskManager/internal/config"
	"taskManager/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	// .env опционален, в проде переменные приходят из окружения
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ошибка конфигурации:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg)
	if err := a.Init(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "ошибка инициализации:", err)
		os.Exit(1)
	}

	// логгер уже инициализирован в Init, падение сервера уходит в него
	if err := a.Run(ctx); err != nil {
		logger.Fatal("Сервер завершился с ошибкой", err)
	}
}
