package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"taskboard/internal/auth"
	"taskboard/internal/server"
	"taskboard/internal/storage/files"
	"taskboard/internal/storage/sqlite"
	"taskboard/internal/util"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	addrFlag := flag.String("addr", util.EnvOrDefault("TASKBOARD_ADDR", ":8080"), "HTTP listen address")
	dbFlag := flag.String("db", util.EnvOrDefault("TASKBOARD_DB_PATH", "data/taskboard.db"), "Path to sqlite database file")
	uploadsFlag := flag.String("uploads", util.EnvOrDefault("TASKBOARD_UPLOAD_DIR", "data/uploads"), "Directory for attachment files")
	staticFlag := flag.String("static", util.EnvOrDefault("TASKBOARD_STATIC_DIR", "web/dist"), "Directory with built frontend")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	tokens, err := auth.NewTokens(os.Getenv("TASKBOARD_SECRET"))
	if err != nil {
		logger.Error("TASKBOARD_SECRET must be set", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store, err := sqlite.Open(*dbFlag, logger)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	fileStore, err := files.New(*uploadsFlag)
	if err != nil {
		logger.Error("unable to prepare upload directory", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := server.New(store, fileStore, tokens, logger, *staticFlag)

	httpServer := &http.Server{
		Addr:    *addrFlag,
		Handler: srv.Engine(),
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}
