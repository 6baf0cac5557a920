package main

import (
	"context"
	"net/http"
	"os"

	"github.com/stridewell/healthsync/pkg/bootstrap"
	"github.com/stridewell/healthsync/pkg/infrastructure/sentry"
)

func main() {
	ctx := context.Background()

	logger := bootstrap.NewLogger("api", false)

	if err := sentry.Init(sentry.Config{
		DSN:         os.Getenv("SENTRY_DSN"),
		Environment: os.Getenv("ENVIRONMENT"),
		Release:     os.Getenv("RELEASE"),
		ServerName:  "api",
	}, logger); err != nil {
		logger.Warn("Sentry init failed", "error", err)
	}

	svc, err := bootstrap.NewService(ctx)
	if err != nil {
		logger.Error("Service init failed", "error", err)
		os.Exit(1)
	}

	server := NewServer(svc, logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info("API listening", "port", port)
	if err := http.ListenAndServe(":"+port, server.Routes()); err != nil {
		logger.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
