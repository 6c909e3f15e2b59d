// Package main is the entry point for the ijara rental listing server.
//
// Its job is deliberately small: load configuration from the environment,
// build the logger, and hand everything to internal/server. All actual
// logic lives in the internal packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/otabek/ijara/internal/server"
	s3store "github.com/otabek/ijara/internal/storage/s3"
)

func main() {
	// .env is a development convenience; in production the variables come
	// from the real environment and the file simply does not exist.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	templateDir, _ := filepath.Abs("web/templates")
	staticDir, _ := filepath.Abs("web/static")

	dbPath := envOr("DB_PATH", "data/ijara.db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	cfg := server.Config{
		Port:        port,
		TemplateDir: templateDir,
		StaticDir:   staticDir,
		DBPath:      dbPath,

		// BOT_TOKEN comes from @BotFather. SESSION_SECRET must be a long
		// random string, e.g. $(openssl rand -hex 32).
		BotToken:      os.Getenv("BOT_TOKEN"),
		SessionSecret: os.Getenv("SESSION_SECRET"),

		Storage: s3store.Config{
			Endpoint:      os.Getenv("S3_ENDPOINT"),
			Region:        envOr("S3_REGION", "us-east-1"),
			Bucket:        envOr("S3_BUCKET", "houses"),
			AccessKey:     os.Getenv("S3_ACCESS_KEY"),
			SecretKey:     os.Getenv("S3_SECRET_KEY"),
			PublicBaseURL: os.Getenv("S3_PUBLIC_URL"),
		},
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down via SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
