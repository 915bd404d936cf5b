// Command mysteries-mcp serves the case store to MCP clients over stdin/stdout.
package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/myrjola/mysteries/internal/ai"
	"github.com/myrjola/mysteries/internal/envstruct"
	"github.com/myrjola/mysteries/internal/errors"
	"github.com/myrjola/mysteries/internal/ingest"
	"github.com/myrjola/mysteries/internal/logging"
	"github.com/myrjola/mysteries/internal/mcpserver"
	"github.com/myrjola/mysteries/internal/repositories"
	"github.com/myrjola/mysteries/internal/sqlite"
)

type config struct {
	SqliteURL       string        `env:"MYSTERIES_SQLITE_URL"       envDefault:"./mysteries.sqlite"`
	OpenAIAPIKey    string        `env:"OPENAI_API_KEY"             envDefault:""`
	OpenAIBaseURL   string        `env:"OPENAI_BASE_URL"            envDefault:"https://api.openai.com/v1"`
	OpenAIModel     string        `env:"MYSTERIES_OPENAI_MODEL"     envDefault:"gpt-3.5-turbo"`
	GenerateTimeout time.Duration `env:"MYSTERIES_GENERATE_TIMEOUT" envDefault:"60s"`
}

func version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "devel"
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open database", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "failed to close database", errors.SlogError(closeErr))
		}
	}()

	cases := repositories.NewCaseRepository(db, logger)
	var generator ingest.Generator
	if cfg.OpenAIAPIKey != "" {
		generator = ai.NewClient(ai.Config{ //nolint:exhaustruct // default token budget and temperature.
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
	}
	pipeline := ingest.NewPipeline(cases, generator, logger, ingest.WithTimeout(cfg.GenerateTimeout))

	logger.LogAttrs(ctx, slog.LevelInfo, "serving MCP on stdio", slog.String("db", cfg.SqliteURL))
	if err = mcpserver.New(cases, pipeline, logger, version()).ServeStdio(); err != nil {
		return errors.Wrap(err, "serve stdio")
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// Stdout carries the protocol, logs go to stderr.
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelInfo,
		ReplaceAttr: nil,
	})))

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.LogAttrs(ctx, slog.LevelError, "failed to load .env", errors.SlogError(err))
		os.Exit(1) //nolint:gocritic // stop is only a signal registration.
	}

	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "mcp server failed", errors.SlogError(err))
		os.Exit(1)
	}
}
