package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"github.com/myrjola/mysteries/internal/ai"
	"github.com/myrjola/mysteries/internal/envstruct"
	"github.com/myrjola/mysteries/internal/errors"
	"github.com/myrjola/mysteries/internal/fixtures"
	"github.com/myrjola/mysteries/internal/ingest"
	"github.com/myrjola/mysteries/internal/logging"
	"github.com/myrjola/mysteries/internal/pprofserver"
	"github.com/myrjola/mysteries/internal/repositories"
	"github.com/myrjola/mysteries/internal/sqlite"
	"golang.org/x/sync/errgroup"
)

type application struct {
	logger      *slog.Logger
	cases       *repositories.CaseRepository
	pipeline    *ingest.Pipeline
	corsOrigins []string
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"MYSTERIES_ADDR" envDefault:"localhost:4000"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ephemeral in-memory database.
	SqliteURL string `env:"MYSTERIES_SQLITE_URL" envDefault:"./mysteries.sqlite"`
	// PprofAddr is the loopback port of the pprof server. Leave empty to disable it.
	PprofAddr       string        `env:"MYSTERIES_PPROF_ADDR"       envDefault:":6060"`
	OpenAIAPIKey    string        `env:"OPENAI_API_KEY"             envDefault:""`
	OpenAIBaseURL   string        `env:"OPENAI_BASE_URL"            envDefault:"https://api.openai.com/v1"`
	OpenAIModel     string        `env:"MYSTERIES_OPENAI_MODEL"     envDefault:"gpt-3.5-turbo"`
	GenerateTimeout time.Duration `env:"MYSTERIES_GENERATE_TIMEOUT" envDefault:"60s"`
	SeedFixtures    bool          `env:"MYSTERIES_SEED_FIXTURES"    envDefault:"true"`
	// CORSOrigins is a comma separated list of origins allowed to call the API.
	CORSOrigins string `env:"MYSTERIES_CORS_ORIGINS" envDefault:"*"`
}

func (c config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.SqliteURL, validation.Required),
		validation.Field(&c.OpenAIBaseURL, validation.Required, is.URL),
		validation.Field(&c.OpenAIModel, validation.Required),
		validation.Field(&c.GenerateTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.CORSOrigins, validation.Required),
	)
}

func (c config) origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cfg config
		err error
	)
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}
	if err = cfg.Validate(); err != nil {
		return errors.Wrap(err, "validate config")
	}

	var db *sqlite.Database
	if db, err = sqlite.NewDatabase(ctx, cfg.SqliteURL, logger); err != nil {
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
	} else {
		logger.LogAttrs(ctx, slog.LevelWarn, "OPENAI_API_KEY not set, case generation disabled")
	}
	pipeline := ingest.NewPipeline(cases, generator, logger, ingest.WithTimeout(cfg.GenerateTimeout))

	if cfg.SeedFixtures {
		if _, err = fixtures.Seed(ctx, cases, pipeline, logger); err != nil {
			return errors.Wrap(err, "seed fixtures")
		}
	}

	app := &application{
		logger:      logger,
		cases:       cases,
		pipeline:    pipeline,
		corsOrigins: cfg.origins(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return db.StartDatabaseOptimizer(gctx, time.Hour)
	})
	if cfg.PprofAddr != "" {
		g.Go(func() error {
			return pprofserver.Serve(gctx, cfg.PprofAddr, logger)
		})
	}
	g.Go(func() error {
		return app.configureAndStartServer(gctx, cfg.Addr, cfg.GenerateTimeout)
	})
	if err = g.Wait(); err != nil {
		return errors.Wrap(err, "run")
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   true,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.LogAttrs(ctx, slog.LevelError, "failed to load .env", errors.SlogError(err))
		os.Exit(1) //nolint:gocritic // stop is only a signal registration.
	}

	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
