package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/myrjola/mysteries/internal/ai"
	"github.com/myrjola/mysteries/internal/envstruct"
	"github.com/myrjola/mysteries/internal/errors"
	"github.com/myrjola/mysteries/internal/ingest"
	"github.com/myrjola/mysteries/internal/logging"
	"github.com/myrjola/mysteries/internal/repositories"
	"github.com/myrjola/mysteries/internal/sqlite"
	"github.com/spf13/cobra"
)

type config struct {
	SqliteURL       string        `env:"MYSTERIES_SQLITE_URL"       envDefault:"./mysteries.sqlite"`
	OpenAIAPIKey    string        `env:"OPENAI_API_KEY"             envDefault:""`
	OpenAIBaseURL   string        `env:"OPENAI_BASE_URL"            envDefault:"https://api.openai.com/v1"`
	OpenAIModel     string        `env:"MYSTERIES_OPENAI_MODEL"     envDefault:"gpt-3.5-turbo"`
	GenerateTimeout time.Duration `env:"MYSTERIES_GENERATE_TIMEOUT" envDefault:"60s"`
}

// cli holds the dependencies shared by the commands. They are opened in the root command's PersistentPreRunE.
type cli struct {
	lookupEnv func(string) (string, bool)
	logger    *slog.Logger
	db        *sqlite.Database
	cases     *repositories.CaseRepository
	pipeline  *ingest.Pipeline
	// ai is nil when OPENAI_API_KEY is not set.
	ai *ai.Client
}

func (c *cli) open(ctx context.Context, sqliteURL string, verbose bool, stderr io.Writer) error {
	var cfg config
	if err := envstruct.Populate(&cfg, c.lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}
	if sqliteURL != "" {
		cfg.SqliteURL = sqliteURL
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	c.logger = slog.New(logging.NewContextHandler(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		AddSource:   false,
		Level:       level,
		ReplaceAttr: nil,
	})))

	var err error
	if c.db, err = sqlite.NewDatabase(ctx, cfg.SqliteURL, c.logger); err != nil {
		return errors.Wrap(err, "open database", slog.String("url", cfg.SqliteURL))
	}
	c.cases = repositories.NewCaseRepository(c.db, c.logger)

	var generator ingest.Generator
	if cfg.OpenAIAPIKey != "" {
		c.ai = ai.NewClient(ai.Config{ //nolint:exhaustruct // default token budget and temperature.
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
		generator = c.ai
	}
	c.pipeline = ingest.NewPipeline(c.cases, generator, c.logger, ingest.WithTimeout(cfg.GenerateTimeout))
	return nil
}

func (c *cli) close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func newRootCmd(c *cli) *cobra.Command {
	var (
		sqliteURL string
		verbose   bool
	)
	rootCmd := &cobra.Command{
		Use:           "mysteries-cli",
		Short:         "Manage mystery cases",
		Long:          `Command line utilities for browsing, importing and generating mystery cases.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.open(cmd.Context(), sqliteURL, verbose, cmd.ErrOrStderr())
		},
	}
	rootCmd.PersistentFlags().StringVar(&sqliteURL, "sqlite-url", "",
		"SQLite database path, overrides MYSTERIES_SQLITE_URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.AddGroup(caseGroup, solutionGroup)
	rootCmd.AddCommand(c.caseCommand(), c.solutionCommand())
	return rootCmd
}

// execute runs the command line in args and releases the database afterwards.
func execute(ctx context.Context, args []string, lookupEnv func(string) (string, bool), stdout, stderr io.Writer) (
	err error,
) {
	c := &cli{lookupEnv: lookupEnv} //nolint:exhaustruct // the rest is opened lazily.
	defer func() {
		err = errors.Join(err, c.close())
	}()
	rootCmd := newRootCmd(c)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.ExecuteContext(ctx)
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := execute(context.Background(), os.Args[1:], os.LookupEnv, os.Stdout, os.Stderr); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
