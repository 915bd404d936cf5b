package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/myrjola/mysteries/internal/errors"
	"github.com/myrjola/mysteries/internal/repositories"
	"github.com/myrjola/mysteries/internal/sqlite"
	"github.com/myrjola/mysteries/internal/testhelpers"
)

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	var (
		err       error
		start     = time.Now()
		ctx       context.Context
		sqliteURL string
		ok        bool
		cancel    context.CancelFunc
	)
	ctx = context.Background()
	ctx, cancel = context.WithTimeout(ctx, 5*time.Second) //nolint:mnd // 5 seconds

	if sqliteURL, ok = os.LookupEnv("MYSTERIES_SQLITE_URL"); !ok {
		logger.LogAttrs(ctx, slog.LevelError, "MYSTERIES_SQLITE_URL not set")
		os.Exit(1)
	}

	var db *sqlite.Database
	if db, err = sqlite.NewDatabase(ctx, sqliteURL, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error migrating database",
			slog.String("url", sqliteURL), errors.SlogError(err))
		os.Exit(1)
	}

	// Reading the cases through the repository verifies that the migrated schema still matches the queries.
	cases := repositories.NewCaseRepository(db, logger)
	var count int
	if count, err = cases.Count(ctx); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error counting cases", errors.SlogError(err))
		os.Exit(1)
	}
	if _, err = cases.List(ctx); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error listing cases", errors.SlogError(err))
		os.Exit(1)
	}
	if count == 0 {
		logger.LogAttrs(ctx, slog.LevelWarn, "no cases found, the database is likely fresh")
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "case count", slog.Int("count", count))

	if err = db.Close(); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error closing database", errors.SlogError(err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "Migration test successful 🙌", slog.Duration("duration", time.Since(start)))
	cancel()
	os.Exit(0)
}
