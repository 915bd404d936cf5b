package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/myrjola/mysteries/internal/e2etest"
	"github.com/myrjola/mysteries/internal/errors"
	"github.com/myrjola/mysteries/internal/logging"
	"github.com/myrjola/mysteries/internal/models"
)

// TestReadAPI checks that the deployment answers health checks and serves the case list.
func TestReadAPI(ctx context.Context, client *e2etest.Client) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	var health map[string]string
	status, err := client.GetJSON(ctx, "/api/healthy", &health)
	if err != nil {
		return 0, errors.Wrap(err, "check health")
	}
	if status != http.StatusOK || health["status"] != "ok" {
		return 0, errors.New("unhealthy", slog.Int("status", status))
	}

	var summaries []models.CaseSummary
	if status, err = client.GetJSON(ctx, "/api/cases", &summaries); err != nil {
		return 0, errors.Wrap(err, "list cases")
	}
	if status != http.StatusOK {
		return 0, errors.New("list cases failed", slog.Int("status", status))
	}
	if len(summaries) > 0 {
		var detail map[string]any
		path := "/api/case/" + strconv.FormatInt(summaries[0].ID, 10)
		if status, err = client.GetJSON(ctx, path, &detail); err != nil {
			return 0, errors.Wrap(err, "read case", slog.String("path", path))
		}
		if status != http.StatusOK {
			return 0, errors.New("read case failed", slog.Int("status", status), slog.String("path", path))
		}
	}
	return len(summaries), nil
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	url := "https://" + os.Args[1]
	ctx = logging.WithAttrs(ctx, slog.String("hostname", url))

	count, err := TestReadAPI(ctx, e2etest.NewClient(url))
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing read API", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌", slog.Int("cases", count))
	os.Exit(0)
}
