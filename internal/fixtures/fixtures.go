// Package fixtures holds the sample cases a fresh installation starts with.
package fixtures

import (
	"bytes"
	"context"
	"log/slog"

	_ "embed"

	"github.com/myrjola/mysteries/internal/errors"
	"github.com/myrjola/mysteries/internal/ingest"
	"gopkg.in/yaml.v3"
)

//go:embed cases.yaml
var casesYAML []byte

type Counter interface {
	Count(ctx context.Context) (int, error)
}

type Ingester interface {
	Ingest(ctx context.Context, draft ingest.CaseDraft) (int64, error)
}

// Load decodes the embedded sample cases.
func Load() ([]ingest.CaseDraft, error) {
	var drafts []ingest.CaseDraft
	decoder := yaml.NewDecoder(bytes.NewReader(casesYAML))
	decoder.KnownFields(true)
	if err := decoder.Decode(&drafts); err != nil {
		return nil, errors.Wrap(err, "decode fixtures")
	}
	return drafts, nil
}

// Seed ingests the sample cases when the store is empty and returns how many were added.
func Seed(ctx context.Context, store Counter, pipeline Ingester, logger *slog.Logger) (int, error) {
	count, err := store.Count(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "count cases")
	}
	if count > 0 {
		logger.LogAttrs(ctx, slog.LevelDebug, "store not empty, skipping fixtures", slog.Int("cases", count))
		return 0, nil
	}

	drafts, err := Load()
	if err != nil {
		return 0, err
	}
	for i, draft := range drafts {
		var id int64
		if id, err = pipeline.Ingest(ctx, draft); err != nil {
			return i, errors.Wrap(err, "ingest fixture", slog.String("title", draft.Title))
		}
		logger.LogAttrs(ctx, slog.LevelInfo, "seeded case", slog.Int64("case_id", id),
			slog.String("title", draft.Title))
	}
	return len(drafts), nil
}
