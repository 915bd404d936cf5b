package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/myrjola/mysteries/internal/errors"
	"github.com/myrjola/mysteries/internal/models"
	"github.com/myrjola/mysteries/internal/repositories"
)

var (
	// ErrValidation marks client payloads that are malformed or miss required fields.
	ErrValidation = errors.NewSentinel("invalid case")
	// ErrGeneration marks failures to obtain a usable case from the generator.
	ErrGeneration = errors.NewSentinel("case generation failed")

	errTrailingData = errors.NewSentinel("unexpected data after the case object")
)

// DefaultPrompt asks the generator for a complete case in the CaseDraft shape.
const DefaultPrompt = "Generate a random detective mystery case as a JSON object with the following fields: " +
	"title (string), desc (string), img (string, a plausible image URL), " +
	"clues (list of objects with title, desc, img), " +
	"timeline (list of strings), suspects (list of objects with name, relation, age, motive, alibi, notes, img), " +
	"realKiller (string, must match one suspect's name). " +
	"Make it creative, plausible, and fun. Use realistic names and details. " +
	"Example image URLs can be from unsplash or randomuser.me."

const (
	defaultTimeout = 60 * time.Second
	thumbnailTitle = "Thumbnail"
)

// Generator produces free text for a prompt.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Store persists a case atomically.
type Store interface {
	Update(ctx context.Context, fn func(w *repositories.CaseWriter) error) error
}

type Pipeline struct {
	store     Store
	generator Generator
	logger    *slog.Logger
	timeout   time.Duration
	prompt    string
}

type Option func(*Pipeline)

// WithTimeout bounds the generator call.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) {
		p.timeout = timeout
	}
}

func WithPrompt(prompt string) Option {
	return func(p *Pipeline) {
		p.prompt = prompt
	}
}

// NewPipeline creates an ingestion pipeline. The generator may be nil in which case Generate always fails.
func NewPipeline(store Store, generator Generator, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:     store,
		generator: generator,
		logger:    logger.With("source", "Pipeline"),
		timeout:   defaultTimeout,
		prompt:    DefaultPrompt,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IngestJSON decodes a client submitted case and stores it.
func (p *Pipeline) IngestJSON(ctx context.Context, r io.Reader) (int64, error) {
	var draft CaseDraft
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&draft); err != nil {
		return 0, errors.Wrap(fmt.Errorf("%w: malformed JSON body: %w", ErrValidation, err), "decode case")
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errTrailingData
		}
		return 0, errors.Wrap(fmt.Errorf("%w: malformed JSON body: %w", ErrValidation, err), "decode case")
	}
	return p.Ingest(ctx, draft)
}

// Ingest validates a client submitted case and stores it. Nothing is written when validation fails.
func (p *Pipeline) Ingest(ctx context.Context, draft CaseDraft) (int64, error) {
	draft.normalize()
	if err := draft.validateDirect(); err != nil {
		return 0, errors.Wrap(fmt.Errorf("%w: %w", ErrValidation, err), "validate case")
	}
	return p.persist(ctx, draft, "direct")
}

// Generate asks the generator for a new case, extracts and validates it and stores it.
func (p *Pipeline) Generate(ctx context.Context) (int64, error) {
	draft, err := p.generateDraft(ctx)
	if err != nil {
		return 0, errors.Wrap(fmt.Errorf("%w: %w", ErrGeneration, err), "generate case")
	}
	return p.persist(ctx, draft, "generated")
}

func (p *Pipeline) generateDraft(ctx context.Context) (CaseDraft, error) {
	var draft CaseDraft
	if p.generator == nil {
		return draft, errors.New("generator not configured")
	}

	generateCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	start := time.Now()
	text, err := p.generator.Complete(generateCtx, p.prompt)
	if err != nil {
		return draft, errors.Wrap(err, "complete prompt", slog.Duration("timeout", p.timeout))
	}
	p.logger.LogAttrs(ctx, slog.LevelDebug, "generator returned text",
		slog.Duration("duration", time.Since(start)), slog.Int("length", len(text)))

	object, err := ExtractJSONObject(text)
	if err != nil {
		return draft, errors.Wrap(err, "extract JSON object")
	}
	var generated generatedDraft
	if err = json.Unmarshal([]byte(object), &generated); err != nil {
		return draft, errors.Wrap(err, "decode generated case")
	}
	draft, unreadable := generated.caseDraft()
	if len(unreadable) > 0 {
		p.logger.LogAttrs(ctx, slog.LevelWarn, "stored unreadable suspect ages as unknown",
			slog.Any("suspects", unreadable))
	}
	draft.normalize()
	if err = draft.validateGenerated(); err != nil {
		return draft, errors.Wrap(err, "validate generated case")
	}
	return draft, nil
}

// persist writes the case and its children in one transaction.
func (p *Pipeline) persist(ctx context.Context, draft CaseDraft, mode string) (int64, error) {
	if !draft.culpritIsSuspect() {
		p.logger.LogAttrs(ctx, slog.LevelWarn, "culprit does not match any suspect",
			slog.String("title", draft.Title), slog.String("culprit", draft.RealKiller))
	}

	var caseID int64
	err := p.store.Update(ctx, func(w *repositories.CaseWriter) error {
		var err error
		if caseID, err = w.CreateCase(ctx, draft.Title, draft.Desc, draft.Time); err != nil {
			return err
		}
		thumbnail := models.Clue{Img: draft.Img, Title: thumbnailTitle, Description: draft.Desc}
		if _, err = w.AddClue(ctx, caseID, thumbnail); err != nil {
			return err
		}
		for _, clue := range draft.Clues {
			if _, err = w.AddClue(ctx, caseID, clue.model()); err != nil {
				return err
			}
		}
		for _, event := range draft.Timeline {
			if _, err = w.AddTimelineEntry(ctx, caseID, event); err != nil {
				return err
			}
		}
		for _, suspect := range draft.Suspects {
			if _, err = w.AddSuspect(ctx, caseID, suspect.model()); err != nil {
				return err
			}
		}
		return w.SetSolution(ctx, caseID, draft.RealKiller)
	})
	if err != nil {
		return 0, errors.Wrap(err, "persist case", slog.String("mode", mode), slog.String("title", draft.Title))
	}

	p.logger.LogAttrs(ctx, slog.LevelInfo, "case ingested",
		slog.Int64("case_id", caseID),
		slog.String("mode", mode),
		slog.Int("clues", len(draft.Clues)+1),
		slog.Int("suspects", len(draft.Suspects)),
		slog.Int("timeline", len(draft.Timeline)))
	return caseID, nil
}
