package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/myrjola/mysteries/internal/errors"
	"github.com/myrjola/mysteries/internal/models"
	"github.com/myrjola/mysteries/internal/sqlite"
)

var (
	// ErrNotFound is returned when the requested case or solution does not exist.
	ErrNotFound = errors.NewSentinel("not found")
	// ErrReferential is returned when a child record references a case that does not exist.
	ErrReferential = errors.NewSentinel("referenced case does not exist")
)

type CaseRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewCaseRepository(dbs *sqlite.Database, logger *slog.Logger) *CaseRepository {
	return &CaseRepository{
		dbs:    dbs,
		logger: logger.With("source", "CaseRepository"),
	}
}

// Update runs fn inside a single read-write transaction. The transaction commits when fn returns nil and rolls back
// when fn returns an error or panics.
func (r *CaseRepository) Update(ctx context.Context, fn func(w *CaseWriter) error) (err error) {
	var tx *sqlx.Tx
	if tx, err = r.dbs.ReadWrite.BeginTxx(ctx, nil); err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			r.logger.LogAttrs(ctx, slog.LevelError, "failed to rollback transaction",
				errors.SlogError(errors.Wrap(rollbackErr, "rollback")))
		}
	}()

	if err = fn(&CaseWriter{tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

// CaseWriter writes case records inside the transaction of CaseRepository.Update.
type CaseWriter struct {
	tx *sqlx.Tx
}

func (w *CaseWriter) CreateCase(ctx context.Context, title, background, time string) (int64, error) {
	stmt := `INSERT INTO cases (title, background, time) VALUES (?, ?, ?)`
	id, err := w.insert(ctx, stmt, title, background, time)
	if err != nil {
		return 0, errors.Wrap(err, "insert case", slog.String("title", title))
	}
	return id, nil
}

func (w *CaseWriter) AddClue(ctx context.Context, caseID int64, clue models.Clue) (int64, error) {
	stmt := `INSERT INTO clues (case_id, img, title, description) VALUES (?, ?, ?, ?)`
	id, err := w.insert(ctx, stmt, caseID, clue.Img, clue.Title, clue.Description)
	if err != nil {
		return 0, errors.Wrap(err, "insert clue", slog.Int64("case_id", caseID))
	}
	return id, nil
}

func (w *CaseWriter) AddSuspect(ctx context.Context, caseID int64, suspect models.Suspect) (int64, error) {
	stmt := `INSERT INTO suspects (case_id, img, name, age, relation, alibi, notes, motive)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := w.insert(ctx, stmt, caseID, suspect.Img, suspect.Name, suspect.Age, suspect.Relation,
		suspect.Alibi, suspect.Notes, suspect.Motive)
	if err != nil {
		return 0, errors.Wrap(err, "insert suspect", slog.Int64("case_id", caseID))
	}
	return id, nil
}

func (w *CaseWriter) AddTimelineEntry(ctx context.Context, caseID int64, event string) (int64, error) {
	id, err := w.insert(ctx, `INSERT INTO timeline (case_id, event) VALUES (?, ?)`, caseID, event)
	if err != nil {
		return 0, errors.Wrap(err, "insert timeline entry", slog.Int64("case_id", caseID))
	}
	return id, nil
}

// SetSolution records the culprit of a case, replacing any previous one.
func (w *CaseWriter) SetSolution(ctx context.Context, caseID int64, culprit string) error {
	stmt := `INSERT INTO solutions (case_id, culprit) VALUES (?, ?)
ON CONFLICT (case_id) DO UPDATE SET culprit = excluded.culprit`
	if _, err := w.tx.ExecContext(ctx, stmt, caseID, culprit); err != nil {
		return errors.Wrap(mapConstraintError(err), "upsert solution", slog.Int64("case_id", caseID))
	}
	return nil
}

func (w *CaseWriter) insert(ctx context.Context, stmt string, args ...any) (int64, error) {
	result, err := w.tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, mapConstraintError(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "last insert id")
	}
	return id, nil
}

// mapConstraintError translates foreign key violations into ErrReferential.
func mapConstraintError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
		return fmt.Errorf("%w: %s", ErrReferential, sqliteErr.Error())
	}
	return err
}

// Get returns the case with its clues, suspects and timeline.
func (r *CaseRepository) Get(ctx context.Context, caseID int64) (*models.CaseDetail, error) {
	var (
		detail models.CaseDetail
		err    error
	)
	stmt := `SELECT id, title, background, time FROM cases WHERE id = ?`
	if err = r.dbs.ReadOnly.GetContext(ctx, &detail.Case, stmt, caseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrap(ErrNotFound, "read case", slog.Int64("case_id", caseID))
		}
		return nil, errors.Wrap(err, "read case", slog.Int64("case_id", caseID))
	}

	detail.Clues = []models.Clue{}
	stmt = `SELECT id, case_id, img, title, description FROM clues WHERE case_id = ? ORDER BY id`
	if err = r.dbs.ReadOnly.SelectContext(ctx, &detail.Clues, stmt, caseID); err != nil {
		return nil, errors.Wrap(err, "select clues", slog.Int64("case_id", caseID))
	}

	detail.Suspects = []models.Suspect{}
	stmt = `SELECT id, case_id, img, name, age, relation, alibi, notes, motive
FROM suspects
WHERE case_id = ?
ORDER BY id`
	if err = r.dbs.ReadOnly.SelectContext(ctx, &detail.Suspects, stmt, caseID); err != nil {
		return nil, errors.Wrap(err, "select suspects", slog.Int64("case_id", caseID))
	}

	detail.Timeline = []models.TimelineEntry{}
	stmt = `SELECT id, case_id, event FROM timeline WHERE case_id = ? ORDER BY id`
	if err = r.dbs.ReadOnly.SelectContext(ctx, &detail.Timeline, stmt, caseID); err != nil {
		return nil, errors.Wrap(err, "select timeline", slog.Int64("case_id", caseID))
	}

	return &detail, nil
}

type caseListRow struct {
	models.Case
	FirstClueImg sql.NullString `db:"first_clue_img"`
}

// List returns a summary of every case ordered by id.
func (r *CaseRepository) List(ctx context.Context) ([]models.CaseSummary, error) {
	var rows []caseListRow
	stmt := `SELECT c.id, c.title, c.background, c.time,
       (SELECT img FROM clues WHERE case_id = c.id ORDER BY id LIMIT 1) AS first_clue_img
FROM cases c
ORDER BY c.id`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &rows, stmt); err != nil {
		return nil, errors.Wrap(err, "select cases")
	}
	summaries := make([]models.CaseSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, models.NewCaseSummary(row.Case, row.FirstClueImg.String))
	}
	return summaries, nil
}

// Solution returns the culprit of the case.
func (r *CaseRepository) Solution(ctx context.Context, caseID int64) (string, error) {
	var culprit string
	err := r.dbs.ReadOnly.GetContext(ctx, &culprit, `SELECT culprit FROM solutions WHERE case_id = ?`, caseID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errors.Wrap(ErrNotFound, "read solution", slog.Int64("case_id", caseID))
	}
	if err != nil {
		return "", errors.Wrap(err, "read solution", slog.Int64("case_id", caseID))
	}
	return culprit, nil
}

// SetSolution replaces the culprit of an existing case in its own transaction.
func (r *CaseRepository) SetSolution(ctx context.Context, caseID int64, culprit string) error {
	err := r.Update(ctx, func(w *CaseWriter) error {
		return w.SetSolution(ctx, caseID, culprit)
	})
	if errors.Is(err, ErrReferential) {
		return errors.Wrap(ErrNotFound, "set solution", slog.Int64("case_id", caseID))
	}
	return err
}

// Count returns the number of stored cases.
func (r *CaseRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.dbs.ReadOnly.GetContext(ctx, &count, `SELECT COUNT(*) FROM cases`); err != nil {
		return 0, errors.Wrap(err, "count cases")
	}
	return count, nil
}
