package repositories_test

import (
	"context"
	"io"
	"testing"

	"github.com/myrjola/mysteries/internal/repositories"
	"github.com/myrjola/mysteries/internal/sqlite"
	"github.com/myrjola/mysteries/internal/testhelpers"
)

// newTestRepository creates a case repository backed by a fresh in-memory database.
func newTestRepository(t *testing.T) (*repositories.CaseRepository, *sqlite.Database) {
	t.Helper()
	logger := testhelpers.NewLogger(io.Discard)
	dbs, err := sqlite.NewDatabase(context.Background(), ":memory:", logger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err = dbs.Close(); err != nil {
			t.Error(err)
		}
	})
	return repositories.NewCaseRepository(dbs, logger), dbs
}
