package main

import (
	"net/http"

	"github.com/myrjola/mysteries/internal/errors"
	"github.com/myrjola/mysteries/internal/repositories"
)

// realKiller reveals the culprit of a case.
func (app *application) realKiller(w http.ResponseWriter, r *http.Request) {
	const notFoundMsg = "Not found"
	id, ok := caseID(r)
	if !ok {
		app.clientError(w, r, http.StatusNotFound, notFoundMsg)
		return
	}
	culprit, err := app.cases.Solution(r.Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		app.clientError(w, r, http.StatusNotFound, notFoundMsg)
		return
	}
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "read solution"))
		return
	}
	app.writeJSON(w, r, http.StatusOK, map[string]string{"name": culprit})
}
