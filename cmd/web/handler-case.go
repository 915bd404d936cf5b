package main

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/myrjola/mysteries/internal/errors"
	"github.com/myrjola/mysteries/internal/models"
	"github.com/myrjola/mysteries/internal/repositories"
)

type caseResponse struct {
	ID         int64            `json:"id"`
	Title      string           `json:"title"`
	Background string           `json:"background"`
	Time       string           `json:"time"`
	Clues      []models.Clue    `json:"clues"`
	Suspects   []models.Suspect `json:"suspects"`
	Timeline   []string         `json:"timeline"`
}

// caseID parses the {id} path parameter. Non-numeric ids cannot name a case.
func caseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func (app *application) getCase(w http.ResponseWriter, r *http.Request) {
	const notFoundMsg = "Case not found"
	id, ok := caseID(r)
	if !ok {
		app.clientError(w, r, http.StatusNotFound, notFoundMsg)
		return
	}
	detail, err := app.cases.Get(r.Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		app.clientError(w, r, http.StatusNotFound, notFoundMsg)
		return
	}
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "get case"))
		return
	}
	app.writeJSON(w, r, http.StatusOK, caseResponse{
		ID:         detail.ID,
		Title:      detail.Title,
		Background: detail.Background,
		Time:       detail.Time,
		Clues:      detail.Clues,
		Suspects:   detail.Suspects,
		Timeline:   detail.Events(),
	})
}
