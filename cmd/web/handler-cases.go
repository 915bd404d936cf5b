package main

import (
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/myrjola/mysteries/internal/errors"
	"github.com/myrjola/mysteries/internal/ingest"
)

func (app *application) listCases(w http.ResponseWriter, r *http.Request) {
	summaries, err := app.cases.List(r.Context())
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "list cases"))
		return
	}
	app.writeJSON(w, r, http.StatusOK, summaries)
}

// createCase stores a case submitted as JSON.
func (app *application) createCase(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	id, err := app.pipeline.IngestJSON(r.Context(), body)
	if err == nil {
		app.writeJSON(w, r, http.StatusOK, resultResponse{Success: true, ID: id}) //nolint:exhaustruct // success
		return
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		app.writeJSON(w, r, http.StatusRequestEntityTooLarge,
			resultResponse{Success: false, Error: "request body too large"}) //nolint:exhaustruct // no fields
		return
	}
	if errors.Is(err, ingest.ErrValidation) {
		resp := resultResponse{Success: false, Error: "malformed JSON body"} //nolint:exhaustruct // no id
		var fields validation.Errors
		if errors.As(err, &fields) {
			resp.Error = "missing or invalid fields"
			resp.Fields = fields
		}
		app.logger.LogAttrs(r.Context(), slog.LevelDebug, "rejected case", errors.SlogError(err))
		app.writeJSON(w, r, http.StatusBadRequest, resp)
		return
	}

	app.logger.LogAttrs(r.Context(), slog.LevelError, "failed to store case", errors.SlogError(err))
	app.writeJSON(w, r, http.StatusInternalServerError,
		resultResponse{Success: false, Error: "failed to store case"}) //nolint:exhaustruct // failure
}

// generateCase asks the generator for a new case and stores it.
func (app *application) generateCase(w http.ResponseWriter, r *http.Request) {
	id, err := app.pipeline.Generate(r.Context())
	if err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "failed to generate case", errors.SlogError(err))
		app.writeJSON(w, r, http.StatusInternalServerError,
			resultResponse{Success: false, Error: err.Error()}) //nolint:exhaustruct // failure
		return
	}
	app.writeJSON(w, r, http.StatusOK, resultResponse{Success: true, ID: id}) //nolint:exhaustruct // success
}
