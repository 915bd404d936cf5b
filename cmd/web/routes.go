package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	r := chi.NewRouter()
	r.NotFound(app.notFound)
	r.MethodNotAllowed(app.methodNotAllowed)

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthy", app.healthy)
		r.Get("/cases", app.listCases)
		r.Post("/cases", app.createCase)
		r.Get("/case/{id}", app.getCase)
		r.Post("/generate_case", app.generateCase)
		r.Get("/real_killer/{id}", app.realKiller)
	})

	corsHandler := cors.Handler(cors.Options{ //nolint:exhaustruct // defaults are fine for the rest.
		AllowedOrigins: app.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300, //nolint:mnd // 5 minutes
	})

	standard := alice.New(middleware.RequestID, middleware.RealIP, app.recoverPanic, app.logRequest, secureHeaders,
		corsHandler)
	return standard.Then(r)
}
