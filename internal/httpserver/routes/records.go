package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/stash/internal/httpserver/deps"
	"github.com/MrSnakeDoc/stash/internal/httpserver/handlers"
)

func init() { Register(registerRecords) }

func registerRecords(r chi.Router, d deps.Deps) {
	r.Get("/records/{kind}", handlers.ListRecords(d))
	r.Post("/records/{kind}", handlers.CreateRecord(d))
	r.Put("/records/{kind}/{id}", handlers.UpdateRecord(d))
	r.Delete("/records/{kind}/{id}", handlers.DeleteRecord(d))
	r.Post("/records/bookmark/{id}/restore", handlers.RestoreRecord(d))

	r.Get("/trash", handlers.ListTrash(d))
	r.Delete("/trash/{id}", handlers.PurgeRecord(d))
}
