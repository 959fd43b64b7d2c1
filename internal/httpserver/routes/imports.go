package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/stash/internal/httpserver/deps"
	"github.com/MrSnakeDoc/stash/internal/httpserver/handlers"
)

func init() { Register(registerImports) }

func registerImports(r chi.Router, d deps.Deps) {
	r.Post("/import", handlers.Import(d))
}
