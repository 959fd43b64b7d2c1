package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/stash/internal/httpserver/deps"
	"github.com/MrSnakeDoc/stash/internal/httpserver/handlers"
)

func init() { Register(registerSync) }

func registerSync(r chi.Router, d deps.Deps) {
	r.Post("/sync", handlers.Sync(d))
	r.Post("/sync/upload", handlers.ForceUpload(d))
	r.Post("/sync/download", handlers.ForceDownload(d))
	r.Get("/sync/status", handlers.SyncStatus(d))
	r.Delete("/sync/status", handlers.ClearSyncStatus(d))
}
