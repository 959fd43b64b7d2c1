package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/stash/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready  bool   `json:"ready"`
	Remote string `json:"remote"`
}

// Readyz reports readiness. The remote store being unreachable does not
// make the daemon unready: local operations keep working and sync simply
// fails until connectivity returns.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteState := "ok"
		if d.RedisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.RedisClient.Ping(ctx).Err(); err != nil {
				remoteState = "unreachable"
			}
		} else {
			remoteState = "not configured"
		}

		writeJSON(w, http.StatusOK, readyzResponse{
			Ready:  true,
			Remote: remoteState,
		})
	}
}
