// Package api implements the status HTTP surface described by spec
// component C12: a health check, a snapshot status endpoint, and a
// WebSocket upgrade onto the pub/sub event stream.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/tapelight/tapelight-go/internal/manager"
	"github.com/tapelight/tapelight-go/internal/wsstream"
)

// StatusResponse is the snapshot payload served by GET /status.
type StatusResponse struct {
	CurrentScene      int     `json:"current_scene"`
	SceneCount        int     `json:"scene_count"`
	TransitionActive  bool    `json:"transition_active"`
	TransitionOpacity float64 `json:"transition_opacity"`
}

// NewRouter builds the chi router for the status API with request-id,
// real-ip, logging, recovery and timeout middleware plus CORS.
func NewRouter(mgr *manager.Manager, hub *wsstream.Hub, corsOrigin string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{corsOrigin, "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	})
	r.Use(corsMiddleware.Handler)

	r.Get("/health", healthHandler)
	r.Get("/status", statusHandler(mgr))
	r.Get("/ws", hub.ServeHTTP)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func statusHandler(mgr *manager.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		snap := mgr.Snapshot()
		resp := StatusResponse{
			CurrentScene:      snap.CurrentSceneID,
			SceneCount:        snap.SceneCount,
			TransitionActive:  snap.TransitionActive,
			TransitionOpacity: snap.TransitionOpacity,
		}

		_ = json.NewEncoder(w).Encode(resp)
	}
}
