package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the websocket endpoint, the REST API and the health check.
func NewRouter(ws *WSHandler, api *APIHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)
	r.Get("/reset-price", api.ResetPrice)
	r.Route("/players/{playerID}", func(r chi.Router) {
		r.Get("/progress", api.Progress)
		r.Get("/coins", api.Coins)
		r.Get("/settings/{key}", api.GetSetting)
		r.Put("/settings/{key}", api.PutSetting)
	})
	return r
}
