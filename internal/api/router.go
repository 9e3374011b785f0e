package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the API routes.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", h.HealthHandler)
	r.Post("/api/register", h.RegisterHandler)
	r.Post("/api/trade", h.TradeHandler)
	r.Get("/api/account/{accountID}", h.AccountHandler)
	r.Get("/api/trades/{accountID}", h.TradesHandler)
	r.Get("/api/market/{symbol}", h.MarketHandler)

	return r
}
