// Package server wires handlers, middleware and stores into the HTTP router.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ayush/car-catalog/backend/internal/auth"
	"github.com/ayush/car-catalog/backend/internal/cars"
	"github.com/ayush/car-catalog/backend/internal/config"
	"github.com/ayush/car-catalog/backend/internal/middleware"
	"github.com/ayush/car-catalog/backend/internal/respond"
)

// Denylist revokes tokens on logout and is consulted on every gated request.
type Denylist interface {
	auth.Revoker
	middleware.Denylist
}

// Deps are the collaborators the router needs.
type Deps struct {
	Config   *config.Config
	Users    auth.UserStore
	Cars     cars.Repository
	Denylist Denylist
	Log      *slog.Logger
}

// NewRouter builds the API router. Every /api/cars route sits behind the
// bearer-token gate.
func NewRouter(d Deps) http.Handler {
	tokens := auth.NewTokenManager(d.Config.JWTSecret, d.Config.JWTIssuer, d.Config.JWTTTL)
	requireAuth := middleware.RequireAuth(tokens, d.Denylist, d.Log)

	authHandler := auth.NewHandler(d.Users, tokens, d.Denylist, d.Log)
	carService := cars.NewService(d.Cars, cars.Limits{
		MaxImages:     d.Config.MaxImages,
		MaxImageBytes: d.Config.MaxImageBytes,
	}, d.Log)
	carHandler := cars.NewHandler(carService, d.Config.MaxUploadBytes(), d.Log)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.With(requireAuth).Post("/logout", authHandler.Logout)
		r.With(requireAuth).Get("/me", authHandler.Me)
	})

	r.Route("/api/cars", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", carHandler.Create)
		r.Get("/", carHandler.List)
		r.Get("/{id}", carHandler.Get)
		r.Put("/{id}", carHandler.Update)
		r.Delete("/{id}", carHandler.Delete)
	})

	return r
}
