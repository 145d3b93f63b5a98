package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"consola/internal/auth"
	"consola/internal/config"
	"consola/internal/httpserver/handlers"
	"consola/internal/metrics"
	"consola/internal/models"
	"consola/internal/store"
)

type Deps struct {
	Config  config.Config
	Auth    *auth.Service
	Store   *store.Store
	Metrics *metrics.Metrics
	Log     *zap.SugaredLogger
}

func NewRouter(d Deps) http.Handler {
	rs := handlers.NewResponder(d.Log, d.Config.Development(), d.Metrics)
	limiter := newIPLimiter(d.Config.LoginRatePerSec, d.Config.LoginRateBurst)
	authn := auth.Authenticator(d.Auth, rs.Error)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(d.Log), d.Metrics.Instrument, middleware.Recoverer)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", handlers.Register(d.Auth, rs))
		r.With(limiter.middleware(rs)).Post("/login", handlers.Login(d.Auth, rs))
		r.Group(func(protected chi.Router) {
			protected.Use(authn)
			protected.Post("/logout", handlers.Logout(d.Auth, rs))
			protected.Get("/profile", handlers.Profile(d.Auth, rs))
		})
	})

	r.Route("/api/dashboard", func(r chi.Router) {
		r.Use(authn)
		r.With(auth.Authorize(rs.Error, auth.RequirePermission(d.Auth, "Dashboard", models.ActionRead))).
			Get("/estadisticas", handlers.Stats(d.Store, rs))
		r.Get("/modulos", handlers.Modules(d.Store, rs))
		r.Get("/actividad", handlers.Activity(d.Store, rs))
	})

	r.Route("/api/usuarios", func(r chi.Router) {
		r.Use(authn)
		users := func(action string) func(http.Handler) http.Handler {
			return auth.Authorize(rs.Error, auth.RequirePermission(d.Auth, "Usuarios", action))
		}
		r.With(users(models.ActionRead)).Get("/", handlers.ListUsers(d.Auth, rs))
		r.With(users(models.ActionCreate)).Post("/", handlers.CreateUser(d.Auth, rs))
		r.With(users(models.ActionEdit)).Patch("/{id}", handlers.UpdateUser(d.Auth, rs))
		r.With(users(models.ActionDelete)).Delete("/{id}", handlers.DeleteUser(d.Auth, rs))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", d.Metrics.Handler())
	return r
}
