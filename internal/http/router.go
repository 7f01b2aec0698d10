package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/config"
	httpmiddleware "github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/http/middleware"
	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/votacao"
)

// ReadinessCheck verifica uma dependência externa (Postgres, Redis).
type ReadinessCheck func(ctx context.Context) error

// Dependencies reúne o que o roteador expõe.
type Dependencies struct {
	Auth      Authenticator
	Directory Directory
	Votacao   *votacao.Handler
	Live      http.Handler
	Checks    map[string]ReadinessCheck
}

// Handler concentra os handlers que não pertencem a um domínio específico.
type Handler struct {
	auth      Authenticator
	directory Directory
	checks    map[string]ReadinessCheck
}

// NewRouter devolve roteador configurado.
func NewRouter(cfg *config.Config, deps Dependencies) http.Handler {
	h := &Handler{auth: deps.Auth, directory: deps.Directory, checks: deps.Checks}

	publicLimiter := httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst)
	authLimiter := httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)

	r.Route("/api", func(api chi.Router) {
		api.Group(func(public chi.Router) {
			public.Use(httpmiddleware.IPRateLimit(publicLimiter))
			public.Post("/auth/login", h.Login)
			public.Get("/camaras/{id}/vereadores", h.PublicVereadores)
		})

		api.Group(func(private chi.Router) {
			private.Use(httpmiddleware.Auth(deps.Auth))
			private.Use(httpmiddleware.UserRateLimit(authLimiter))

			private.Get("/me", h.Me)
			private.Post("/auth/logout", h.Logout)
			private.Get("/vereadores", h.ListVereadores)
			private.Get("/sessoes", h.ListSessoes)

			if deps.Votacao != nil {
				deps.Votacao.RegisterRoutes(private)
			}
			if deps.Live != nil {
				private.Method(http.MethodGet, "/votacao-ao-vivo/stream", deps.Live)
			}
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "rota não encontrada", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "método não permitido", nil)
	})

	return r
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida conexões com Postgres e Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failures := map[string]string{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}
	if len(failures) > 0 {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "dependências indisponíveis", failures)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}
