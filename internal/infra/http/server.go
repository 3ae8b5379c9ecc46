package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"lms-access-billing/internal/config"
	"lms-access-billing/internal/usecase"
)

// Server exposes the shop webhook ingest, the profile read API and the
// administrative surface.
type Server struct {
	cfg      *config.Config
	checkout usecase.CheckoutUseCase
	window   usecase.WindowUseCase
	recurUC  usecase.RecurringUseCase
	access   usecase.AccessUseCase
	log      *zerolog.Logger
	server   *http.Server
}

func NewServer(
	cfg *config.Config,
	checkout usecase.CheckoutUseCase,
	window usecase.WindowUseCase,
	recurUC usecase.RecurringUseCase,
	access usecase.AccessUseCase,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "http").Logger()
	return &Server{
		cfg:      cfg,
		checkout: checkout,
		window:   window,
		recurUC:  recurUC,
		access:   access,
		log:      &l,
	}
}

func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(s.log))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(requireJWT(s.cfg.Shop.JWTSecret))

		r.Route("/shop", func(r chi.Router) {
			r.Post("/order-checkout", s.handleOrderCheckout)
			r.Post("/order-refund", s.handleOrderRefund)
			r.Post("/promo-access", s.handlePromoAccess)
		})
		r.Route("/profile", func(r chi.Router) {
			r.Get("/subscription", s.handleSubscription)
			r.Delete("/recurring", s.handleCancelRecurring)
		})
		r.Route("/admin", func(r chi.Router) {
			r.Delete("/access/{orderID}", s.handleDeleteAccess)
		})
	})

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.HTTP.Port),
		Handler: r,
	}

	s.log.Info().Int("port", s.cfg.HTTP.Port).Msg("http server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}
