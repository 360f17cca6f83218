package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	// the loopback check runs on the socket address, before RealIP rewrites it
	r.Use(loopbackOnly)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if s.cfg.RatePerMinute > 0 {
		r.Use(httprate.LimitByIP(s.cfg.RatePerMinute, time.Minute))
	}
	if s.cfg.MaxConcurrent > 0 {
		r.Use(middleware.Throttle(s.cfg.MaxConcurrent))
	}
	r.Use(newCORS(s.cfg.AllowedOrigins).Handler)

	r.Get(PathHealth, s.handleHealth)
	if s.deps.Gatherer != nil {
		r.Handle(PathMetrics, promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))
	} else {
		r.Handle(PathMetrics, promhttp.Handler())
	}

	r.Route("/wallet", func(r chi.Router) {
		r.Post("/connect", s.handleWalletConnect)
		r.Post("/disconnect", s.handleWalletDisconnect)
		r.Get("/status", s.handleWalletStatus)
		r.Post("/switchChain", s.handleWalletSwitchChain)
	})

	r.Route("/dust", func(r chi.Router) {
		r.Get("/tokens", s.handleDustTokens)
		r.Get("/catalog", s.handleDustCatalog)
		r.Post("/threshold", s.handleDustThreshold)
		r.Post("/toggle", s.handleDustToggle)
		r.Post("/remove", s.handleDustRemove)
		r.Post("/output", s.handleDustOutput)
		r.Post("/consolidate", s.handleDustConsolidate)
		r.Post("/send", s.handleDustSend)
		r.Post("/deposit", s.handleDustDeposit)
		r.Get("/flow", s.handleDustFlow)
	})

	r.Route("/ramp", func(r chi.Router) {
		r.Get("/providers", s.handleRampProviders)
		r.Post("/convert", s.handleRampConvert)
		r.Post("/prepare", s.handleRampPrepare)
		r.Post("/confirm", s.handleRampConfirm)
		r.Post("/cancel", s.handleRampCancel)
	})

	r.Get("/history", s.handleHistory)
	r.Get("/history/{id}", s.handleHistoryReceipt)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
