package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sendii-cash/sendii-client/internal/assets"
	"github.com/sendii-cash/sendii-client/internal/consolidate"
	"github.com/sendii-cash/sendii-client/internal/dust"
	"github.com/sendii-cash/sendii-client/internal/ethwallet/wtypes"
	"github.com/sendii-cash/sendii-client/internal/history"
	"github.com/sendii-cash/sendii-client/internal/ramp"
	"github.com/sendii-cash/sendii-client/internal/wallet"
)

// Config is the listener-independent server configuration.
type Config struct {
	AllowedOrigins []string
	// RatePerMinute limits requests per client IP; 0 disables limiting.
	RatePerMinute int
	MaxConcurrent int
}

// Deps are the services the API fronts.
type Deps struct {
	Session   *wallet.Session
	Signer    wtypes.Wallet
	Assets    *assets.Manager
	Selection *dust.Selection
	Flow      *consolidate.Flow
	Ramp      *ramp.Service
	History   history.Store
	Gatherer  prometheus.Gatherer
}

type Server struct {
	cfg    Config
	deps   Deps
	router chi.Router

	// selMu serializes refreshes and selection edits.
	selMu sync.Mutex
	now   func() time.Time
}

func NewServer(cfg Config, deps Deps) (*Server, error) {
	switch {
	case deps.Session == nil:
		return nil, errors.New("http: wallet session is nil")
	case deps.Assets == nil:
		return nil, errors.New("http: assets manager is nil")
	case deps.Selection == nil:
		return nil, errors.New("http: dust selection is nil")
	case deps.Flow == nil:
		return nil, errors.New("http: consolidation flow is nil")
	case deps.Ramp == nil:
		return nil, errors.New("http: ramp service is nil")
	case deps.History == nil:
		return nil, errors.New("http: history store is nil")
	}
	s := &Server{cfg: cfg, deps: deps, now: time.Now}
	s.router = s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
