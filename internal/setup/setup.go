package setup

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/quantumauth-io/quantum-go-utils/log"
	"github.com/redis/go-redis/v9"

	clientconfig "github.com/sendii-cash/sendii-client/cmd/sendii-client/config"
	"github.com/sendii-cash/sendii-client/internal/assets"
	"github.com/sendii-cash/sendii-client/internal/chains"
	"github.com/sendii-cash/sendii-client/internal/consolidate"
	"github.com/sendii-cash/sendii-client/internal/constants"
	"github.com/sendii-cash/sendii-client/internal/dust"
	"github.com/sendii-cash/sendii-client/internal/ethwallet/userwallet"
	"github.com/sendii-cash/sendii-client/internal/ethwallet/wtypes"
	"github.com/sendii-cash/sendii-client/internal/history"
	clienthttp "github.com/sendii-cash/sendii-client/internal/http"
	"github.com/sendii-cash/sendii-client/internal/indexer"
	"github.com/sendii-cash/sendii-client/internal/metrics"
	"github.com/sendii-cash/sendii-client/internal/ramp"
	"github.com/sendii-cash/sendii-client/internal/wallet"
)

type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// App is the wired agent.
type App struct {
	Chains    *chains.Service
	Session   *wallet.Session
	Signer    wtypes.Wallet
	Catalog   *assets.Catalog
	Assets    *assets.Manager
	Selection *dust.Selection
	Flow      *consolidate.Flow
	Ramp      *ramp.Service
	History   history.Store
	Metrics   *metrics.Metrics
	Registry  *prometheus.Registry
	Server    *clienthttp.Server

	redis *redis.Client
}

// Build wires every component from cfg. It does not activate a chain; the
// first wallet connect does.
func Build(ctx context.Context, cfg *clientconfig.Config) (*App, error) {
	app := &App{}

	// ---- Metrics
	app.Registry = prometheus.NewRegistry()
	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.Metrics = metrics.NewMetrics(app.Registry)

	// ---- Chains
	chainService, err := chains.NewService(cfg.Chains)
	if err != nil {
		return nil, err
	}
	app.Chains = chainService

	// ---- Redis (optional)
	if cfg.Secrets.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Secrets.RedisURL)
		if err != nil {
			app.Close()
			return nil, errors.Wrap(err, "parse redis url")
		}
		app.redis = redis.NewClient(opts)
		if err := app.redis.Ping(ctx).Err(); err != nil {
			app.Close()
			return nil, errors.Wrap(err, "redis ping")
		}
		log.Info("redis connected", "addr", opts.Addr, "db", opts.DB)
	}

	// ---- Catalog
	catalog, err := assets.NewCatalog(cfg.Catalog)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Catalog = catalog
	ensureCatalogMetadata(ctx, chainService, catalog, cfg.MetadataFetchDelay())

	// ---- Balance source
	var fetcher indexer.Fetcher
	switch cfg.Indexer.Source {
	case clientconfig.IndexerMoralis:
		mc, err := indexer.NewMoralisClient(cfg.Indexer.BaseURL, cfg.Indexer.APIKey, app.Metrics)
		if err != nil {
			app.Close()
			return nil, err
		}
		fetcher = mc
	default:
		fetcher = assets.NewOnChainFetcher(chainService, catalog)
	}
	var kv indexer.RedisKV
	if app.redis != nil {
		kv = app.redis
	}
	fetcher = indexer.NewCached(fetcher, kv, cfg.CacheTTL(), app.Metrics)
	log.Info("balance source", "source", cfg.Indexer.Source, "cacheTTL", cfg.CacheTTL().String(), "redis", app.redis != nil)

	// ---- Assets manager
	app.Assets, err = assets.NewManager(catalog, fetcher, chainService)
	if err != nil {
		app.Close()
		return nil, err
	}

	// ---- Wallet session
	app.Session = wallet.NewSession(chainService)
	if d := cfg.PollInterval(); d > 0 {
		app.Session.PollInterval = d
	}
	if cfg.Secrets.WalletPrivateKey != "" {
		w, err := userwallet.FromHex(cfg.Secrets.WalletPrivateKey)
		if err != nil {
			app.Close()
			return nil, errors.Wrap(err, "load wallet key")
		}
		app.Signer = w
		log.Info("wallet signer loaded", "address", w.Address().Hex())
	} else {
		log.Warn("no wallet key configured; /wallet/connect is disabled", "env", clientconfig.EnvWalletPrivateKey)
	}

	// ---- Dust selection + consolidation
	app.Selection = dust.NewSelection()
	flowCfg := consolidate.DefaultConfig()
	flowCfg.Aggregator = common.HexToAddress(cfg.Dust.Aggregator)
	if cfg.Dust.GasBufferBps != 0 {
		flowCfg.GasBufferBps = cfg.Dust.GasBufferBps
	}
	if fb := cfg.Dust.FallbackGas; fb.Approve != 0 && fb.DepositPerToken != 0 && fb.SwapPerToken != 0 {
		flowCfg.Fallback = consolidate.FallbackGas{
			Approve:         fb.Approve,
			DepositPerToken: fb.DepositPerToken,
			SwapPerToken:    fb.SwapPerToken,
		}
	}
	app.Flow, err = consolidate.NewFlow(app.Session, flowCfg, app.Metrics)
	if err != nil {
		app.Close()
		return nil, err
	}

	// ---- Ramp + history
	registry, err := ramp.NewRegistry(cfg.Ramp.Providers, cfg.Ramp.Tokens)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.History, err = openHistory(ctx, cfg, app.redis)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Ramp, err = ramp.NewService(registry, ramp.NewMockSettler(cfg.SettlementDelay()), app.History, app.Metrics)
	if err != nil {
		app.Close()
		return nil, err
	}

	// ---- HTTP
	app.Server, err = clienthttp.NewServer(clienthttp.Config{
		AllowedOrigins: cfg.ClientSettings.AllowedOrigins,
		RatePerMinute:  cfg.ClientSettings.RatePerMinute,
		MaxConcurrent:  cfg.ClientSettings.MaxConcurrent,
	}, clienthttp.Deps{
		Session:   app.Session,
		Signer:    app.Signer,
		Assets:    app.Assets,
		Selection: app.Selection,
		Flow:      app.Flow,
		Ramp:      app.Ramp,
		History:   app.History,
		Gatherer:  app.Registry,
	})
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Flow.OnSettled = app.Server.RefreshAfterSettle

	return app, nil
}

// openHistory picks redis, then a history file, then memory. Only a fresh
// local store gets the demo records.
func openHistory(ctx context.Context, cfg *clientconfig.Config, rdb *redis.Client) (history.Store, error) {
	if rdb != nil {
		return history.NewRedisStore(rdb, cfg.Ramp.HistoryMaxRecords), nil
	}

	var (
		store history.Store
		empty bool
	)
	if cfg.Ramp.HistoryFile != "" {
		fs, err := history.OpenFileStore(cfg.Ramp.HistoryFile, cfg.Ramp.HistoryMaxRecords)
		if err != nil {
			return nil, err
		}
		store, empty = fs, fs.Empty()
	} else {
		store, empty = history.NewMemoryStore(cfg.Ramp.HistoryMaxRecords), true
	}

	if cfg.Ramp.SeedHistory && empty {
		if err := history.Seed(ctx, store, time.Now()); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// ensureCatalogMetadata fills address-only catalog entries. A chain that cannot
// be reached is logged and skipped; its entries stay unpriced until restart.
func ensureCatalogMetadata(ctx context.Context, svc *chains.Service, catalog *assets.Catalog, delay time.Duration) {
	for _, id := range catalog.ChainIDs() {
		resolved, err := svc.ResolveNetworkByChainID(id)
		if err != nil {
			log.Warn("catalog chain not configured", "chainId", id)
			continue
		}
		client, err := svc.ClientsForNetwork(ctx, resolved.NetworkName)
		if err != nil {
			log.Warn("catalog metadata skipped", "network", resolved.NetworkName, "error", err)
			continue
		}
		if err := catalog.EnsureMetadata(ctx, id, client, delay); err != nil {
			log.Warn("catalog metadata incomplete", "network", resolved.NetworkName, "error", err)
		}
	}
}

func (a *App) Close() {
	if a.Chains != nil {
		if err := a.Chains.Close(); err != nil {
			log.Error("chain clients close failed", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Error("redis close failed", "error", err)
		}
	}
}

// Run serves the agent until ctx is cancelled.
func Run(ctx context.Context, cfg *clientconfig.Config, build BuildInfo) error {
	log.Info(constants.AppName+"-client",
		"version", build.Version,
		"commit", build.Commit,
		"build_date", build.BuildDate,
	)

	app, err := Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	listenAddr := cfg.ListenAddr()
	server := &http.Server{
		Addr:              listenAddr,
		Handler:           app.Server,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", listenAddr)
		if serr := server.ListenAndServe(); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			serveErr <- serr
		}
		close(serveErr)
	}()

	// ---- graceful shutdown
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case serr := <-serveErr:
		if serr != nil {
			log.Error("HTTP server error", "error", serr)
			return serr
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if serr := server.Shutdown(shutdownCtx); serr != nil {
		log.Error("HTTP server shutdown failed", "error", serr)
	} else {
		log.Info("HTTP server gracefully stopped")
	}
	return nil
}
