package chains

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/quantumauth-io/quantum-go-utils/log"
)

var (
	ErrNoActiveChain      = errors.New("no active chain")
	ErrUnsupportedChainID = errors.New("unsupported chain id")
)

// Dialer opens a client for a resolved chain.
type Dialer func(ctx context.Context, chain ResolvedChain) (EVMClient, error)

type activeChain struct {
	resolved ResolvedChain
	client   EVMClient
}

type Service struct {
	cfg    AllChainsConfig
	dial   Dialer
	active atomic.Pointer[activeChain]

	mu               sync.Mutex
	clientsByNetwork map[string]EVMClient

	// cancels the header refreshers started by dialHTTP
	ctx    context.Context
	cancel context.CancelFunc
}

func NewService(cfg AllChainsConfig) (*Service, error) {
	return NewServiceWithDialer(cfg, nil)
}

// NewServiceWithDialer is NewService with a custom dialer; nil means ethclient over HTTP.
func NewServiceWithDialer(cfg AllChainsConfig, dial Dialer) (*Service, error) {
	cfg.Normalize()
	if len(cfg.Networks) == 0 {
		return nil, errors.New("chains: no networks configured")
	}
	if cfg.DefaultNetwork == "" {
		return nil, errors.New("chains: default network is empty")
	}
	if _, ok := cfg.Networks[cfg.DefaultNetwork]; !ok {
		return nil, errors.Newf("chains: default network %q is not configured", cfg.DefaultNetwork)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		cfg:              cfg,
		clientsByNetwork: make(map[string]EVMClient),
		ctx:              ctx,
		cancel:           cancel,
	}
	if dial == nil {
		dial = s.dialHTTP
	}
	s.dial = dial
	return s, nil
}

func (s *Service) Config() AllChainsConfig { return s.cfg }

// DefaultNetwork is the network the agent falls back to for unsupported chains.
func (s *Service) DefaultNetwork() string { return s.cfg.DefaultNetwork }

func (s *Service) Active() (ResolvedChain, EVMClient, error) {
	current := s.active.Load()
	if current == nil || current.client == nil {
		return ResolvedChain{}, nil, ErrNoActiveChain
	}
	return current.resolved, current.client, nil
}

func (s *Service) ActiveClient() (EVMClient, error) {
	_, client, err := s.Active()
	return client, err
}

// SwitchChain dials (or reuses) the named network and makes it active.
func (s *Service) SwitchChain(ctx context.Context, networkName string) (ResolvedChain, error) {
	networkName = strings.ToLower(strings.TrimSpace(networkName))
	if networkName == "" {
		return ResolvedChain{}, errors.New("network name is empty")
	}

	if current := s.active.Load(); current != nil && current.resolved.NetworkName == networkName {
		return current.resolved, nil
	}

	resolved, err := s.ResolveNetworkByName(networkName)
	if err != nil {
		return ResolvedChain{}, err
	}

	client, err := s.ClientsForNetwork(ctx, networkName)
	if err != nil {
		return ResolvedChain{}, err
	}

	s.active.Store(&activeChain{resolved: resolved, client: client})
	log.Info("active chain switched", "network", resolved.NetworkName, "chainId", resolved.ChainID)
	return resolved, nil
}

// SwitchChainByID switches to the network configured with chainID.
// Unknown ids fall back to the default network, as the wallet UI does.
func (s *Service) SwitchChainByID(ctx context.Context, chainID uint64) (ResolvedChain, bool, error) {
	resolved, err := s.ResolveNetworkByChainID(chainID)
	if err != nil {
		if !errors.Is(err, ErrUnsupportedChainID) {
			return ResolvedChain{}, false, err
		}
		log.Warn("unsupported chain requested, using default", "chainId", chainID, "default", s.cfg.DefaultNetwork)
		fallback, err := s.SwitchChain(ctx, s.cfg.DefaultNetwork)
		return fallback, true, err
	}
	out, err := s.SwitchChain(ctx, resolved.NetworkName)
	return out, false, err
}

// ClientsForNetwork returns (and caches) a client for a network WITHOUT changing the active chain.
func (s *Service) ClientsForNetwork(ctx context.Context, networkName string) (EVMClient, error) {
	key := strings.ToLower(strings.TrimSpace(networkName))
	if key == "" {
		return nil, errors.New("network name is empty")
	}

	s.mu.Lock()
	if existing := s.clientsByNetwork[key]; existing != nil {
		s.mu.Unlock()
		return existing, nil
	}
	s.mu.Unlock()

	resolved, err := s.ResolveNetworkByName(key)
	if err != nil {
		return nil, err
	}

	// dial outside the lock
	dialed, err := s.dial(ctx, resolved)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing := s.clientsByNetwork[key]; existing != nil {
		safeClose(dialed)
		return existing, nil
	}
	s.clientsByNetwork[key] = dialed
	return dialed, nil
}

func (s *Service) Close() error {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, c := range s.clientsByNetwork {
		safeClose(c)
		delete(s.clientsByNetwork, key)
	}
	s.active.Store(nil)
	return nil
}

func (s *Service) dialHTTP(ctx context.Context, chain ResolvedChain) (EVMClient, error) {
	if strings.TrimSpace(chain.URL) == "" {
		return nil, errors.Newf("network %q has no rpc url", chain.NetworkName)
	}
	client, err := ethclient.DialContext(ctx, chain.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %q", chain.NetworkName)
	}
	if s.cfg.HeaderRefreshMillis <= 0 {
		return client, nil
	}

	cached, err := NewHeaderCache(s.ctx, client, time.Duration(s.cfg.HeaderRefreshMillis)*time.Millisecond)
	if err != nil {
		client.Close()
		return nil, err
	}
	return cached, nil
}

func safeClose(c EVMClient) {
	if c == nil {
		return
	}
	if closer, ok := c.(interface{ Close() }); ok {
		closer.Close()
	}
}

func (s *Service) ResolveNetworkByChainID(chainID uint64) (ResolvedChain, error) {
	if chainID == 0 {
		return ResolvedChain{}, errors.New("chainID is 0")
	}
	for name, network := range s.cfg.Networks {
		if network.ChainID == chainID {
			return s.resolve(name, network)
		}
	}
	return ResolvedChain{}, errors.Wrapf(ErrUnsupportedChainID, "chain %d", chainID)
}

// ResolveNetworkByIndexerChain maps an indexing-API chain key ("0x2105") back to a network.
func (s *Service) ResolveNetworkByIndexerChain(key string) (ResolvedChain, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	for name, network := range s.cfg.Networks {
		if strings.EqualFold(network.IndexerChain, key) {
			return s.resolve(name, network)
		}
	}
	return ResolvedChain{}, errors.Wrapf(ErrUnsupportedChainID, "indexer chain %q", key)
}

func (s *Service) ResolveNetworkByName(networkName string) (ResolvedChain, error) {
	key := strings.ToLower(strings.TrimSpace(networkName))
	network, ok := s.cfg.Networks[key]
	if !ok {
		return ResolvedChain{}, errors.Newf("unknown network %q", networkName)
	}
	return s.resolve(key, network)
}

func (s *Service) resolve(networkName string, network NetworkConfig) (ResolvedChain, error) {
	// pick RPC by preferred name; otherwise first
	var selected *RPC
	if preferred := strings.TrimSpace(s.cfg.PreferredRPC); preferred != "" {
		for i := range network.RPCs {
			if strings.EqualFold(strings.TrimSpace(network.RPCs[i].Name), preferred) {
				selected = &network.RPCs[i]
				break
			}
		}
	}
	if selected == nil {
		if len(network.RPCs) == 0 {
			return ResolvedChain{}, errors.Newf("network %q has no RPCs configured", networkName)
		}
		selected = &network.RPCs[0]
	}

	return ResolvedChain{
		NetworkName:  networkName,
		ChainID:      network.ChainID,
		ChainIDHex:   network.ChainIDHex,
		IndexerChain: network.IndexerChain,
		Explorer:     network.Explorer,
		RPCName:      selected.Name,
		URL:          strings.TrimSpace(selected.URL),
	}, nil
}
