package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/sendii-cash/sendii-client/internal/consolidate"
	"github.com/sendii-cash/sendii-client/internal/dust"
	"github.com/sendii-cash/sendii-client/internal/utils"
	"github.com/sendii-cash/sendii-client/internal/wallet"
)

// refresh fetches balances for the connected account and resets the selection.
// Callers hold selMu.
func (s *Server) refresh(ctx context.Context) (dust.Snapshot, error) {
	key, err := s.deps.Session.Key()
	if err != nil {
		return dust.Snapshot{}, err
	}
	tokens, err := s.deps.Assets.Refresh(ctx, key.Address, key.ChainID)
	if err != nil {
		return dust.Snapshot{}, errors.Mark(err, errUpstream)
	}
	output, _ := s.deps.Assets.Catalog().DefaultOutput(key.ChainID)
	s.deps.Selection.Reset(key, tokens, output)
	return s.deps.Selection.Snapshot(), nil
}

// RefreshAfterSettle drops cached balances for key and re-reads them. It is
// the consolidation flow's settle hook.
func (s *Server) RefreshAfterSettle(ctx context.Context, key wallet.Key) {
	s.deps.Assets.Invalidate(ctx, key.Address, key.ChainID)

	s.selMu.Lock()
	defer s.selMu.Unlock()
	if _, err := s.refresh(ctx); err != nil {
		log.Warn("post-settle refresh failed", "address", key.Address.Hex(), "chainId", key.ChainID, "error", err)
	}
}

// freshKey returns the session key if the selection was computed for it.
// Callers hold selMu.
func (s *Server) freshKey() (wallet.Key, error) {
	key, err := s.deps.Session.Key()
	if err != nil {
		return wallet.Key{}, err
	}
	if !s.deps.Selection.Matches(key) {
		return wallet.Key{}, dust.ErrStale
	}
	return key, nil
}

func (s *Server) handleDustTokens(w http.ResponseWriter, r *http.Request) {
	s.selMu.Lock()
	defer s.selMu.Unlock()

	snap, err := s.refresh(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDustCatalog(w http.ResponseWriter, r *http.Request) {
	var chainID uint64
	if raw := r.URL.Query().Get("chainId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, badRequest("invalid chainId"))
			return
		}
		chainID = id
	} else {
		chain, err := s.deps.Session.Chain()
		if err != nil {
			writeError(w, badRequest("no active chain; pass chainId"))
			return
		}
		chainID = chain.ChainID
	}

	catalog := s.deps.Assets.Catalog()
	if !catalog.Supports(chainID) {
		writeError(w, badRequest("chain "+strconv.FormatUint(chainID, 10)+" has no catalog"))
		return
	}
	writeJSON(w, http.StatusOK, catalogResp{
		ChainID:    chainID,
		Assets:     catalog.Assets(chainID),
		Thresholds: dust.Thresholds(),
	})
}

func (s *Server) handleDustThreshold(w http.ResponseWriter, r *http.Request) {
	var req thresholdReq
	if !decodeJSONBody(w, r, &req) {
		return
	}
	t, err := dust.ParseThreshold(req.Threshold)
	if err != nil {
		writeError(w, err)
		return
	}

	s.selMu.Lock()
	defer s.selMu.Unlock()
	// the threshold outlives the account; tokens from another key do not
	if _, err := s.freshKey(); err != nil {
		s.deps.Selection.Clear()
	}
	s.deps.Selection.SetThreshold(t)
	writeJSON(w, http.StatusOK, s.deps.Selection.Snapshot())
}

func (s *Server) handleDustToggle(w http.ResponseWriter, r *http.Request) {
	var req symbolReq
	if !decodeJSONBody(w, r, &req) {
		return
	}

	s.selMu.Lock()
	defer s.selMu.Unlock()
	if _, err := s.freshKey(); err != nil {
		writeError(w, err)
		return
	}
	if err := s.deps.Selection.Toggle(req.Symbol); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Selection.Snapshot())
}

func (s *Server) handleDustRemove(w http.ResponseWriter, r *http.Request) {
	var req symbolReq
	if !decodeJSONBody(w, r, &req) {
		return
	}

	s.selMu.Lock()
	defer s.selMu.Unlock()
	if _, err := s.freshKey(); err != nil {
		writeError(w, err)
		return
	}
	s.deps.Selection.Remove(req.Symbol)
	writeJSON(w, http.StatusOK, s.deps.Selection.Snapshot())
}

func (s *Server) handleDustOutput(w http.ResponseWriter, r *http.Request) {
	var req symbolReq
	if !decodeJSONBody(w, r, &req) {
		return
	}

	s.selMu.Lock()
	defer s.selMu.Unlock()
	key, err := s.freshKey()
	if err != nil {
		writeError(w, err)
		return
	}
	asset, ok := s.deps.Assets.Catalog().BySymbol(key.ChainID, req.Symbol)
	if !ok {
		writeError(w, errors.Wrapf(dust.ErrUnknownToken, "%q", req.Symbol))
		return
	}
	s.deps.Selection.SetOutput(asset)
	writeJSON(w, http.StatusOK, s.deps.Selection.Snapshot())
}

func (s *Server) handleDustConsolidate(w http.ResponseWriter, r *http.Request) {
	s.selMu.Lock()
	if _, err := s.freshKey(); err != nil {
		s.selMu.Unlock()
		writeError(w, err)
		return
	}
	req := consolidate.Request{
		Inputs: s.deps.Selection.Inputs(),
		Output: s.deps.Selection.Output(),
	}
	s.selMu.Unlock()

	res, err := s.deps.Flow.Start(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, consolidateResp{OK: true, Result: res})
}

func (s *Server) handleDustSend(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Flow.ConfirmSend(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sendResp{OK: true, SendResult: res})
}

func (s *Server) handleDustDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositReq
	if !decodeJSONBody(w, r, &req) {
		return
	}
	key, err := s.deps.Session.Key()
	if err != nil {
		writeError(w, err)
		return
	}
	asset, ok := s.deps.Assets.Catalog().BySymbol(key.ChainID, req.Symbol)
	if !ok {
		writeError(w, errors.Wrapf(dust.ErrUnknownToken, "%q", req.Symbol))
		return
	}
	amount, err := utils.ParseUnits(req.Amount, asset.Decimals)
	if err != nil || amount.Sign() <= 0 {
		writeError(w, badRequest("Please enter a valid amount"))
		return
	}

	res, err := s.deps.Flow.DepositDust(r.Context(), asset, amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, consolidateResp{OK: true, Result: res})
}

func (s *Server) handleDustFlow(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Flow.Status())
}
