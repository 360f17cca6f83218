package http

import (
	"net/http"

	"github.com/cockroachdb/errors"

	"github.com/sendii-cash/sendii-client/internal/wallet"
)

func (s *Server) walletStatus() walletStatusResp {
	resp := walletStatusResp{Connected: s.deps.Session.Connected()}
	if addr, err := s.deps.Session.Address(); err == nil {
		resp.Address = addr.Hex()
	}
	if chain, err := s.deps.Session.Chain(); err == nil {
		resp.ChainID = chain.ChainID
		resp.ChainIDHex = chain.ChainIDHex
		resp.Network = chain.NetworkName
		resp.Explorer = chain.Explorer
	}
	if age, ok := s.deps.Session.HeaderAge(); ok {
		ms := age.Milliseconds()
		resp.HeaderAgeMillis = &ms
	}
	return resp
}

func (s *Server) handleWalletConnect(w http.ResponseWriter, r *http.Request) {
	var req struct{}
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if s.deps.Signer == nil {
		writeError(w, badRequest("no wallet signer configured"))
		return
	}
	if _, err := s.deps.Session.Connect(r.Context(), s.deps.Signer); err != nil {
		if wallet.IsUserRejected(err) {
			writeError(w, err)
			return
		}
		writeError(w, errors.Mark(err, errUpstream))
		return
	}
	writeJSON(w, http.StatusOK, s.walletStatus())
}

func (s *Server) handleWalletDisconnect(w http.ResponseWriter, _ *http.Request) {
	s.deps.Session.Disconnect()

	s.selMu.Lock()
	s.deps.Selection.Clear()
	s.selMu.Unlock()

	writeJSON(w, http.StatusOK, s.walletStatus())
}

func (s *Server) handleWalletStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.walletStatus())
}

func (s *Server) handleWalletSwitchChain(w http.ResponseWriter, r *http.Request) {
	var req switchChainReq
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.ChainID == 0 {
		writeError(w, badRequest("missing chainId"))
		return
	}

	_, fellBack, err := s.deps.Session.SwitchChain(r.Context(), req.ChainID)
	if err != nil {
		writeError(w, errors.Mark(err, errUpstream))
		return
	}

	// balances and selection belong to the previous chain
	s.selMu.Lock()
	s.deps.Selection.Clear()
	s.selMu.Unlock()

	resp := s.walletStatus()
	resp.SwitchedToDefault = fellBack
	writeJSON(w, http.StatusOK, resp)
}
