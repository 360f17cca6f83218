package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sendii-cash/sendii-client/internal/history"
	"github.com/sendii-cash/sendii-client/internal/ramp"
)

func (s *Server) handleRampProviders(w http.ResponseWriter, _ *http.Request) {
	reg := s.deps.Ramp.Registry()
	writeJSON(w, http.StatusOK, providersResp{Providers: reg.Providers(), Tokens: reg.Tokens()})
}

func (s *Server) handleRampConvert(w http.ResponseWriter, r *http.Request) {
	var req convertReq
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Fiat == "" && req.Crypto == "" {
		writeError(w, badRequest("one of fiat or crypto is required"))
		return
	}
	p, err := s.deps.Ramp.Registry().Provider(req.Provider)
	if err != nil {
		writeError(w, err)
		return
	}
	fiat, crypto, err := s.deps.Ramp.Convert(p.ID, req.Fiat, req.Crypto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convertResp{Provider: p.ID, Currency: p.Currency, Fiat: fiat, Crypto: crypto})
}

func (s *Server) handleRampPrepare(w http.ResponseWriter, r *http.Request) {
	var form ramp.Form
	if !decodeJSONBody(w, r, &form) {
		return
	}
	c, err := s.deps.Ramp.Prepare(form)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleRampConfirm(w http.ResponseWriter, r *http.Request) {
	var req idReq
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.ID == "" {
		writeError(w, badRequest("missing id"))
		return
	}
	out, err := s.deps.Ramp.Confirm(r.Context(), req.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, confirmResp{OK: true, Message: out.Message, Receipt: history.NewReceipt(out.Record)})
}

func (s *Server) handleRampCancel(w http.ResponseWriter, r *http.Request) {
	var req idReq
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := s.deps.Ramp.Cancel(req.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, badRequest("invalid limit"))
			return
		}
		limit = n
	}
	records, err := s.deps.History.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResp{Items: history.NewItems(records, s.now())})
}

func (s *Server) handleHistoryReceipt(w http.ResponseWriter, r *http.Request) {
	rec, err := s.deps.History.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history.NewReceipt(rec))
}
