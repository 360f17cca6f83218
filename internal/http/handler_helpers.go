package http

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/sendii-cash/sendii-client/internal/consolidate"
	"github.com/sendii-cash/sendii-client/internal/constants"
	"github.com/sendii-cash/sendii-client/internal/dust"
	"github.com/sendii-cash/sendii-client/internal/history"
	"github.com/sendii-cash/sendii-client/internal/indexer"
	"github.com/sendii-cash/sendii-client/internal/ramp"
	"github.com/sendii-cash/sendii-client/internal/utils"
	"github.com/sendii-cash/sendii-client/internal/wallet"
)

var (
	errBadRequest = errors.New("bad request")
	errUpstream   = errors.New("upstream failure")
)

func badRequest(msg string) error {
	return errors.Mark(errors.New(msg), errBadRequest)
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := readJSONBody(r, dst); err != nil {
		writeError(w, errors.Mark(errors.Wrap(err, HTTPErrorInvalidJSONText), errBadRequest))
		return false
	}
	return true
}

// writeError maps a domain error onto a status code and error body.
func writeError(w http.ResponseWriter, err error) {
	status, body := errorBody(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, body)
}

func errorBody(err error) (int, errorResponse) {
	body := errorResponse{OK: false, Error: err.Error()}

	var insufficient *consolidate.InsufficientFundsError
	var invalidForm *ramp.ValidationError
	switch {
	case errors.As(err, &insufficient):
		body.Code = CodeInsufficientFunds
		body.Required = utils.FormatUnitsTrim(insufficient.Required, constants.NativeDecimals, 8)
		return http.StatusBadRequest, body
	case errors.Is(err, consolidate.ErrUserRejected), wallet.IsUserRejected(err):
		body.Code = CodeUserRejected
		body.Error = consolidate.ErrUserRejected.Error()
		return http.StatusConflict, body
	case errors.Is(err, consolidate.ErrFlowBusy):
		body.Code = CodeBusy
		return http.StatusConflict, body
	case errors.Is(err, consolidate.ErrNothingToSend):
		body.Code = CodeNothingToSend
		return http.StatusConflict, body
	case errors.Is(err, dust.ErrStale):
		body.Code = CodeStaleSelection
		return http.StatusConflict, body
	case errors.As(err, &invalidForm):
		body.Code = CodeInvalidRequest
		body.Error = invalidForm.Message
		return http.StatusBadRequest, body
	case errors.Is(err, consolidate.ErrNoSession), errors.Is(err, wallet.ErrNotConnected):
		body.Code = CodeNotConnected
		body.Error = consolidate.ErrNoSession.Error()
		return http.StatusBadRequest, body
	case errors.Is(err, errBadRequest),
		errors.Is(err, consolidate.ErrNoInputs),
		errors.Is(err, dust.ErrUnknownThreshold),
		errors.Is(err, dust.ErrUnknownToken),
		errors.Is(err, ramp.ErrUnknownProvider),
		errors.Is(err, ramp.ErrUnknownToken):
		body.Code = CodeInvalidRequest
		return http.StatusBadRequest, body
	case errors.Is(err, ramp.ErrConfirmationNotFound), errors.Is(err, history.ErrNotFound):
		body.Code = CodeNotFound
		return http.StatusNotFound, body
	case errors.Is(err, errUpstream),
		errors.Is(err, indexer.ErrIndexerStatus),
		errors.Is(err, consolidate.ErrConsolidationFailed),
		errors.Is(err, ramp.ErrSettlementFailed):
		body.Code = CodeUpstream
		return http.StatusBadGateway, body
	default:
		body.Code = CodeInternal
		return http.StatusInternalServerError, body
	}
}
