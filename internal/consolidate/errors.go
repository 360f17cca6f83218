package consolidate

import (
	"fmt"
	"math/big"

	"github.com/cockroachdb/errors"

	"github.com/sendii-cash/sendii-client/internal/constants"
	"github.com/sendii-cash/sendii-client/internal/utils"
)

var (
	ErrFlowBusy            = errors.New("a consolidation is already in progress")
	ErrNoInputs            = errors.New("select at least one token to consolidate")
	ErrNoSession           = errors.New("connect a wallet first")
	ErrUserRejected        = errors.New("Transaction rejected in wallet")
	ErrConsolidationFailed = errors.New("consolidation failed")
	ErrNothingToSend       = errors.New("no consolidated output awaiting send")
)

// InsufficientFundsError reports that the native balance cannot cover the
// native deposit plus the estimated gas cost.
type InsufficientFundsError struct {
	Required  *big.Int
	Available *big.Int
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient %s balance: need %s, have %s",
		constants.NativeSymbol,
		utils.FormatUnitsTrim(e.Required, constants.NativeDecimals, 8),
		utils.FormatUnitsTrim(e.Available, constants.NativeDecimals, 8),
	)
}
