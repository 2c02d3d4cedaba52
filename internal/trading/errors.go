package trading

import "github.com/casualtrader/engine/internal/trading/tradeerr"

// ErrorKind and TradingError live in the leaf tradeerr package so that
// internal/trading/market (and any other sibling that needs to surface a
// stable error kind) can depend on them without importing this package
// back. These aliases let the rest of the trading core keep writing
// trading.ErrAgentNotFound / trading.NewError as if they were defined
// here directly.
type ErrorKind = tradeerr.ErrorKind

type TradingError = tradeerr.TradingError

const (
	ErrValidation           = tradeerr.ErrValidation
	ErrAgentNotFound        = tradeerr.ErrAgentNotFound
	ErrAgentBusy            = tradeerr.ErrAgentBusy
	ErrCapacityExceeded     = tradeerr.ErrCapacityExceeded
	ErrUnknownMode          = tradeerr.ErrUnknownMode
	ErrMarketClosed         = tradeerr.ErrMarketClosed
	ErrOrderNotExecutable   = tradeerr.ErrOrderNotExecutable
	ErrInsufficientFunds    = tradeerr.ErrInsufficientFunds
	ErrInsufficientPosition = tradeerr.ErrInsufficientPosition
	ErrUpstreamUnavailable  = tradeerr.ErrUpstreamUnavailable
	ErrUpstreamProtocol     = tradeerr.ErrUpstreamProtocol
	ErrToolMaterialization  = tradeerr.ErrToolMaterialization
	ErrTimeoutExpired       = tradeerr.ErrTimeoutExpired
	ErrCancelled            = tradeerr.ErrCancelled
	ErrInternal             = tradeerr.ErrInternal
)

var (
	NewError             = tradeerr.NewError
	NewErrorWithDetails  = tradeerr.NewErrorWithDetails
	KindOf               = tradeerr.KindOf
)
