package tradeerr

import "fmt"

// ErrorKind is a stable identifier surfaced at every layer — tool
// responses to the LLM, AgentSession.ErrorKind, and the HTTP edge's 4xx/5xx
// mapping. Plain fmt.Errorf wrapping (the dominant idiom elsewhere in this
// repo) can't give callers a string-matchable kind without scraping error
// text, which is why this type exists only here.
type ErrorKind string

const (
	ErrValidation            ErrorKind = "ValidationError"
	ErrAgentNotFound         ErrorKind = "AgentNotFound"
	ErrAgentBusy             ErrorKind = "AgentBusy"
	ErrCapacityExceeded      ErrorKind = "CapacityExceeded"
	ErrUnknownMode           ErrorKind = "UnknownMode"
	ErrMarketClosed          ErrorKind = "MarketClosed"
	ErrOrderNotExecutable    ErrorKind = "OrderNotExecutable"
	ErrInsufficientFunds     ErrorKind = "InsufficientFunds"
	ErrInsufficientPosition  ErrorKind = "InsufficientPosition"
	ErrUpstreamUnavailable   ErrorKind = "UpstreamUnavailable"
	ErrUpstreamProtocol      ErrorKind = "UpstreamProtocolError"
	ErrToolMaterialization   ErrorKind = "ToolMaterializationError"
	ErrTimeoutExpired        ErrorKind = "TimeoutExpired"
	ErrCancelled             ErrorKind = "Cancelled"
	ErrInternal              ErrorKind = "InternalError"
)

// TradingError carries a stable Kind alongside the usual wrapped error so
// callers can switch on it without string matching, while %w unwrapping
// still works for everyone else.
type TradingError struct {
	Kind    ErrorKind
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *TradingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *TradingError) Unwrap() error {
	return e.Err
}

func NewError(kind ErrorKind, message string, err error) *TradingError {
	return &TradingError{Kind: kind, Message: message, Err: err}
}

func NewErrorWithDetails(kind ErrorKind, message string, details map[string]interface{}, err error) *TradingError {
	return &TradingError{Kind: kind, Message: message, Details: details, Err: err}
}

// KindOf extracts the ErrorKind from err if it (or something it wraps) is
// a *TradingError, defaulting to ErrInternal otherwise.
func KindOf(err error) ErrorKind {
	var te *TradingError
	if err == nil {
		return ""
	}
	if asTradingError(err, &te) {
		return te.Kind
	}
	return ErrInternal
}

func asTradingError(err error, target **TradingError) bool {
	for err != nil {
		if te, ok := err.(*TradingError); ok {
			*target = te
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
