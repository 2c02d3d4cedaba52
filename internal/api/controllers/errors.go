package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casualtrader/engine/internal/trading/tradeerr"
)

// writeError maps a TradingError's stable Kind onto an HTTP status the way
// §6 describes, with an {error_kind, message, details?} body — any other
// error is an opaque 500, never leaking wrapped error text to the client.
func writeError(ctx *gin.Context, err error) {
	var te *tradeerr.TradingError
	if errors.As(err, &te) {
		body := gin.H{"error_kind": te.Kind, "message": te.Message}
		if len(te.Details) > 0 {
			body["details"] = te.Details
		}
		ctx.JSON(statusFor(te.Kind), body)
		return
	}
	ctx.JSON(http.StatusInternalServerError, gin.H{"error_kind": tradeerr.ErrInternal, "message": "internal error"})
}

func statusFor(kind tradeerr.ErrorKind) int {
	switch kind {
	case tradeerr.ErrValidation, tradeerr.ErrUnknownMode:
		return http.StatusBadRequest
	case tradeerr.ErrAgentNotFound:
		return http.StatusNotFound
	case tradeerr.ErrAgentBusy, tradeerr.ErrCapacityExceeded:
		return http.StatusConflict
	case tradeerr.ErrMarketClosed, tradeerr.ErrOrderNotExecutable,
		tradeerr.ErrInsufficientFunds, tradeerr.ErrInsufficientPosition:
		return http.StatusUnprocessableEntity
	case tradeerr.ErrUpstreamUnavailable, tradeerr.ErrUpstreamProtocol:
		return http.StatusBadGateway
	case tradeerr.ErrTimeoutExpired:
		return http.StatusGatewayTimeout
	case tradeerr.ErrCancelled:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
