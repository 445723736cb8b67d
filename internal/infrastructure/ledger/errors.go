package ledger

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// JSON-RPC codes returned by Solana nodes that are worth another attempt.
const (
	codeInternalError       = -32603
	codeNodeUnhealthy       = -32005
	codeBlockNotAvailable   = -32004
	codeSlotSkipped         = -32007
	codeMinContextSlotNotOk = -32016
)

// isSafeToResend reports whether err proves the request was never processed.
func isSafeToResend(err error) bool {
	var httpErr *jsonrpc.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code == http.StatusTooManyRequests ||
			httpErr.Code == http.StatusServiceUnavailable
	}
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		// Rate limiting providers echo the HTTP status as the JSON-RPC code.
		switch rpcErr.Code {
		case codeNodeUnhealthy, codeBlockNotAvailable,
			http.StatusTooManyRequests, http.StatusServiceUnavailable:
			return true
		}
		return isRefusalMessage(rpcErr.Message)
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return isRefusalMessage(err.Error())
}

func isRefusalMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "connection refused")
}

// isRetryable reports whether a read request failing with err may succeed
// on another attempt.
func isRetryable(err error) bool {
	if isSafeToResend(err) {
		return true
	}
	// A per-attempt deadline surfaces as DeadlineExceeded while the parent
	// context is still alive.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var httpErr *jsonrpc.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code == http.StatusBadGateway ||
			httpErr.Code == http.StatusGatewayTimeout ||
			httpErr.Code == http.StatusRequestTimeout
	}
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		switch rpcErr.Code {
		case codeInternalError, codeSlotSkipped, codeMinContextSlotNotOk,
			http.StatusBadGateway, http.StatusGatewayTimeout, http.StatusRequestTimeout:
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, hint := range []string{"timeout", "connection reset", "eof", "bad gateway"} {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}
