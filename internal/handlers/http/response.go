package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gabapcia/chainscan/internal/chainstore"
	"github.com/gabapcia/chainscan/internal/event"
	"github.com/gabapcia/chainscan/internal/eventcache"
	"github.com/gabapcia/chainscan/internal/listener"
	"github.com/gabapcia/chainscan/internal/node"
	"github.com/gabapcia/chainscan/internal/pkg/logger"
	"github.com/gabapcia/chainscan/internal/pool"
)

var (
	// ErrBadRequest is returned for malformed input.
	ErrBadRequest = errors.New("bad request")

	// ErrUnknownOperation is returned by /rpc for operations outside the whitelist.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrRouteNotFound is returned for paths no route matches.
	ErrRouteNotFound = errors.New("route not found")

	// ErrMethodNotAllowed is returned when the path exists for other methods.
	ErrMethodNotAllowed = errors.New("method not allowed")

	// ErrRateLimited is returned when the process-wide request budget is spent.
	ErrRateLimited = errors.New("too many requests")
)

const (
	statusOK    = 0
	statusError = 1
)

// APIError is the machine readable part of an error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type envelope struct {
	Status    int       `json:"status"`
	Operation string    `json:"operation,omitempty"`
	Data      any       `json:"data,omitempty"`
	Error     *APIError `json:"error,omitempty"`
}

// Classify maps err to its HTTP status, code and message. Unclassified
// errors get a generic message.
func Classify(err error) APIError {
	status, code := http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"

	switch {
	case errors.Is(err, event.ErrInvalidConfig):
		status, code = http.StatusInternalServerError, "CONFIG_ERROR"
	case errors.Is(err, pool.ErrBusy):
		status, code = http.StatusServiceUnavailable, "POOL_BUSY"
	case errors.Is(err, pool.ErrUnreachable), errors.Is(err, node.ErrClosed):
		status, code = http.StatusServiceUnavailable, "NODE_UNREACHABLE"
	case errors.Is(err, chainstore.ErrUnavailable):
		status, code = http.StatusServiceUnavailable, "STORE_UNAVAILABLE"
	case errors.Is(err, listener.ErrNotFound),
		errors.Is(err, event.ErrUnknownEventType),
		errors.Is(err, eventcache.ErrNotFound),
		errors.Is(err, chainstore.ErrNotFound),
		errors.Is(err, ErrRouteNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, node.ErrEmptyPayload), errors.Is(err, node.ErrProtocol):
		status, code = http.StatusBadGateway, "PROTOCOL_ERROR"
	case errors.Is(err, node.ErrNodeReturnedError):
		status, code = http.StatusBadGateway, "NODE_ERROR"
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrUnknownOperation):
		status, code = http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, ErrMethodNotAllowed):
		status, code = http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"
	case errors.Is(err, ErrRateLimited):
		status, code = http.StatusTooManyRequests, "RATE_LIMITED"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "TIMEOUT"
	default:
		return APIError{Code: code, Message: "internal server error", Status: status}
	}

	return APIError{Code: code, Message: err.Error(), Status: status}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Status: statusOK, Data: data})
}

// WriteError renders err as an error envelope.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := Classify(err)

	if apiErr.Status >= http.StatusInternalServerError && apiErr.Code == "INTERNAL_SERVER_ERROR" {
		logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	} else {
		logger.Debug(r.Context(), "request rejected", "path", r.URL.Path, "code", apiErr.Code, "error", err)
	}

	if errors.Is(err, pool.ErrBusy) || errors.Is(err, ErrRateLimited) {
		w.Header().Set("Retry-After", "1")
	}

	writeJSON(w, apiErr.Status, envelope{Status: statusError, Error: &apiErr})
}
