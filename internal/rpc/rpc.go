// Package rpc is the JSON-over-HTTP transport the player components use to
// reach the backend. A call is identified by a typed Descriptor; the
// Transport underneath only sees paths and opaque values, which keeps the
// components testable against in-memory fakes.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// PathPrefix is where the API mounts RPC routes.
const PathPrefix = "/rpc"

// RequestIDHeader carries the client-generated id of one logical call.
// Every retry of that call reuses it so the server can drop duplicates.
const RequestIDHeader = "X-Request-Id"

var (
	ErrUnauthorized = errors.New("rpc: unauthorized")
	ErrNotFound     = errors.New("rpc: not found")
	ErrInvalid      = errors.New("rpc: invalid request")
)

// Descriptor names one remote method and binds its request/response types.
type Descriptor[Req, Resp any] struct {
	Service string
	Method  string
}

func (d Descriptor[Req, Resp]) Path() string {
	return fmt.Sprintf("%s/%s/%s", PathPrefix, d.Service, d.Method)
}

// CallOptions are per-call transport settings.
type CallOptions struct {
	// Retries is the number of extra attempts after the first one fails
	// with a retryable error.
	Retries int
	// KeepAlive lets the connection be reused after the request. When false
	// the transport closes it once the response is read.
	KeepAlive bool
	// Timeout bounds each attempt. Zero means only ctx bounds it.
	Timeout time.Duration
}

// Transport performs one request/response exchange, applying opts.
type Transport interface {
	Do(ctx context.Context, path string, req, resp any, opts CallOptions) error
}

// Call invokes d on t and decodes the typed response.
func Call[Req, Resp any](ctx context.Context, t Transport, d Descriptor[Req, Resp], req Req, opts ...CallOptions) (*Resp, error) {
	var o CallOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	var resp Resp
	if err := t.Do(ctx, d.Path(), req, &resp, o); err != nil {
		return nil, fmt.Errorf("%s.%s: %w", d.Service, d.Method, err)
	}
	return &resp, nil
}

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("rpc: status %d", e.Code)
	}
	return fmt.Sprintf("rpc: status %d: %s", e.Code, e.Message)
}

// Is maps well-known statuses onto the package sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	case ErrInvalid:
		return e.Code == http.StatusBadRequest
	}
	return false
}

// Temporary reports whether retrying the same request may succeed.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}
