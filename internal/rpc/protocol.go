// Package rpc implements the newline-delimited JSON-RPC 2.0 control plane
// over the daemon's unix socket: one request or response per line, with
// server-initiated event notifications interleaved on the same connection.
package rpc

import (
	"encoding/json"
	"fmt"
)

// Version is the protocol version stamped on every message.
const Version = "2.0"

// JSON-RPC 2.0 error codes. Domain failures (not found, conflicts,
// validation) all map onto CodeServerError.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeServerError    = -32000
)

// Request is an incoming call. A nil ID marks a notification, which gets
// no response.
type Request struct {
	Jsonrpc string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

// Response answers one request, echoing its id.
type Response struct {
	Jsonrpc string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id"`
	Result  any              `json:"result,omitempty"`
	Error   *Error           `json:"error,omitempty"`
}

// Notification is a server-initiated message carrying a broadcast event.
type Notification struct {
	Jsonrpc string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// NewError builds an error object with a formatted message.
func NewError(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewResponse builds a success response for the given request id.
func NewResponse(id *json.RawMessage, result any) *Response {
	return &Response{Jsonrpc: Version, ID: id, Result: result}
}

// NewErrorResponse builds an error response for the given request id.
func NewErrorResponse(id *json.RawMessage, err *Error) *Response {
	return &Response{Jsonrpc: Version, ID: id, Error: err}
}
