package rpc

import (
	"encoding/json"
	"errors"

	"github.com/xvierd/mootimer/internal/domain"
)

// HandlerFunc serves one method. A returned error is mapped onto a JSON-RPC
// error object; anything that is not already an *Error or a validation or
// lookup failure becomes a generic server error.
type HandlerFunc func(params json.RawMessage) (any, error)

// Router maps "namespace.action" method names to handlers.
type Router struct {
	handlers map[string]HandlerFunc
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{handlers: make(map[string]HandlerFunc)}
}

// Register binds a method name to its handler. Registration happens during
// daemon wiring, before the server accepts connections.
func (r *Router) Register(method string, fn HandlerFunc) {
	r.handlers[method] = fn
}

// Methods returns the number of registered methods.
func (r *Router) Methods() int {
	return len(r.handlers)
}

// Dispatch runs the request's handler and builds its response. A request
// without an id is a notification: it is executed but Dispatch returns nil.
func (r *Router) Dispatch(req *Request) *Response {
	if req.Jsonrpc != Version {
		return NewErrorResponse(req.ID, NewError(CodeInvalidRequest, "jsonrpc must be %q", Version))
	}
	if req.Method == "" {
		return NewErrorResponse(req.ID, NewError(CodeInvalidRequest, "method is required"))
	}

	handler, ok := r.handlers[req.Method]
	if !ok {
		if req.ID == nil {
			return nil
		}
		return NewErrorResponse(req.ID, NewError(CodeMethodNotFound, "method %q not found", req.Method))
	}

	result, err := handler(req.Params)
	if req.ID == nil {
		return nil
	}
	if err != nil {
		return NewErrorResponse(req.ID, errorFrom(err))
	}
	return NewResponse(req.ID, result)
}

// errorFrom maps a handler error onto a JSON-RPC error object.
func errorFrom(err error) *Error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return NewError(CodeServerError, "%s", verr.Msg)
	}
	return NewError(CodeServerError, "%s", err.Error())
}

// DecodeParams unmarshals the params object into v, mapping malformed or
// mistyped params onto an invalid-params error. Absent params decode as the
// zero value.
func DecodeParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return NewError(CodeInvalidParams, "invalid params: %s", err.Error())
	}
	return nil
}
