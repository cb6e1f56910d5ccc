// Copyright 2025 Joseph Cumines
//
// JSON-RPC 2.0 message types shared by the server bridge and clients

package transport

import "encoding/json"

// JSON-RPC 2.0 standard error codes.
// See: https://www.jsonrpc.org/specification#error_object
const (
	// ErrCodeParseError indicates invalid JSON was received by the server.
	ErrCodeParseError = -32700

	// ErrCodeInvalidRequest indicates the JSON sent is not a valid Request object.
	ErrCodeInvalidRequest = -32600

	// ErrCodeMethodNotFound indicates the method does not exist or is not available.
	ErrCodeMethodNotFound = -32601

	// ErrCodeInvalidParams indicates invalid method parameter(s).
	ErrCodeInvalidParams = -32602

	// ErrCodeInternalError indicates an internal JSON-RPC error.
	ErrCodeInternalError = -32603
)

// Message represents a JSON-RPC 2.0 message.
//
// This is a union type that can represent either a Request or a Response:
//
// Request format:
//   - JSONRPC: "2.0" (required)
//   - Method: The method name (required)
//   - Params: Method parameters (optional)
//   - ID: Request identifier (omit for notifications)
//
// Response format:
//   - JSONRPC: "2.0" (required)
//   - Result: Success result (mutually exclusive with Error)
//   - Error: Error object (mutually exclusive with Result)
//   - ID: Matches the request ID (null when the request id is unknown)
//
// ID is kept raw so that an absent id (a notification, which must never be
// answered) stays distinguishable from an explicit null id (a call whose
// response carries id null).
//
//lint:ignore BETTERALIGN struct is intentionally ordered for clarity
type Message struct {
	// Error contains error details for failed requests.
	// Present only in error responses; mutually exclusive with Result.
	Error *ErrorObj `json:"error,omitempty"`

	// JSONRPC is always "2.0" per the JSON-RPC specification.
	JSONRPC string `json:"jsonrpc"`

	// Method is the name of the method to invoke.
	// Present only in requests.
	Method string `json:"method,omitempty"`

	// ID is the request identifier: any JSON value, raw. Empty means the
	// id key was absent entirely.
	ID json.RawMessage `json:"id,omitempty"`

	// Params contains the method parameters.
	// Present only in requests; may be object or array.
	Params json.RawMessage `json:"params,omitempty"`

	// Result contains the success response data.
	// Present only in success responses; mutually exclusive with Error.
	Result json.RawMessage `json:"result,omitempty"`
}

// ErrorObj represents a JSON-RPC 2.0 error object.
//
//lint:ignore BETTERALIGN struct is intentionally ordered for clarity
type ErrorObj struct {
	// Message is a human-readable description of the error.
	Message string `json:"message"`

	// Data contains additional error information.
	// May be any JSON value; structure is implementation-defined.
	Data json.RawMessage `json:"data,omitempty"`

	// Code is a number indicating the error type.
	// See JSON-RPC 2.0 specification for standard codes.
	Code int `json:"code"`
}

// IsNotification reports whether the message is a request without an id,
// which per the protocol must be processed without producing a response.
func (m *Message) IsNotification() bool {
	return len(m.ID) == 0
}

// NewResult builds a success response for the given request id. result is
// marshaled; a marshal failure degrades to an internal error response.
func NewResult(id json.RawMessage, result any) *Message {
	data, err := json.Marshal(result)
	if err != nil {
		return NewError(id, ErrCodeInternalError, "failed to encode result: "+err.Error())
	}
	return &Message{JSONRPC: "2.0", ID: id, Result: data}
}

// NewError builds an error response for the given request id. A nil id is
// rendered as JSON null, the protocol's value for "id unknown".
func NewError(id json.RawMessage, code int, message string) *Message {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	return &Message{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &ErrorObj{Code: code, Message: message},
	}
}
