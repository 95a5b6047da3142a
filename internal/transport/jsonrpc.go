package transport

import (
	"net/http"

	json "github.com/goccy/go-json"
)

// JSON-RPC 2.0 error codes.
const (
	ErrInvalidReq = -32600
	ErrInternal   = -32603
	// ErrUnauthorizedCode is in the implementation-defined server error range.
	ErrUnauthorizedCode = -32001
)

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Error   *Error `json:"error,omitempty"`
	ID      any    `json:"id"`
}

// Error represents a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// WriteError writes a JSON-RPC error response with the given HTTP status.
// Requests rejected before reaching the MCP server have no id to echo.
func WriteError(w http.ResponseWriter, status, code int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{
		JSONRPC: "2.0",
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
	})
}
