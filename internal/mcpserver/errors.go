package mcpserver

import (
	"fmt"

	"github.com/codanna-go/codanna/internal/envelope"
	cerrors "github.com/codanna-go/codanna/internal/errors"
)

// Custom MCP error codes, following the teacher's -3200x private range
// convention alongside the standard JSON-RPC codes.
const (
	errCodeIndexNotFound = -32001
	errCodeInvalidParams = -32602
	errCodeInternal      = -32603
)

// toolError is an MCP protocol error with a stable code, carrying the
// envelope it was derived from so a caller can still inspect the original
// structured error if needed.
type toolError struct {
	Code    int
	Message string
	env     *envelope.Envelope
}

func (e *toolError) Error() string {
	return fmt.Sprintf("mcp error %d: %s", e.Code, e.Message)
}

// mapError converts an internal error into a toolError, deriving its code
// from the error's envelope category the same way envelope.FromError
// derives the CLI's JSON code.
func mapError(toolType string, err error) *toolError {
	if err == nil {
		return nil
	}
	env := envelope.FromError(toolType, err, envelope.NewMeta())

	code := errCodeInternal
	switch env.Code {
	case envelope.CodeNotFound:
		code = errCodeIndexNotFound
	case envelope.CodeInvalidQuery:
		code = errCodeInvalidParams
	}

	return &toolError{Code: code, Message: env.Message, env: env}
}

func newInvalidParamsError(msg string) *toolError {
	return &toolError{Code: errCodeInvalidParams, Message: msg}
}

func errNilDependency(what string) error {
	return cerrors.New("mcpserver", cerrors.CodeInternal, what+" is required", nil)
}

func errUnsupportedTransport(transport string) error {
	return cerrors.New("mcpserver", cerrors.CodeInternal, fmt.Sprintf("unsupported transport %q (supported: stdio)", transport), nil)
}
