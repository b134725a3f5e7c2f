// Package envelope builds the JSON result envelope returned by the CLI and
// the MCP server: a stable {type, status, code, exit_code, message, data,
// error, meta} shape so scripts and editor integrations can depend on a
// fixed contract regardless of which command produced it. It generalizes
// the teacher's plain colored-icon console writer into a JSON surface,
// deriving the envelope's code from internal/errors' tagged categories.
package envelope

import (
	"encoding/json"
	"io"

	cerrors "github.com/codanna-go/codanna/internal/errors"
)

// SchemaVersion is the envelope schema version reported in every meta
// block. Bump it only on a breaking field change.
const SchemaVersion = "1.0.0"

// Status is the coarse outcome of an operation.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Code is the machine-readable outcome code, independent of Status so a
// caller can switch on Code without string-matching Message.
type Code string

const (
	CodeOK            Code = "OK"
	CodeNotFound      Code = "NOT_FOUND"
	CodeParseError    Code = "PARSE_ERROR"
	CodeIndexError    Code = "INDEX_ERROR"
	CodeInvalidQuery  Code = "INVALID_QUERY"
	CodeInternalError Code = "INTERNAL_ERROR"
)

// Exit codes for the CLI process.
const (
	ExitSuccess  = 0
	ExitNotFound = 1
	ExitError    = 2
)

// ErrorDetail carries the structured error when Status is StatusError.
type ErrorDetail struct {
	Component string `json:"component,omitempty"`
	Code      string `json:"code,omitempty"`
	Category  string `json:"category,omitempty"`
	Message   string `json:"message"`
	Path      string `json:"path,omitempty"`
}

// Meta carries per-response metadata. SchemaVersion is always populated;
// the rest are operation-specific and omitted when unset.
type Meta struct {
	SchemaVersion string `json:"schema_version"`
	EntityType    string `json:"entity_type,omitempty"`
	Count         *int   `json:"count,omitempty"`
	Query         string `json:"query,omitempty"`
	DurationMs    *int64 `json:"duration_ms,omitempty"`
	Truncated     bool   `json:"truncated,omitempty"`
	Depth         *int   `json:"depth,omitempty"`
}

// NewMeta returns a Meta with SchemaVersion populated and every optional
// field empty.
func NewMeta() Meta {
	return Meta{SchemaVersion: SchemaVersion}
}

// Envelope is the top-level JSON response shape.
type Envelope struct {
	Type     string       `json:"type"`
	Status   Status       `json:"status"`
	Code     Code         `json:"code"`
	ExitCode int          `json:"exit_code"`
	Message  string       `json:"message"`
	Hint     string       `json:"hint,omitempty"`
	Data     any          `json:"data,omitempty"`
	Error    *ErrorDetail `json:"error,omitempty"`
	Meta     Meta         `json:"meta"`
}

// Ok builds a success envelope carrying data.
func Ok(typ, message string, data any, meta Meta) *Envelope {
	if meta.SchemaVersion == "" {
		meta.SchemaVersion = SchemaVersion
	}
	return &Envelope{
		Type:     typ,
		Status:   StatusOK,
		Code:     CodeOK,
		ExitCode: ExitSuccess,
		Message:  message,
		Data:     data,
		Meta:     meta,
	}
}

// NotFound builds a not-found envelope: a well-formed query that matched
// nothing, not a failure of the query mechanism itself.
func NotFound(typ, message string, meta Meta) *Envelope {
	if meta.SchemaVersion == "" {
		meta.SchemaVersion = SchemaVersion
	}
	return &Envelope{
		Type:     typ,
		Status:   StatusError,
		Code:     CodeNotFound,
		ExitCode: ExitNotFound,
		Message:  message,
		Meta:     meta,
	}
}

// InvalidQuery builds an envelope for a query the caller could not even
// attempt to run (bad graph-query syntax, unknown entity kind, ...).
func InvalidQuery(typ, message string, meta Meta) *Envelope {
	if meta.SchemaVersion == "" {
		meta.SchemaVersion = SchemaVersion
	}
	return &Envelope{
		Type:     typ,
		Status:   StatusError,
		Code:     CodeInvalidQuery,
		ExitCode: ExitError,
		Message:  message,
		Meta:     meta,
	}
}

// FromError builds an error envelope from err, deriving Code from the
// error's category when err is an *errors.CodannaError and falling back to
// CodeInternalError for anything else (including plain stdlib errors).
func FromError(typ string, err error, meta Meta) *Envelope {
	if meta.SchemaVersion == "" {
		meta.SchemaVersion = SchemaVersion
	}
	env := &Envelope{
		Type:     typ,
		Status:   StatusError,
		Code:     CodeInternalError,
		ExitCode: ExitError,
		Message:  err.Error(),
		Meta:     meta,
	}

	var ce *cerrors.CodannaError
	if !cerrors.As(err, &ce) {
		env.Error = &ErrorDetail{Message: err.Error()}
		return env
	}

	env.Code = codeForCategory(ce.Category())
	env.Message = ce.Message
	env.Hint = ce.Suggestion
	env.Error = &ErrorDetail{
		Component: ce.Component,
		Code:      string(ce.Code),
		Category:  string(ce.Category()),
		Message:   ce.Message,
		Path:      ce.Path,
	}
	if ce.Severity() == cerrors.SeverityFatal {
		env.ExitCode = ExitError
	}
	return env
}

// codeForCategory maps an internal/errors.Category to the envelope's
// closed Code set. Parse failures get their own code because a caller
// retrying after fixing source differs materially from a storage failure;
// everything else backing the index (vector, full-text, pipeline, embed,
// document, watcher, config) collapses to INDEX_ERROR.
func codeForCategory(cat cerrors.Category) Code {
	switch cat {
	case cerrors.CategoryParse:
		return CodeParseError
	case cerrors.CategoryVector, cerrors.CategoryFullText, cerrors.CategoryPipeline,
		cerrors.CategoryEmbed, cerrors.CategoryDocument, cerrors.CategoryWatcher,
		cerrors.CategoryConfig:
		return CodeIndexError
	default:
		return CodeInternalError
	}
}

// Write marshals env as indented JSON to w.
func Write(w io.Writer, env *Envelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}
