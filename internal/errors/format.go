package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatForUser returns a user-friendly error message.
// If debug is true, includes the underlying cause.
func FormatForUser(err error, debug bool) string {
	if err == nil {
		return ""
	}

	ce, ok := err.(*CodannaError)
	if !ok {
		return err.Error()
	}

	var sb strings.Builder

	sb.WriteString("Error: ")
	sb.WriteString(ce.Message)
	if ce.Path != "" {
		sb.WriteString(" (" + ce.Path + ")")
	}
	sb.WriteString("\n")

	if ce.Suggestion != "" {
		sb.WriteString("\nSuggestion: ")
		sb.WriteString(ce.Suggestion)
		sb.WriteString("\n")
	}

	if debug && ce.Cause != nil {
		sb.WriteString("\nCaused by: ")
		sb.WriteString(ce.Cause.Error())
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("\n[%s]", ce.Code))

	return sb.String()
}

// FormatForCLI formats an error for CLI output.
// Uses a concise format suitable for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	ce, ok := err.(*CodannaError)
	if !ok {
		ce = Wrap("unknown", CodeInternal, err)
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Error: %s\n", ce.Message))

	if ce.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", ce.Suggestion))
	}

	sb.WriteString(fmt.Sprintf("  Code: %s\n", ce.Code))

	return sb.String()
}

// jsonError is the JSON representation of an error.
type jsonError struct {
	Component  string `json:"component,omitempty"`
	Code       Code   `json:"code"`
	Message    string `json:"message"`
	Path       string `json:"path,omitempty"`
	Category   string `json:"category"`
	Severity   string `json:"severity"`
	Suggestion string `json:"suggestion,omitempty"`
	Cause      string `json:"cause,omitempty"`
	Retryable  bool   `json:"retryable"`
}

// FormatJSON returns a JSON representation of the error.
// Suitable for machine consumption and structured logging.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}

	ce, ok := err.(*CodannaError)
	if !ok {
		ce = Wrap("unknown", CodeInternal, err)
	}

	je := jsonError{
		Component:  ce.Component,
		Code:       ce.Code,
		Message:    ce.Message,
		Path:       ce.Path,
		Category:   string(ce.Category()),
		Severity:   string(ce.Severity()),
		Suggestion: ce.Suggestion,
		Retryable:  ce.Retryable(),
	}

	if ce.Cause != nil {
		je.Cause = ce.Cause.Error()
	}

	return json.Marshal(je)
}

// FormatForLog formats an error for structured logging.
// Returns key-value pairs suitable for slog attributes.
func FormatForLog(err error) map[string]any {
	if err == nil {
		return nil
	}

	ce, ok := err.(*CodannaError)
	if !ok {
		return map[string]any{
			"error": err.Error(),
		}
	}

	result := map[string]any{
		"component":  ce.Component,
		"error_code": ce.Code,
		"message":    ce.Message,
		"category":   string(ce.Category()),
		"severity":   string(ce.Severity()),
		"retryable":  ce.Retryable(),
	}

	if ce.Path != "" {
		result["path"] = ce.Path
	}

	if ce.Cause != nil {
		result["cause"] = ce.Cause.Error()
	}

	if ce.Suggestion != "" {
		result["suggestion"] = ce.Suggestion
	}

	return result
}
