package gen

import (
	"fmt"
	"log/slog"
	"strings"
)

// Severity grades a diagnostic and picks the slog level it is logged at.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

func (s Severity) level() slog.Level {
	switch s {
	case SeverityError:
		return slog.LevelError
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelDebug
	}
}

// Diagnostic codes.
const (
	CodeMissingOperationID      = "missing-operation-id"
	CodeInvalidOperationID      = "invalid-operation-id"
	CodeDuplicateInterface      = "duplicate-interface"
	CodeDuplicateFunction       = "duplicate-function"
	CodeUnsupportedResponse     = "unsupported-response"
	CodeUnsupportedRequestBody  = "unsupported-request-body"
	CodeUnsupportedParameter    = "unsupported-parameter"
	CodeParameterReference      = "parameter-reference"
	CodeUndeclaredPathParameter = "undeclared-path-parameter"
	CodeUnresolvedReference     = "unresolved-reference"
	CodeSkippedPath             = "skipped-path"
	CodeSkippedSchema           = "skipped-schema"
	CodeOmittedProperty         = "omitted-property"
	CodeRenamedGroup            = "renamed-group"
)

// Diagnostic is a problem local to one schema or operation. Diagnostics never
// stop a run; the affected element is degraded or skipped.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Path     string   `json:"path,omitempty"`
	Method   string   `json:"method,omitempty"`
	Schema   string   `json:"schema,omitempty"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	var loc string
	switch {
	case d.Path != "" && d.Method != "":
		loc = strings.ToUpper(d.Method) + " " + d.Path
	case d.Path != "":
		loc = d.Path
	case d.Schema != "":
		loc = "schema " + d.Schema
	}
	if loc == "" {
		return fmt.Sprintf("%s [%s] %s", d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s [%s] %s: %s", d.Severity, d.Code, loc, d.Message)
}

// Diagnostics is the list collected by one run.
type Diagnostics []Diagnostic

// Count returns how many diagnostics have severity s.
func (ds Diagnostics) Count(s Severity) int {
	n := 0
	for _, d := range ds {
		if d.Severity == s {
			n++
		}
	}
	return n
}

// ByCode returns the diagnostics carrying code.
func (ds Diagnostics) ByCode(code string) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}
