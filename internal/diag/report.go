package diag

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Pos is a position in model source text.
type Pos struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Span is a range in model source text.
type Span struct {
	Start Pos `json:"start"`
	End   Pos `json:"end"`
}

// Fix is a suggested remediation attached to a Report.
type Fix struct {
	Description string `json:"description"`
	Replacement string `json:"replacement,omitempty"`
}

// Report is the canonical structured error type. Every error kind
// from spec.md §7 (ParseError, ResolutionError, TypeError,
// SemanticError, EncodingError, SolverError, UnsupportedFormat,
// CommandError) is reported through this single shape.
type Report struct {
	Schema  string         `json:"schema"`
	Code    string         `json:"code"`
	Phase   string         `json:"phase"`
	Message string         `json:"message"`
	Span    *Span          `json:"span,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Fix     *Fix           `json:"fix,omitempty"`
}

// ReportError wraps a Report as an error so it survives errors.As
// unwrapping through ordinary Go error propagation.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown error"
	}
	return e.Rep.Code + ": " + e.Rep.Message
}

// AsReport extracts a Report from an error chain, if present. Command
// dispatch wraps lower-level failures with added context
// (fmt.Errorf("%s: %w", ...)) before they reach the CLI boundary, so
// the *ReportError a phase actually built is rarely err itself; this
// walks the Unwrap chain by hand rather than leaning on errors.As, so
// the walk (and where it stops) is visible at the call site.
func AsReport(err error) (*Report, bool) {
	for err != nil {
		if re, ok := err.(*ReportError); ok {
			return re.Rep, true
		}
		err = errors.Unwrap(err)
	}
	return nil, false
}

// New builds a Report for code with message and returns it wrapped as
// an error, ready to propagate through a command's error return.
func New(code *Code, span *Span, message string, data map[string]any) error {
	return &ReportError{Rep: &Report{
		Schema:  "modelcheck.error/v1",
		Code:    code.Name,
		Phase:   code.Phase,
		Message: message,
		Span:    span,
		Data:    data,
	}}
}

// ToJSON renders the report deterministically (sorted map keys, via
// encoding/json's default map ordering). Marshals once and indents the
// result afterward rather than choosing between Marshal and
// MarshalIndent up front, the same Marshal-then-Indent shape the
// teacher's own manifest Save method used for its pretty-printed
// output.
func (r *Report) ToJSON(compact bool) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	if compact {
		return string(data), nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return "", err
	}
	return buf.String(), nil
}
