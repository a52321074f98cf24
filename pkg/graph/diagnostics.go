package graph

import (
	"cmp"
	"fmt"
	"slices"
)

// Code identifies a soft anomaly.
type Code string

const (
	CodeDanglingReference   Code = "DanglingReference"
	CodeSelfLoop            Code = "SelfLoop"
	CodeUnconnectedSelector Code = "UnconnectedSelector"
	CodeUnknownTheme        Code = "UnknownTheme"

	// Manifest ingest codes.
	CodeMissingPodSelector Code = "MissingPodSelector"
	CodeMissingPolicyTypes Code = "MissingPolicyTypes"
	CodeUndefinedNamespace Code = "UndefinedNamespace"
	CodeApplyOrder         Code = "ApplyOrder"
	CodeUnknownKind        Code = "UnknownKind"
	CodeEmptyDocument      Code = "EmptyDocument"
	CodeInvalidResource    Code = "InvalidResource"
	CodeMissingRules       Code = "MissingRules"

	// CodeConstraintViolation marks a user-declared constraint that does
	// not hold.
	CodeConstraintViolation Code = "ConstraintViolation"
)

// Level grades a diagnostic.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Diagnostic records an anomaly that did not abort the call.
type Diagnostic struct {
	Code    Code     `json:"code" yaml:"code"`
	Level   Level    `json:"level" yaml:"level"`
	Message string   `json:"message" yaml:"message"`
	Nodes   []string `json:"nodes,omitempty" yaml:"nodes,omitempty"`
}

// Warn builds a warning-level diagnostic.
func Warn(code Code, nodes []string, format string, args ...any) Diagnostic {
	return Diagnostic{Code: code, Level: LevelWarning, Message: fmt.Sprintf(format, args...), Nodes: nodes}
}

// Info builds an info-level diagnostic.
func Info(code Code, nodes []string, format string, args ...any) Diagnostic {
	return Diagnostic{Code: code, Level: LevelInfo, Message: fmt.Sprintf(format, args...), Nodes: nodes}
}

// SortDiagnostics orders diagnostics by code, then first node, then message.
func SortDiagnostics(diags []Diagnostic) {
	slices.SortStableFunc(diags, func(a, b Diagnostic) int {
		if c := cmp.Compare(a.Code, b.Code); c != 0 {
			return c
		}
		if c := cmp.Compare(firstNode(a), firstNode(b)); c != 0 {
			return c
		}
		return cmp.Compare(a.Message, b.Message)
	})
}

// CountCode returns how many diagnostics carry the given code.
func CountCode(diags []Diagnostic, code Code) int {
	n := 0
	for _, d := range diags {
		if d.Code == code {
			n++
		}
	}
	return n
}

func firstNode(d Diagnostic) string {
	if len(d.Nodes) == 0 {
		return ""
	}
	return d.Nodes[0]
}
