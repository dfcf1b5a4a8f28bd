package errors

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies a failure
type Kind string

const (
	// NotFound means a required input file does not exist
	NotFound Kind = "not_found"
	// FileFormat means an input could not be parsed into the expected shape
	FileFormat Kind = "file_format"
	// DataQuality means the numbers parsed but cannot be used (zero waytotal, non-finite values)
	DataQuality Kind = "data_quality"
	// Dependency means the graph-metrics computation failed or returned bad output
	Dependency Kind = "dependency"
	// Config means the run configuration is invalid
	Config Kind = "config"
)

// Error is the error type returned by every stage of the pipeline
type Error struct {
	Kind  Kind
	Stage string
	Path  string
	Nodes []int // 1-based node indices affected, if any
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Stage)
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if e.Path != "" {
		b.WriteString(" (")
		b.WriteString(e.Path)
		b.WriteString(")")
	}
	if len(e.Nodes) > 0 {
		nodes := make([]string, len(e.Nodes))
		for i, n := range e.Nodes {
			nodes[i] = strconv.Itoa(n)
		}
		b.WriteString(" nodes=[")
		b.WriteString(strings.Join(nodes, ","))
		b.WriteString("]")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, errors.DataQuality) match on kind
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func (k Kind) Error() string {
	return string(k)
}

// New creates an Error of the given kind
func New(kind Kind, stage, format string, args ...interface{}) *Error {
	return &Error{
		Kind:  kind,
		Stage: stage,
		Msg:   fmt.Sprintf(format, args...),
	}
}

// Wrap wraps cause into an Error of the given kind
func Wrap(cause error, kind Kind, stage, format string, args ...interface{}) *Error {
	e := New(kind, stage, format, args...)
	e.Cause = cause
	return e
}

// WithPath attaches the offending file path
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithNodes attaches the offending 1-based node indices
func (e *Error) WithNodes(nodes []int) *Error {
	e.Nodes = nodes
	return e
}

// KindOf returns the kind of the first Error in err's chain, or "" if none
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
