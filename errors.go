package xscene

import (
	"errors"
	"fmt"
)

// Error classes. Every error produced while compiling or interpreting a
// scene matches exactly one of these with errors.Is.
var (
	// ErrSchema reports a malformed scene description: a missing or
	// malformed attribute, an unknown element, a value out of range.
	ErrSchema = errors.New("xscene: schema error")

	// ErrResource reports a missing or unreadable mesh, texture, or a
	// generator command that failed.
	ErrResource = errors.New("xscene: resource error")

	// ErrCapacity reports a backend limit being exceeded.
	ErrCapacity = errors.New("xscene: capacity error")

	// ErrDecode reports an invalid instruction stream.
	ErrDecode = errors.New("xscene: decode error")
)

// Schema error codes, named after the tinyxml2 query results the scene
// format was first written against.
const (
	CodeNoAttribute        = "NO_ATTRIBUTE"
	CodeWrongAttributeType = "WRONG_ATTRIBUTE_TYPE"
	CodeUnknownElement     = "UNKNOWN_ELEMENT"
	CodeMissingElement     = "MISSING_ELEMENT"
	CodeValueOutOfRange    = "VALUE_OUT_OF_RANGE"
	CodeParseError         = "PARSE_ERROR"
)

// SchemaError describes a problem with a node of the scene tree.
type SchemaError struct {
	// Node is the element name of the offending node.
	Node string
	// Line is the 1-based line of the node in its document, 0 if unknown.
	Line int
	// Attr is the attribute involved, empty for element-level problems.
	Attr string
	// Code is one of the Code* constants.
	Code string
	// Err is the underlying cause, if any.
	Err error
}

func (e *SchemaError) Error() string {
	msg := "element <" + e.Node + ">"
	if e.Line > 0 {
		msg += fmt.Sprintf(" (line %d)", e.Line)
	}
	if e.Attr != "" {
		msg += " attribute " + e.Attr
	}
	msg += ": " + e.Code
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return "schema: " + msg
}

func (e *SchemaError) Unwrap() error        { return e.Err }
func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// ResourceError describes a failed load or external command.
type ResourceError struct {
	// Op names what was attempted: "load model", "load texture", "generate".
	Op string
	// Path is the file path or command line involved.
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("resource: %s %s", e.Op, e.Path)
	}
	return fmt.Sprintf("resource: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ResourceError) Unwrap() error        { return e.Err }
func (e *ResourceError) Is(target error) bool { return target == ErrResource }

// CapacityError reports that more of a resource was requested than the
// backend supports.
type CapacityError struct {
	Resource string
	Limit    int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity: more than %d %s requested", e.Limit, e.Resource)
}

func (e *CapacityError) Is(target error) bool { return target == ErrCapacity }

// DecodeError reports an invalid instruction stream. Offset is the index
// of the offending cell.
type DecodeError struct {
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode: cell %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error        { return e.Err }
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
