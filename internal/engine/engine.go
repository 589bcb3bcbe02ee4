package engine

import (
	"strconv"
	"strings"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindBeginObject:
		return "object"
	case KindEndObject:
		return "end of object"
	case KindBeginArray:
		return "array"
	case KindEndArray:
		return "end of array"
	case KindKey:
		return "key"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	default:
		return "unknown"
	}
}

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// Value is one projected cell. Which members are meaningful depends on the
// plan node it was built for: Str for primitives, Items for arrays and Fields
// (indexed like the plan's fields) for objects. Valid is false for JSON null
// and for fields absent from the input.
type Value struct {
	Valid  bool
	Str    string
	Items  []Value
	Fields []Value
}

// StringValue returns a valid primitive cell.
func StringValue(s string) Value { return Value{Valid: true, Str: s} }

// Issue codes shared by all drivers.
const (
	CodeParseError    = "parse_error"
	CodeInvalidType   = "invalid_type"
	CodeDuplicateKey  = "duplicate_key"
	CodeTrailingData  = "trailing_data"
	CodeDepthExceeded = "depth_exceeded"
)

// SimpleIssue is a minimal issue representation used by internal helpers.
type SimpleIssue struct {
	Code    string
	Path    string
	Message string
}

// IssueError is a lightweight error carrying a SimpleIssue. Rooted marks a
// path that is already absolute and must not be prefixed again.
type IssueError struct {
	SimpleIssue
	Rooted bool
}

func (e IssueError) Error() string {
	if e.Path == "" || e.Path == "/" {
		return e.Code + ": " + e.Message
	}
	return e.Code + " at " + e.Path + ": " + e.Message
}

// ParseError reports a syntax problem at the root of a line.
func ParseError(msg string) error {
	return IssueError{SimpleIssue: SimpleIssue{Code: CodeParseError, Path: "/", Message: msg}}
}

// TypeError reports a shape mismatch between the plan and the input.
func TypeError(want, got string) error {
	return IssueError{SimpleIssue: SimpleIssue{Code: CodeInvalidType, Path: "/", Message: "expected " + want + ", got " + got}}
}

// AtKey prefixes the issue path of err with an object key. Paths are built
// while unwinding so the happy path never formats them.
func AtKey(err error, key string) error {
	ie, ok := err.(IssueError)
	if !ok || ie.Rooted {
		return err
	}
	ie.Path = joinJSONPointer("/"+escapeJSONPointerToken(key), strings.TrimPrefix(ie.Path, "/"))
	return ie
}

// AtIndex prefixes the issue path of err with an array index.
func AtIndex(err error, i int) error {
	ie, ok := err.(IssueError)
	if !ok || ie.Rooted {
		return err
	}
	ie.Path = joinJSONPointer("/"+strconv.Itoa(i), strings.TrimPrefix(ie.Path, "/"))
	return ie
}

var jsonPointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func escapeJSONPointerToken(s string) string {
	return jsonPointerEscaper.Replace(s)
}

// joinJSONPointer appends an already escaped tail to base.
func joinJSONPointer(base, tail string) string {
	if tail == "" {
		return base
	}
	return base + "/" + tail
}
