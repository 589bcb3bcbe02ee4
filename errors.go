package prunejson

import (
	"errors"
	"fmt"
	"strings"

	eng "github.com/reoring/prunejson/internal/engine"
)

// Sentinels matched by errors.Is against the typed errors below.
var (
	ErrSchemaDefinition = errors.New("prunejson: schema definition error")
	ErrMalformedInput   = errors.New("prunejson: malformed input")
)

// SchemaDefinitionError reports a schema tree that cannot be built or
// compiled, for example a list declaring more than one element type.
type SchemaDefinitionError struct {
	Path   string // dotted path of the offending node; empty for the root.
	Reason string
}

func (e *SchemaDefinitionError) Error() string {
	if e.Path == "" {
		return "prunejson: schema definition: " + e.Reason
	}
	return "prunejson: schema definition at " + e.Path + ": " + e.Reason
}

func (e *SchemaDefinitionError) Is(target error) bool { return target == ErrSchemaDefinition }

// MalformedInputError reports a record that would break line alignment once
// joined into NDJSON.
type MalformedInputError struct {
	Index  int // position of the record in the input slice.
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("prunejson: malformed input at record %d: %s", e.Index, e.Reason)
}

func (e *MalformedInputError) Is(target error) bool { return target == ErrMalformedInput }

// Line issue codes.
const (
	CodeParseError    = eng.CodeParseError
	CodeInvalidType   = eng.CodeInvalidType
	CodeDuplicateKey  = eng.CodeDuplicateKey
	CodeTrailingData  = eng.CodeTrailingData
	CodeDepthExceeded = eng.CodeDepthExceeded
)

// LineIssue describes one skipped line. Skipped lines never fail a decode;
// they are counted and the first few are kept for reporting.
type LineIssue struct {
	Line    int    // 1-based line number in the decoded buffer.
	Offset  int64  // byte offset of the start of the line.
	Code    string // one of the codes listed above.
	Path    string // JSON Pointer inside the line.
	Message string
}

func (i LineIssue) String() string {
	return fmt.Sprintf("line %d: %s at %s: %s", i.Line, i.Code, i.Path, i.Message)
}

// LineIssues is a collection of skipped-line reports that implements error.
type LineIssues []LineIssue

// Error summarizes the first few issues.
func (iss LineIssues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(iss), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "%s at line %d", iss[i].Code, iss[i].Line)
	}
	if len(iss) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(iss))
	}
	return b.String()
}

// AsLineIssues extracts LineIssues from an error using errors.As internally.
func AsLineIssues(err error) (LineIssues, bool) {
	if err == nil {
		return nil, false
	}
	var iss LineIssues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

func lineIssueFrom(err error, line int, offset int64) LineIssue {
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return LineIssue{Line: line, Offset: offset, Code: ie.Code, Path: ie.Path, Message: ie.Message}
	}
	return LineIssue{Line: line, Offset: offset, Code: CodeParseError, Path: "/", Message: err.Error()}
}
