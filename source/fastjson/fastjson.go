// Package fastjson projects lines parsed by valyala/fastjson onto a decode
// plan. It is the default driver: one reusable parser per worker and no
// token allocation for skipped keys.
package fastjson

import (
	"bytes"
	"errors"
	"strconv"
	"unicode/utf8"

	"github.com/valyala/fastjson"

	eng "github.com/reoring/prunejson/internal/engine"
	"github.com/reoring/prunejson/internal/ir"
)

// ErrNeedsTokens is returned for valid lines this parser would decode
// differently from the token drivers: lines with UTF-16 surrogate escapes,
// which fastjson keeps verbatim when unpaired, and lines nested deeper than
// fastjson.MaxDepth. Callers decode such lines with a token driver instead.
var ErrNeedsTokens = errors.New("fastjson: line needs a token decoder")

// Decoder decodes single lines. It is not safe for concurrent use; each
// worker owns one.
type Decoder struct {
	p    fastjson.Parser
	plan *ir.Object
	opt  eng.EnforceOptions
	walk bool
}

// New returns a Decoder for plan.
func New(plan *ir.Object, opt eng.EnforceOptions) *Decoder {
	// lines the parser accepts hold at most fastjson.MaxDepth containers
	walk := opt.OnDuplicate == eng.DupError || (opt.MaxDepth > 0 && opt.MaxDepth < fastjson.MaxDepth)
	return &Decoder{plan: plan, opt: opt, walk: walk}
}

// DecodeLine validates and parses line and returns its projection. Strings
// are copied out of the parser buffer, so the result stays valid after the
// next call. Invalid UTF-8 in strings is replaced byte by byte with U+FFFD.
func (d *Decoder) DecodeLine(line []byte) (eng.Value, error) {
	// ParseBytes accepts unknown escapes, raw control characters and
	// leading zeros.
	if err := fastjson.ValidateBytes(line); err != nil {
		return eng.Value{}, eng.ParseError(err.Error())
	}
	if hasSurrogateEscape(line) {
		return eng.Value{}, ErrNeedsTokens
	}
	v, err := d.p.ParseBytes(line)
	if err != nil {
		// valid JSON the parser rejects is nested past its depth limit
		return eng.Value{}, ErrNeedsTokens
	}
	if v.Type() != fastjson.TypeObject {
		return eng.Value{}, eng.TypeError("object", v.Type().String())
	}
	if d.walk {
		if err := d.enforce(v, 1); err != nil {
			return eng.Value{}, err
		}
	}
	return projectObject(v, d.plan)
}

// enforce applies the duplicate key and depth limits to the whole value,
// including keys the plan does not project, so results match the token
// drivers.
func (d *Decoder) enforce(v *fastjson.Value, depth int) error {
	t := v.Type()
	if t != fastjson.TypeObject && t != fastjson.TypeArray {
		return nil
	}
	// only containers count towards depth
	if d.opt.MaxDepth > 0 && depth > d.opt.MaxDepth {
		return eng.IssueError{SimpleIssue: eng.SimpleIssue{
			Code:    eng.CodeDepthExceeded,
			Path:    "/",
			Message: "max depth " + strconv.Itoa(d.opt.MaxDepth) + " exceeded",
		}}
	}
	switch t {
	case fastjson.TypeObject:
		o, _ := v.Object()
		var (
			err  error
			seen map[string]struct{}
		)
		if d.opt.OnDuplicate == eng.DupError {
			seen = make(map[string]struct{}, o.Len())
		}
		o.Visit(func(key []byte, child *fastjson.Value) {
			if err != nil {
				return
			}
			if seen != nil {
				k := validString(key)
				if _, dup := seen[k]; dup {
					err = eng.AtKey(eng.IssueError{SimpleIssue: eng.SimpleIssue{
						Code:    eng.CodeDuplicateKey,
						Message: "key '" + k + "' duplicated",
					}}, k)
					return
				}
				seen[k] = struct{}{}
			}
			if e := d.enforce(child, depth+1); e != nil {
				err = eng.AtKey(e, validString(key))
			}
		})
		return err
	case fastjson.TypeArray:
		items, _ := v.Array()
		for i, it := range items {
			if err := d.enforce(it, depth+1); err != nil {
				return eng.AtIndex(err, i)
			}
		}
	}
	return nil
}

func projectObject(v *fastjson.Value, plan *ir.Object) (eng.Value, error) {
	o, _ := v.Object()
	out := eng.Value{Valid: true, Fields: make([]eng.Value, len(plan.Fields))}
	var (
		err  error
		seen []bool
	)
	o.Visit(func(key []byte, child *fastjson.Value) {
		if err != nil {
			return
		}
		i, ok := plan.LookupBytes(key)
		if !ok && !utf8.Valid(key) {
			i, ok = plan.Lookup(validString(key))
		}
		if !ok {
			return
		}
		if seen == nil {
			seen = make([]bool, len(plan.Fields))
		}
		// the first occurrence of a key wins
		if seen[i] {
			return
		}
		seen[i] = true
		cell, e := project(child, plan.Fields[i].Schema)
		if e != nil {
			err = eng.AtKey(e, validString(key))
			return
		}
		out.Fields[i] = cell
	})
	if err != nil {
		return eng.Value{}, err
	}
	return out, nil
}

func project(v *fastjson.Value, s ir.Schema) (eng.Value, error) {
	t := v.Type()
	if t == fastjson.TypeNull {
		return eng.Value{}, nil
	}
	switch s := s.(type) {
	case *ir.Primitive:
		switch t {
		case fastjson.TypeString:
			b, _ := v.StringBytes()
			return eng.StringValue(validString(b)), nil
		case fastjson.TypeNumber:
			return eng.StringValue(string(v.MarshalTo(nil))), nil
		case fastjson.TypeTrue:
			return eng.StringValue("true"), nil
		case fastjson.TypeFalse:
			return eng.StringValue("false"), nil
		}
		return eng.Value{}, eng.TypeError(s.Name, typeName(t))
	case *ir.Array:
		if t != fastjson.TypeArray {
			return eng.Value{}, eng.TypeError("array", typeName(t))
		}
		items, _ := v.Array()
		out := eng.Value{Valid: true}
		if len(items) > 0 {
			out.Items = make([]eng.Value, len(items))
		}
		for i, it := range items {
			cell, err := project(it, s.Item)
			if err != nil {
				return eng.Value{}, eng.AtIndex(err, i)
			}
			out.Items[i] = cell
		}
		return out, nil
	case *ir.Object:
		if t != fastjson.TypeObject {
			return eng.Value{}, eng.TypeError("object", typeName(t))
		}
		return projectObject(v, s)
	}
	return eng.Value{}, eng.TypeError("known plan node", typeName(t))
}

// typeName maps fastjson types onto the names the token drivers report.
func typeName(t fastjson.Type) string {
	switch t {
	case fastjson.TypeTrue, fastjson.TypeFalse:
		return "bool"
	default:
		return t.String()
	}
}

// validString converts b to a string, replacing each byte that is not part of
// a valid UTF-8 sequence with U+FFFD as encoding/json does.
func validString(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	out := make([]byte, 0, len(b)+8)
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			out = utf8.AppendRune(out, utf8.RuneError)
		} else {
			out = append(out, b[:size]...)
		}
		b = b[size:]
	}
	return string(out)
}

// hasSurrogateEscape reports whether line may hold a \uD800-\uDFFF escape.
// An escaped backslash followed by "ud8" also matches; such lines only take
// the slower path.
func hasSurrogateEscape(line []byte) bool {
	for {
		i := bytes.Index(line, []byte(`\u`))
		if i < 0 || i+3 >= len(line) {
			return false
		}
		if line[i+2]|0x20 == 'd' {
			switch line[i+3] | 0x20 {
			case '8', '9', 'a', 'b', 'c', 'd', 'e', 'f':
				return true
			}
		}
		line = line[i+2:]
	}
}
