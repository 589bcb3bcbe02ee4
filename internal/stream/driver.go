package stream

import (
	"errors"
	"io"

	eng "github.com/reoring/prunejson/internal/engine"
	"github.com/reoring/prunejson/internal/ir"
)

// Driver projects a token stream onto a plan. Keys outside the plan are
// skipped token by token; nothing is appended anywhere until the whole value
// has been checked, so a failing line leaves no partial state behind.
type Driver struct {
	plan *ir.Object
}

// NewDriver creates a new streaming driver for a given root plan.
func NewDriver(plan *ir.Object) *Driver { return &Driver{plan: plan} }

// Parse consumes exactly one top-level object from src and returns its
// projection. Anything after the object other than io.EOF is an error.
func (d *Driver) Parse(src eng.TokenSource) (eng.Value, error) {
	tok, err := src.NextToken()
	if err != nil {
		return eng.Value{}, tokenErr(err)
	}
	if tok.Kind != eng.KindBeginObject {
		return eng.Value{}, eng.TypeError("object", tok.Kind.String())
	}
	row, err := d.parseObject(src, d.plan)
	if err != nil {
		return eng.Value{}, err
	}
	if _, err := src.NextToken(); err != io.EOF {
		if err != nil {
			return eng.Value{}, tokenErr(err)
		}
		return eng.Value{}, eng.IssueError{SimpleIssue: eng.SimpleIssue{
			Code:    eng.CodeTrailingData,
			Path:    "/",
			Message: "unexpected data after top-level object",
		}}
	}
	return row, nil
}

// TypeCheck runs Parse and discards the projection.
func (d *Driver) TypeCheck(src eng.TokenSource) error {
	_, err := d.Parse(src)
	return err
}

func (d *Driver) parseObject(src eng.TokenSource, plan *ir.Object) (eng.Value, error) {
	out := eng.Value{Valid: true, Fields: make([]eng.Value, len(plan.Fields))}
	var seen []bool
	for {
		tok, err := src.NextToken()
		if err != nil {
			return eng.Value{}, tokenErr(err)
		}
		if tok.Kind == eng.KindEndObject {
			return out, nil
		}
		if tok.Kind != eng.KindKey {
			return eng.Value{}, eng.ParseError("expected object key, got " + tok.Kind.String())
		}
		vt, err := src.NextToken()
		if err != nil {
			return eng.Value{}, tokenErr(err)
		}
		i, ok := plan.Lookup(tok.String)
		if ok {
			if seen == nil {
				seen = make([]bool, len(plan.Fields))
			}
			// the first occurrence of a key wins
			ok = !seen[i]
			seen[i] = true
		}
		if !ok {
			if err := Skip(src, vt); err != nil {
				return eng.Value{}, eng.AtKey(tokenErr(err), tok.String)
			}
			continue
		}
		v, err := d.parseValue(src, plan.Fields[i].Schema, vt)
		if err != nil {
			return eng.Value{}, eng.AtKey(err, tok.String)
		}
		out.Fields[i] = v
	}
}

func (d *Driver) parseValue(src eng.TokenSource, s ir.Schema, tok eng.Token) (eng.Value, error) {
	if tok.Kind == eng.KindNull {
		return eng.Value{}, nil
	}
	switch s := s.(type) {
	case *ir.Primitive:
		switch tok.Kind {
		case eng.KindString:
			return eng.StringValue(tok.String), nil
		case eng.KindNumber:
			return eng.StringValue(tok.Number), nil
		case eng.KindBool:
			if tok.Bool {
				return eng.StringValue("true"), nil
			}
			return eng.StringValue("false"), nil
		}
		return eng.Value{}, eng.TypeError(s.Name, tok.Kind.String())
	case *ir.Array:
		if tok.Kind != eng.KindBeginArray {
			return eng.Value{}, eng.TypeError("array", tok.Kind.String())
		}
		out := eng.Value{Valid: true}
		for i := 0; ; i++ {
			it, err := src.NextToken()
			if err != nil {
				return eng.Value{}, tokenErr(err)
			}
			if it.Kind == eng.KindEndArray {
				return out, nil
			}
			v, err := d.parseValue(src, s.Item, it)
			if err != nil {
				return eng.Value{}, eng.AtIndex(err, i)
			}
			out.Items = append(out.Items, v)
		}
	case *ir.Object:
		if tok.Kind != eng.KindBeginObject {
			return eng.Value{}, eng.TypeError("object", tok.Kind.String())
		}
		return d.parseObject(src, s)
	}
	return eng.Value{}, eng.TypeError("known plan node", tok.Kind.String())
}

// tokenErr normalizes decoder errors into issues. Issues raised by the
// enforcement layer pass through untouched.
func tokenErr(err error) error {
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return ie
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return eng.ParseError("unexpected end of input")
	}
	return eng.ParseError(err.Error())
}
