package stream

import (
	"errors"
	"io"
	"testing"

	eng "github.com/reoring/prunejson/internal/engine"
	"github.com/reoring/prunejson/internal/ir"
	jsonsrc "github.com/reoring/prunejson/source/json"
)

func plan() *ir.Object {
	str := &ir.Primitive{Name: "string"}
	return ir.NewObject([]ir.Field{
		{Name: "a", Schema: str},
		{Name: "items", Schema: &ir.Array{Item: ir.NewObject([]ir.Field{{Name: "id", Schema: str}})}},
	})
}

func TestParse_ProjectsAndSkips(t *testing.T) {
	d := NewDriver(plan())
	v, err := d.Parse(jsonsrc.NewBytes([]byte(`{"skip":{"x":[1,{"y":2}]},"items":[{"id":7,"z":true}],"a":"v","a":"w"}`)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !v.Valid || len(v.Fields) != 2 {
		t.Fatalf("unexpected row: %+v", v)
	}
	if a := v.Fields[0]; !a.Valid || a.Str != "v" {
		t.Fatalf("a: %+v", a)
	}
	items := v.Fields[1]
	if len(items.Items) != 1 || items.Items[0].Fields[0].Str != "7" {
		t.Fatalf("items: %+v", items)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		in   string
		code string
		path string
	}{
		{`[1]`, eng.CodeInvalidType, "/"},
		{`{"a":[1]}`, eng.CodeInvalidType, "/a"},
		{`{"items":[{"id":{}}]}`, eng.CodeInvalidType, "/items/0/id"},
		{`{"a":"x"} {}`, eng.CodeTrailingData, "/"},
		{`{"a":"x"`, eng.CodeParseError, "/"},
		{`{"skip":{"x":[1,2}}`, eng.CodeParseError, "/skip"},
	}
	d := NewDriver(plan())
	for _, tc := range cases {
		_, err := d.Parse(jsonsrc.NewBytes([]byte(tc.in)))
		var ie eng.IssueError
		if !errors.As(err, &ie) {
			t.Fatalf("%s: expected issue, got %v", tc.in, err)
		}
		if ie.Code != tc.code || ie.Path != tc.path {
			t.Fatalf("%s: got %s at %s (%s)", tc.in, ie.Code, ie.Path, ie.Message)
		}
	}
}

func TestTypeCheck(t *testing.T) {
	d := NewDriver(plan())
	if err := d.TypeCheck(jsonsrc.NewBytes([]byte(`{"a":null,"items":null}`))); err != nil {
		t.Fatalf("nulls are fine: %v", err)
	}
	if err := d.TypeCheck(jsonsrc.NewBytes([]byte(`{"a":{}}`))); err == nil {
		t.Fatalf("expected type error")
	}
}

func TestSkip_TruncatedSubtree(t *testing.T) {
	src := jsonsrc.NewBytes([]byte(`[1,[2,3],{"a":`))
	first, err := src.NextToken()
	if err != nil {
		t.Fatal(err)
	}
	err = Skip(src, first)
	if err == nil || err == io.EOF {
		t.Fatalf("expected an error for a truncated value, got %v", err)
	}
}

func TestPreloadedSource_StopsAtSubtreeEnd(t *testing.T) {
	src := jsonsrc.NewBytes([]byte(`{"a":1} "after"`))
	first, _ := src.NextToken()
	sub := NewPreloadedSource(src, first)
	n := 0
	for {
		_, err := sub.NextToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		n++
	}
	if n != 4 {
		t.Fatalf("expected 4 tokens in subtree, got %d", n)
	}
	tok, err := src.NextToken()
	if err != nil || tok.Kind != eng.KindString || tok.String != "after" {
		t.Fatalf("outer stream should continue after the subtree: %+v %v", tok, err)
	}
}
