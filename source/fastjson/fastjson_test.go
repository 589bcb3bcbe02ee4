package fastjson

import (
	"errors"
	"strings"
	"testing"

	"github.com/valyala/fastjson"

	eng "github.com/reoring/prunejson/internal/engine"
	"github.com/reoring/prunejson/internal/ir"
)

func testPlan() *ir.Object {
	str := &ir.Primitive{Name: "string"}
	return ir.NewObject([]ir.Field{
		{Name: "a", Schema: str},
		{Name: "l", Schema: &ir.Array{Item: str}},
	})
}

func TestDecodeLine(t *testing.T) {
	d := New(testPlan(), eng.EnforceOptions{})
	v, err := d.DecodeLine([]byte(`{"x":{"deep":[1,2]},"l":["p",3,null],"a":1.50}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Fields[0].Str != "1.50" {
		t.Fatalf("number text must be kept verbatim, got %q", v.Fields[0].Str)
	}
	l := v.Fields[1]
	if len(l.Items) != 3 || l.Items[1].Str != "3" || l.Items[2].Valid {
		t.Fatalf("list: %+v", l)
	}

	// strings must survive the next parse
	first, _ := d.DecodeLine([]byte(`{"a":"one"}`))
	_, _ = d.DecodeLine([]byte(`{"a":"two"}`))
	if first.Fields[0].Str != "one" {
		t.Fatalf("value was overwritten: %q", first.Fields[0].Str)
	}
}

func TestDecodeLine_Errors(t *testing.T) {
	cases := []struct {
		in   string
		opt  eng.EnforceOptions
		code string
		path string
	}{
		{`nope`, eng.EnforceOptions{}, eng.CodeParseError, "/"},
		{`true`, eng.EnforceOptions{}, eng.CodeInvalidType, "/"},
		{`{"l":[true,{}]}`, eng.EnforceOptions{}, eng.CodeInvalidType, "/l/1"},
		{`{"o":{"k":1,"k":2}}`, eng.EnforceOptions{OnDuplicate: eng.DupError}, eng.CodeDuplicateKey, "/o/k"},
		{`{"o":[[[]]]}`, eng.EnforceOptions{MaxDepth: 3}, eng.CodeDepthExceeded, "/o/0/0"},
	}
	for _, tc := range cases {
		_, err := New(testPlan(), tc.opt).DecodeLine([]byte(tc.in))
		var ie eng.IssueError
		if !errors.As(err, &ie) {
			t.Fatalf("%s: expected issue, got %v", tc.in, err)
		}
		if ie.Code != tc.code || ie.Path != tc.path {
			t.Fatalf("%s: got %s at %s (%s)", tc.in, ie.Code, ie.Path, ie.Message)
		}
	}
}

func TestDecodeLine_TypeNames(t *testing.T) {
	_, err := New(testPlan(), eng.EnforceOptions{}).DecodeLine([]byte(`{"l":false}`))
	if err == nil || err.Error() != "invalid_type at /l: expected array, got bool" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDecodeLine_StrictSyntax(t *testing.T) {
	d := New(testPlan(), eng.EnforceOptions{})
	for _, in := range []string{
		`{"a":"\q"}`,
		"{\"a\":\"x\x01y\"}",
		`{"a":01}`,
		`{"a":"ok","skip":"\x"}`,
		`{"a":"ok"} {}`,
	} {
		_, err := d.DecodeLine([]byte(in))
		var ie eng.IssueError
		if !errors.As(err, &ie) || ie.Code != eng.CodeParseError {
			t.Fatalf("%q: expected parse error, got %v", in, err)
		}
	}
}

func TestDecodeLine_InvalidUTF8(t *testing.T) {
	d := New(testPlan(), eng.EnforceOptions{})
	v, err := d.DecodeLine([]byte("{\"\xff\":1,\"a\":\"x\xff\xfey\",\"l\":[\"\xef\xbf\xbd\"]}"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := v.Fields[0].Str; got != "x\uFFFD\uFFFDy" {
		t.Fatalf("expected one replacement per invalid byte, got %q", got)
	}
	if got := v.Fields[1].Items[0].Str; got != "\uFFFD" {
		t.Fatalf("literal U+FFFD must be kept, got %q", got)
	}
}

func TestDecodeLine_NeedsTokens(t *testing.T) {
	d := New(testPlan(), eng.EnforceOptions{})
	deep := `{"x":` + strings.Repeat("[", fastjson.MaxDepth) + strings.Repeat("]", fastjson.MaxDepth) + "}"
	for _, in := range []string{
		`{"a":"\ud800"}`,
		`{"a":"\uDE00"}`,
		`{"skip":"\\ud83d"}`,
		deep,
	} {
		if _, err := d.DecodeLine([]byte(in)); !errors.Is(err, ErrNeedsTokens) {
			t.Fatalf("%.40q: expected ErrNeedsTokens, got %v", in, err)
		}
	}
	if _, err := d.DecodeLine([]byte(`{"a":"\u00e9\/"}`)); err != nil {
		t.Fatalf("plain escapes stay on the fast path: %v", err)
	}
}
