// Package columnar assembles projected rows into Apache Arrow records.
package columnar

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	eng "github.com/reoring/prunejson/internal/engine"
	"github.com/reoring/prunejson/internal/ir"
)

// Appender owns one builder per top-level column. It is not safe for
// concurrent use.
type Appender struct {
	schema   *arrow.Schema
	plan     *ir.Object
	builders []array.Builder
	rows     int
}

// NewAppender creates builders for schema. plan must list the same fields in
// the same order.
func NewAppender(mem memory.Allocator, schema *arrow.Schema, plan *ir.Object) *Appender {
	bs := make([]array.Builder, schema.NumFields())
	for i, f := range schema.Fields() {
		bs[i] = array.NewBuilder(mem, f.Type)
	}
	return &Appender{schema: schema, plan: plan, builders: bs}
}

// Append adds one row. row must come from a driver walking the same plan.
func (a *Appender) Append(row eng.Value) {
	for i, f := range a.plan.Fields {
		appendValue(a.builders[i], f.Schema, row.Fields[i])
	}
	a.rows++
}

// Rows returns the number of rows appended since the last NewRecord.
func (a *Appender) Rows() int { return a.rows }

// NewRecord finishes the builders into a record and resets them.
func (a *Appender) NewRecord() arrow.Record {
	cols := make([]arrow.Array, len(a.builders))
	for i, b := range a.builders {
		cols[i] = b.NewArray()
	}
	rec := array.NewRecord(a.schema, cols, int64(a.rows))
	for _, c := range cols {
		c.Release()
	}
	a.rows = 0
	return rec
}

// Release frees the builders.
func (a *Appender) Release() {
	for _, b := range a.builders {
		b.Release()
	}
}

func appendValue(b array.Builder, s ir.Schema, v eng.Value) {
	switch s := s.(type) {
	case *ir.Primitive:
		sb := b.(*array.StringBuilder)
		if !v.Valid {
			sb.AppendNull()
			return
		}
		sb.Append(v.Str)
	case *ir.Array:
		lb := b.(*array.ListBuilder)
		if !v.Valid {
			lb.AppendNull()
			return
		}
		lb.Append(true)
		vb := lb.ValueBuilder()
		for _, it := range v.Items {
			appendValue(vb, s.Item, it)
		}
	case *ir.Object:
		stb := b.(*array.StructBuilder)
		if !v.Valid {
			// also appends a null to every child builder
			stb.AppendNull()
			return
		}
		stb.Append(true)
		for i, f := range s.Fields {
			appendValue(stb.FieldBuilder(i), f.Schema, v.Fields[i])
		}
	default:
		panic(fmt.Sprintf("columnar: unexpected plan node %T", s))
	}
}

// Concat merges records with identical schemas in order. The inputs are not
// released; the caller owns both the inputs and the result.
func Concat(mem memory.Allocator, schema *arrow.Schema, recs []arrow.Record) (arrow.Record, error) {
	switch len(recs) {
	case 0:
		a := NewAppender(mem, schema, nil)
		defer a.Release()
		return a.NewRecord(), nil
	case 1:
		recs[0].Retain()
		return recs[0], nil
	}
	var rows int64
	for _, r := range recs {
		rows += r.NumRows()
	}
	cols := make([]arrow.Array, schema.NumFields())
	parts := make([]arrow.Array, len(recs))
	for i := range cols {
		for j, r := range recs {
			parts[j] = r.Column(i)
		}
		c, err := array.Concatenate(parts, mem)
		if err != nil {
			for _, done := range cols[:i] {
				done.Release()
			}
			return nil, fmt.Errorf("columnar: concatenate column %q: %w", schema.Field(i).Name, err)
		}
		cols[i] = c
	}
	rec := array.NewRecord(schema, cols, rows)
	for _, c := range cols {
		c.Release()
	}
	return rec, nil
}

// ValueAt renders one cell as plain Go values: nil for null, string for
// leaves, []any for lists and map[string]any for structs.
func ValueAt(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.String:
		return a.Value(i)
	case *array.List:
		start, end := a.ValueOffsets(i)
		vals := a.ListValues()
		out := make([]any, 0, end-start)
		for j := start; j < end; j++ {
			out = append(out, ValueAt(vals, int(j)))
		}
		return out
	case *array.Struct:
		st := a.DataType().(*arrow.StructType)
		out := make(map[string]any, a.NumField())
		for f := 0; f < a.NumField(); f++ {
			out[st.Field(f).Name] = ValueAt(a.Field(f), i)
		}
		return out
	default:
		return arr.ValueStr(i)
	}
}
