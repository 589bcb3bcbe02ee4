package prunejson

import (
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/cespare/xxhash/v2"

	"github.com/reoring/prunejson/internal/ir"
)

// ColumnType is the decoder-facing type of a column: StringType, ListType or
// StructType.
type ColumnType interface {
	String() string
	arrowType() arrow.DataType
}

// StringType is a nullable UTF-8 column.
type StringType struct{}

func (StringType) String() string            { return "string" }
func (StringType) arrowType() arrow.DataType { return arrow.BinaryTypes.String }

// ListType is a list column of a single element type.
type ListType struct {
	Elem ColumnType
}

func (t ListType) String() string            { return "list<" + t.Elem.String() + ">" }
func (t ListType) arrowType() arrow.DataType { return arrow.ListOf(t.Elem.arrowType()) }

// StructType is a struct column with ordered children.
type StructType struct {
	Fields []Column
}

func (t StructType) String() string {
	b := &strings.Builder{}
	b.WriteString("struct<")
	for i, f := range t.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Quote(f.Name))
		b.WriteString(": ")
		b.WriteString(f.Type.String())
	}
	b.WriteByte('>')
	return b.String()
}

func (t StructType) arrowType() arrow.DataType { return arrow.StructOf(arrowFields(t.Fields)...) }

// Column is one compiled field. Path is the dotted path from the record root.
type Column struct {
	Name string
	Path string
	Type ColumnType
}

// CompiledSchema is the decoder-ready form of a pruned schema: one column per
// top-level field, plus the Arrow schema and the internal decode plan.
type CompiledSchema struct {
	columns     []Column
	arrow       *arrow.Schema
	plan        *ir.Object
	leaves      []string
	canonical   string
	fingerprint uint64
}

// RootColumn names the single column produced when the compiled root is not
// an object.
const RootColumn = "value"

// Compile converts a pruned schema into a CompiledSchema. Compiling the same
// tree twice yields identical results.
func Compile(pruned Node) (*CompiledSchema, error) {
	if pruned == nil {
		return nil, &SchemaDefinitionError{Reason: "schema is nil"}
	}
	root, ok := pruned.(*Object)
	if !ok {
		// a bare list or scalar is decoded as {"value": ...}
		root = &Object{fields: []Field{{Name: RootColumn, Node: pruned}}}
	}
	cols, plan, err := compileObject(root, "")
	if err != nil {
		return nil, err
	}
	cs := &CompiledSchema{
		columns: cols,
		arrow:   arrow.NewSchema(arrowFields(cols), nil),
		plan:    plan,
		leaves:  Leaves(root),
	}
	cs.canonical = StructType{Fields: cols}.String()
	cs.fingerprint = xxhash.Sum64String(cs.canonical)
	return cs, nil
}

// MustCompile is Compile for static schemas; it panics on error.
func MustCompile(pruned Node) *CompiledSchema {
	cs, err := Compile(pruned)
	if err != nil {
		panic(err)
	}
	return cs
}

func compileObject(o *Object, path string) ([]Column, *ir.Object, error) {
	cols := make([]Column, 0, len(o.fields))
	fields := make([]ir.Field, 0, len(o.fields))
	seen := make(map[string]struct{}, len(o.fields))
	for _, f := range o.fields {
		p := joinPath(path, f.Name)
		if _, dup := seen[f.Name]; dup {
			return nil, nil, &SchemaDefinitionError{Path: p, Reason: "duplicate field name"}
		}
		seen[f.Name] = struct{}{}
		t, s, err := compileNode(f.Node, p)
		if err != nil {
			return nil, nil, err
		}
		cols = append(cols, Column{Name: f.Name, Path: p, Type: t})
		fields = append(fields, ir.Field{Name: f.Name, Schema: s})
	}
	return cols, ir.NewObject(fields), nil
}

func compileNode(n Node, path string) (ColumnType, ir.Schema, error) {
	switch n := n.(type) {
	case *Scalar:
		return StringType{}, &ir.Primitive{Name: "string"}, nil
	case *List:
		if n == nil || n.elem == nil {
			return nil, nil, &SchemaDefinitionError{Path: path, Reason: "list must declare exactly one element type, got 0"}
		}
		t, s, err := compileNode(n.elem, path+"[]")
		if err != nil {
			return nil, nil, err
		}
		return ListType{Elem: t}, &ir.Array{Item: s}, nil
	case *Object:
		if n == nil {
			return nil, nil, &SchemaDefinitionError{Path: path, Reason: "object is nil"}
		}
		cols, plan, err := compileObject(n, path)
		if err != nil {
			return nil, nil, err
		}
		return StructType{Fields: cols}, plan, nil
	}
	return nil, nil, &SchemaDefinitionError{Path: path, Reason: "node is nil"}
}

func arrowFields(cols []Column) []arrow.Field {
	out := make([]arrow.Field, len(cols))
	for i, c := range cols {
		out[i] = arrow.Field{Name: c.Name, Type: c.Type.arrowType(), Nullable: true}
	}
	return out
}

// Columns returns the top-level columns in order.
func (c *CompiledSchema) Columns() []Column { return append([]Column(nil), c.columns...) }

// NumColumns returns the number of top-level columns.
func (c *CompiledSchema) NumColumns() int { return len(c.columns) }

// Arrow returns the Arrow schema of decoded batches.
func (c *CompiledSchema) Arrow() *arrow.Schema { return c.arrow }

// LeafPaths returns the dotted path of every retained leaf in pre-order.
func (c *CompiledSchema) LeafPaths() []string { return append([]string(nil), c.leaves...) }

// String returns the canonical text of the schema; equal schemas render
// equally.
func (c *CompiledSchema) String() string { return c.canonical }

// Fingerprint is the xxHash64 of String, handy for telling benchmark runs
// apart.
func (c *CompiledSchema) Fingerprint() uint64 { return c.fingerprint }
