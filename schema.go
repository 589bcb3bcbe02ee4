package prunejson

import (
	"strconv"
	"strings"
)

// NodeKind identifies the variant of a schema Node.
type NodeKind int

const (
	KindScalar NodeKind = iota
	KindList
	KindObject
)

func (k NodeKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Node is one vertex of a schema tree. It is implemented only by *Scalar,
// *List and *Object; switch on the concrete type to walk a tree.
//
// Trees are immutable once built: no method mutates a node, and accessors
// return copies.
type Node interface {
	Kind() NodeKind
	node()
}

// Scalar is a leaf decoded into a string column.
type Scalar struct{}

// String returns the shared scalar leaf.
func String() *Scalar { return scalarLeaf }

var scalarLeaf = &Scalar{}

func (*Scalar) Kind() NodeKind { return KindScalar }
func (*Scalar) node()          {}

// List is a homogeneous array with exactly one element type.
type List struct {
	elem Node
}

// NewList declares a list. Exactly one element type is required.
func NewList(children ...Node) (*List, error) {
	if len(children) != 1 {
		return nil, &SchemaDefinitionError{Reason: "list must declare exactly one element type, got " + strconv.Itoa(len(children))}
	}
	if children[0] == nil {
		return nil, &SchemaDefinitionError{Reason: "list element type is nil"}
	}
	return &List{elem: children[0]}, nil
}

// MustList is NewList for static declarations; it panics on error.
func MustList(children ...Node) *List {
	l, err := NewList(children...)
	if err != nil {
		panic(err)
	}
	return l
}

func (*List) Kind() NodeKind { return KindList }
func (*List) node()          {}

// Elem returns the element type.
func (l *List) Elem() Node { return l.elem }

// Field is one named member of an Object.
type Field struct {
	Name string
	Node Node
}

// F is shorthand for a Field literal.
func F(name string, n Node) Field { return Field{Name: name, Node: n} }

// Object is an ordered mapping of field names to child nodes. Declaration
// order is significant: it is the order pruning walks.
type Object struct {
	fields []Field
}

// NewObject declares an object. Names must be non-empty and unique
// (case-sensitive), and every child must be non-nil.
func NewObject(fields ...Field) (*Object, error) {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return nil, &SchemaDefinitionError{Reason: "object field name is empty"}
		}
		if _, dup := seen[f.Name]; dup {
			return nil, &SchemaDefinitionError{Path: f.Name, Reason: "duplicate field name"}
		}
		seen[f.Name] = struct{}{}
		if f.Node == nil {
			return nil, &SchemaDefinitionError{Path: f.Name, Reason: "field type is nil"}
		}
	}
	return &Object{fields: append([]Field(nil), fields...)}, nil
}

// MustObject is NewObject for static declarations; it panics on error.
func MustObject(fields ...Field) *Object {
	o, err := NewObject(fields...)
	if err != nil {
		panic(err)
	}
	return o
}

func (*Object) Kind() NodeKind { return KindObject }
func (*Object) node()          {}

// Len returns the number of fields.
func (o *Object) Len() int { return len(o.fields) }

// Fields returns a copy of the fields in declaration order.
func (o *Object) Fields() []Field { return append([]Field(nil), o.fields...) }

// Field returns the child declared under name.
func (o *Object) Field(name string) (Node, bool) {
	for _, f := range o.fields {
		if f.Name == name {
			return f.Node, true
		}
	}
	return nil, false
}

// Leaves returns the dotted path of every scalar leaf in pre-order. List
// elements are marked with "[]", e.g. "a.b[].c".
func Leaves(n Node) []string {
	var out []string
	walkLeaves(n, "", func(p string) { out = append(out, p) })
	return out
}

// LeafCount returns the number of scalar leaves under n.
func LeafCount(n Node) int {
	c := 0
	walkLeaves(n, "", func(string) { c++ })
	return c
}

func walkLeaves(n Node, path string, fn func(string)) {
	switch n := n.(type) {
	case *Scalar:
		fn(path)
	case *List:
		walkLeaves(n.elem, path+"[]", fn)
	case *Object:
		for _, f := range n.fields {
			walkLeaves(f.Node, joinPath(path, f.Name), fn)
		}
	}
}

func joinPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}

// Equal reports whether a and b describe the same tree, field order included.
func Equal(a, b Node) bool {
	switch a := a.(type) {
	case *Scalar:
		_, ok := b.(*Scalar)
		return ok
	case *List:
		bl, ok := b.(*List)
		return ok && Equal(a.elem, bl.elem)
	case *Object:
		bo, ok := b.(*Object)
		if !ok || len(a.fields) != len(bo.fields) {
			return false
		}
		for i, f := range a.fields {
			if f.Name != bo.fields[i].Name || !Equal(f.Node, bo.fields[i].Node) {
				return false
			}
		}
		return true
	}
	return a == nil && b == nil
}

// Format renders n compactly, e.g. {"a":string,"b":[{"c":string}]}.
func Format(n Node) string {
	b := &strings.Builder{}
	format(b, n)
	return b.String()
}

func format(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Scalar:
		b.WriteString("string")
	case *List:
		b.WriteByte('[')
		format(b, n.elem)
		b.WriteByte(']')
	case *Object:
		b.WriteByte('{')
		for i, f := range n.fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(f.Name))
			b.WriteByte(':')
			format(b, f.Node)
		}
		b.WriteByte('}')
	default:
		b.WriteString("<nil>")
	}
}
