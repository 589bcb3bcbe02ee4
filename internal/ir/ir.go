// Package ir defines the decode plan compiled from a pruned schema. Every JSON
// driver walks the same plan, so projection and shape checks agree across
// backends. This package is internal and not part of the public API.
package ir

// NodeKind identifies an IR node type.
type NodeKind int

const (
	NodePrimitive NodeKind = iota
	NodeArray
	NodeObject
)

func (k NodeKind) String() string {
	switch k {
	case NodePrimitive:
		return "string"
	case NodeArray:
		return "array"
	case NodeObject:
		return "object"
	default:
		return "unknown"
	}
}

// Schema is the root IR node interface.
type Schema interface {
	Kind() NodeKind
}

// Primitive represents a string-typed leaf column.
type Primitive struct {
	Name string // always "string" for now
}

func (p *Primitive) Kind() NodeKind { return NodePrimitive }

// Array represents a homogeneous list of items.
type Array struct {
	Item Schema
}

func (a *Array) Kind() NodeKind { return NodeArray }

// Object represents an ordered set of projected fields. Keys that are not
// listed are skipped by the drivers.
type Object struct {
	Fields []Field
	index  map[string]int
}

func (o *Object) Kind() NodeKind { return NodeObject }

// Field maps a JSON name to a Schema.
type Field struct {
	Name   string
	Schema Schema
}

// NewObject builds an Object and its name index. Field names must be unique;
// callers validate that before compiling.
func NewObject(fields []Field) *Object {
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		idx[f.Name] = i
	}
	return &Object{Fields: fields, index: idx}
}

// Lookup returns the position of name in Fields.
func (o *Object) Lookup(name string) (int, bool) {
	i, ok := o.index[name]
	return i, ok
}

// LookupBytes is Lookup for a raw key; the conversion does not allocate.
func (o *Object) LookupBytes(name []byte) (int, bool) {
	i, ok := o.index[string(name)]
	return i, ok
}
