// Package argument implements the Argument Value tagged union: the
// typed scalar/array/object values passed as CRUD and statement
// placeholders, independent of how they end up encoded on the wire.
package argument

import "fmt"

// Type discriminates the value held by a Value.
type Type uint8

const (
	Null Type = iota
	Integer
	UInteger
	Double
	Float
	Bool
	String
	Octets
	Decimal
	Array
	Object
	UnorderedObject
)

func (t Type) String() string {
	switch t {
	case Null:
		return "null"
	case Integer:
		return "integer"
	case UInteger:
		return "uinteger"
	case Double:
		return "double"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case String:
		return "string"
	case Octets:
		return "octets"
	case Decimal:
		return "decimal"
	case Array:
		return "array"
	case Object:
		return "object"
	case UnorderedObject:
		return "unordered_object"
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// Field is one key/value pair of an UnorderedObject, kept in insertion
// order (unlike Object, which is a regular Go map and has none).
type Field struct {
	Key   string
	Value Value
}

// Value is a tagged union over every placeholder type the X Protocol
// CRUD and statement-execute messages accept. The zero Value is Null.
type Value struct {
	typ Type

	i   int64
	ui  uint64
	d   float64
	f   float32
	b   bool
	s   string // backs String, Octets, and Decimal

	array  []Value
	object map[string]Value
	uobj   []Field
}

func NewNull() Value                    { return Value{typ: Null} }
func NewInt(v int64) Value              { return Value{typ: Integer, i: v} }
func NewUInt(v uint64) Value             { return Value{typ: UInteger, ui: v} }
func NewDouble(v float64) Value          { return Value{typ: Double, d: v} }
func NewFloat(v float32) Value           { return Value{typ: Float, f: v} }
func NewBool(v bool) Value               { return Value{typ: Bool, b: v} }
func NewString(v string) Value           { return Value{typ: String, s: v} }
func NewOctets(v string) Value           { return Value{typ: Octets, s: v} }
func NewDecimal(v string) Value          { return Value{typ: Decimal, s: v} }

// NewArray copies values into an Array-typed Value.
func NewArray(values []Value) Value {
	cp := make([]Value, len(values))
	copy(cp, values)
	return Value{typ: Array, array: cp}
}

// NewObject builds an Object-typed Value from a map. Iteration order
// when visited follows Go's randomized map order, matching how the
// original's std::map iterates by sorted key rather than insertion
// order -- callers that need a stable order should use NewUnorderedObject.
func NewObject(fields map[string]Value) Value {
	cp := make(map[string]Value, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Value{typ: Object, object: cp}
}

// NewUnorderedObject builds an UnorderedObject-typed Value that preserves the
// insertion order of fields, mirroring Argument_value::Unordered_object.
func NewUnorderedObject(fields []Field) Value {
	cp := make([]Field, len(fields))
	copy(cp, fields)
	return Value{typ: UnorderedObject, uobj: cp}
}

// Type reports which variant v holds.
func (v Value) Type() Type { return v.typ }

// Visitor receives exactly one of its methods per Value.Accept call,
// mirroring xcl::Argument_value::Visitor's double-dispatch contract.
type Visitor interface {
	VisitNull()
	VisitInteger(value int64)
	VisitUInteger(value uint64)
	VisitDouble(value float64)
	VisitFloat(value float32)
	VisitBool(value bool)
	VisitObject(value map[string]Value)
	VisitUnorderedObject(value []Field)
	VisitArray(value []Value)
	VisitString(value string)
	VisitOctets(value string)
	VisitDecimal(value string)
}

// Accept dispatches v to the matching Visitor method.
func (v Value) Accept(visitor Visitor) {
	switch v.typ {
	case Null:
		visitor.VisitNull()
	case Integer:
		visitor.VisitInteger(v.i)
	case UInteger:
		visitor.VisitUInteger(v.ui)
	case Double:
		visitor.VisitDouble(v.d)
	case Float:
		visitor.VisitFloat(v.f)
	case Bool:
		visitor.VisitBool(v.b)
	case String:
		visitor.VisitString(v.s)
	case Octets:
		visitor.VisitOctets(v.s)
	case Decimal:
		visitor.VisitDecimal(v.s)
	case Array:
		visitor.VisitArray(v.array)
	case Object:
		visitor.VisitObject(v.object)
	case UnorderedObject:
		visitor.VisitUnorderedObject(v.uobj)
	}
}

// DefaultVisitor implements Visitor with no-op methods, so callers
// that only care about a handful of variants can embed it and
// override just those, mirroring xcl::Default_visitor.
type DefaultVisitor struct{}

func (DefaultVisitor) VisitNull()                             {}
func (DefaultVisitor) VisitInteger(int64)                      {}
func (DefaultVisitor) VisitUInteger(uint64)                    {}
func (DefaultVisitor) VisitDouble(float64)                     {}
func (DefaultVisitor) VisitFloat(float32)                      {}
func (DefaultVisitor) VisitBool(bool)                          {}
func (DefaultVisitor) VisitObject(map[string]Value)            {}
func (DefaultVisitor) VisitUnorderedObject([]Field)            {}
func (DefaultVisitor) VisitArray([]Value)                      {}
func (DefaultVisitor) VisitString(string)                       {}
func (DefaultVisitor) VisitOctets(string)                       {}
func (DefaultVisitor) VisitDecimal(string)                      {}

var _ Visitor = DefaultVisitor{}
