package vm

import "fmt"

// Kind tags the payload a Variant currently holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Variant is the tagged value carried by the stacks and the data pool.
// It is trivially copyable: copying a Variant that holds a heap-object
// handle copies the handle, never the pointee, and never touches GC
// state — reachability is re-derived by the next mark phase.
type Variant struct {
	kind Kind
	i    int64
	f    float64
	s    string
	o    gcObject
}

// Null is the zero Variant.
var Null = Variant{kind: KindNull}

func Bool(b bool) Variant {
	var i int64
	if b {
		i = 1
	}
	return Variant{kind: KindBool, i: i}
}

func Int(n int64) Variant { return Variant{kind: KindInt, i: n} }

func Float(f float64) Variant { return Variant{kind: KindFloat, f: f} }

// String wraps a plain Go string as a Variant. Go's runtime already
// shares the underlying byte array across copies of a string value, so
// this is the "reference-counted immutable string handle" of the
// spec — no separate refcount needs to be hand-rolled.
func String(s string) Variant { return Variant{kind: KindString, s: s} }

// Object wraps a heap-managed object handle.
func Object(o gcObject) Variant { return Variant{kind: KindObject, o: o} }

func (v Variant) Kind() Kind { return v.kind }

func (v Variant) IsNull() bool { return v.kind == KindNull }

func (v Variant) AsBool() bool { return v.i != 0 }

func (v Variant) AsInt() int64 { return v.i }

func (v Variant) AsFloat() float64 { return v.f }

func (v Variant) AsString() string { return v.s }

func (v Variant) AsObject() gcObject { return v.o }

// header returns the heap header of an object-kind Variant, or nil.
func (v Variant) header() *Header {
	if v.kind != KindObject || v.o == nil {
		return nil
	}
	return v.o.header()
}

// Equal implements the round-trip/identity comparison used by EQ and
// by tests: for KindObject it compares handle identity (the pointer),
// never structural equality, matching "reachability is re-derived by
// mark" — two variants naming the same object are equal regardless of
// the object's mutable contents.
func (v Variant) Equal(o Variant) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool, KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindObject:
		return v.o == o.o
	default:
		return false
	}
}

func (v Variant) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.AsBool())
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindObject:
		if v.o == nil {
			return "<nil object>"
		}
		return fmt.Sprintf("%s", v.o)
	default:
		return "<invalid>"
	}
}
