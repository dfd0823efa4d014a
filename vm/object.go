package vm

import "fmt"

// ObjKind identifies which of the five closed heap-object variants a
// Header belongs to.
type ObjKind uint8

const (
	KindLSObject ObjKind = iota
	KindLSStruct
	KindLSEnum
	KindLSStr
	KindLSArray
)

func (k ObjKind) String() string {
	switch k {
	case KindLSObject:
		return "LSObject"
	case KindLSStruct:
		return "LSStruct"
	case KindLSEnum:
		return "LSEnum"
	case KindLSStr:
		return "LSStr"
	case KindLSArray:
		return "LSArray"
	default:
		return "LSUnknown"
	}
}

// Header is embedded as the first field of every heap-managed object.
// It carries exactly the bookkeeping the pool and GC need: which
// size-class pool owns the cell, the intrusive link into the GC's
// global live-object list, and the transient mark bit.
//
// Header also records its object's kind and a self reference, which
// Heap.free uses to recover the concrete object (by type assertion on
// self) and return it to the matching pool.
type Header struct {
	kind    ObjKind
	isSmall bool
	gcNext  *Header
	marked  bool

	// self lets the GC recover the concrete gcObject from a bare
	// *Header while walking the intrusive gcNext list (sweep never
	// sees anything but Headers). It is set once, right after
	// allocation, by Heap's New* constructors, and is the
	// Go-idiomatic stand-in for the C original's reliance on a
	// virtual destructor dispatching through the base pointer.
	self gcObject
}

// gcObject is implemented by exactly the five concrete heap-object
// types. The set is closed by construction: adding a sixth type means
// adding it here, to Heap's per-kind pools, and to Heap.free's switch.
type gcObject interface {
	header() *Header
	// trace calls mark for every Variant this object directly
	// references (array elements, struct/object fields, enum
	// payload). LSStr has no outgoing references and implements
	// trace as a no-op.
	trace(mark func(*Variant))
}

// LSObject is a class-instance-like heap object: a type descriptor
// plus a flat field vector.
type LSObject struct {
	Header
	Type   *TypeDescriptor
	Fields []Variant
}

func (o *LSObject) header() *Header { return &o.Header }

func (o *LSObject) trace(mark func(*Variant)) {
	for i := range o.Fields {
		mark(&o.Fields[i])
	}
}

func (o *LSObject) String() string {
	name := "?"
	if o.Type != nil {
		name = o.Type.Name
	}
	return fmt.Sprintf("<object %s>", name)
}

// LSStruct is a value-like aggregate: an anonymous field vector with
// no type identity of its own.
type LSStruct struct {
	Header
	Fields []Variant
}

func (s *LSStruct) header() *Header { return &s.Header }

func (s *LSStruct) trace(mark func(*Variant)) {
	for i := range s.Fields {
		mark(&s.Fields[i])
	}
}

func (s *LSStruct) String() string { return "<struct>" }

// LSEnum is a tagged-union value: a small integer tag plus one payload
// slot.
type LSEnum struct {
	Header
	Tag     int32
	Payload Variant
}

func (e *LSEnum) header() *Header { return &e.Header }

func (e *LSEnum) trace(mark func(*Variant)) {
	mark(&e.Payload)
}

func (e *LSEnum) String() string { return fmt.Sprintf("<enum #%d>", e.Tag) }

// LSStr is a heap-allocated, mutable-identity string (as opposed to
// the immutable KindString Variant payload, which is a plain Go
// string requiring no GC participation). The NEW_STRING opcode
// produces LSStr.
type LSStr struct {
	Header
	Value string
}

func (s *LSStr) header() *Header { return &s.Header }

func (s *LSStr) trace(func(*Variant)) {}

func (s *LSStr) String() string { return fmt.Sprintf("%q", s.Value) }

// LSArray is a heap-allocated, resizable-by-identity array of Variant.
type LSArray struct {
	Header
	Elems []Variant
}

func (a *LSArray) header() *Header { return &a.Header }

func (a *LSArray) trace(mark func(*Variant)) {
	for i := range a.Elems {
		mark(&a.Elems[i])
	}
}

func (a *LSArray) String() string { return fmt.Sprintf("<array len=%d>", len(a.Elems)) }

// TypeDescriptor is a type-table entry: a named shape an LSObject can
// be an instance of. The compiler (out of scope here) is responsible
// for producing the type table; the VM only consults it.
type TypeDescriptor struct {
	Name       string
	FieldNames []string
}

// FieldIndex returns the slot index of name within FieldNames, or -1.
func (t *TypeDescriptor) FieldIndex(name string) int {
	for i, n := range t.FieldNames {
		if n == name {
			return i
		}
	}
	return -1
}

// TypeTable maps interned type name to descriptor.
type TypeTable struct {
	byName map[string]*TypeDescriptor
}

func NewTypeTable() *TypeTable {
	return &TypeTable{byName: make(map[string]*TypeDescriptor)}
}

func (t *TypeTable) Add(desc *TypeDescriptor) {
	if _, exists := t.byName[desc.Name]; exists {
		panic(fmt.Sprintf("vm: duplicate type registration for %q", desc.Name))
	}
	t.byName[desc.Name] = desc
}

func (t *TypeTable) Get(name string) *TypeDescriptor {
	return t.byName[name]
}
