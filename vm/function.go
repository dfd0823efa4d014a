package vm

import "fmt"

// NativeFunc is the signature every native (host-provided) function
// must implement. It receives the VM (so it can allocate via the GC,
// push transient roots, or re-enter Call) and a Slice view over its
// arguments on the evaluation stack.
type NativeFunc func(vm *VM, args Slice) (Variant, error)

// FuncDescriptor describes one entry in the function table: a name,
// an arity, a declared return kind, and either a script entry point or
// a native handler.
type FuncDescriptor struct {
	Name       string
	Arity      int
	ReturnKind Kind
	ArgKinds   []Kind

	// Script functions set Entry (an index into VM.code) and
	// NumLocals (the size of the locals frame the call protocol
	// must reserve). Native functions set Native instead.
	IsNative  bool
	Entry     int
	NumLocals int
	Native    NativeFunc
}

// FunctionTable maps interned function name to descriptor. Go string
// comparison already gives value (not pointer) identity cheaply, so
// unlike the source's pointer-equality-then-fallback lookup, there is
// only one lookup path here.
type FunctionTable struct {
	byName map[string]*FuncDescriptor
}

func NewFunctionTable() *FunctionTable {
	return &FunctionTable{byName: make(map[string]*FuncDescriptor)}
}

// Register adds a descriptor. Registering a duplicate name is a
// programming error.
func (t *FunctionTable) Register(desc *FuncDescriptor) {
	if _, exists := t.byName[desc.Name]; exists {
		panic(fmt.Sprintf("vm: duplicate function registration for %q", desc.Name))
	}
	t.byName[desc.Name] = desc
}

// Lookup returns the descriptor for name, or nil.
func (t *FunctionTable) Lookup(name string) *FuncDescriptor {
	return t.byName[name]
}

// checkArgs validates arg count and, where ArgKinds was supplied,
// each argument's kind against desc.
func (desc *FuncDescriptor) checkArgs(args Slice) error {
	if args.Len() != desc.Arity {
		return fmt.Errorf("%w: %s wants %d argument(s), got %d", ErrArgMismatch, desc.Name, desc.Arity, args.Len())
	}
	for i, want := range desc.ArgKinds {
		if i >= args.Len() {
			break
		}
		if got := args.At(i).Kind(); got != want {
			return fmt.Errorf("%w: %s argument %d: want %s, got %s", ErrArgMismatch, desc.Name, i, want, got)
		}
	}
	return nil
}
