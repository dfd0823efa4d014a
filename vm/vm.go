package vm

import (
	"fmt"

	"go.uber.org/zap"
)

// Config bundles every VM tunable, mirroring the teacher's pattern of
// a single options struct threaded through construction rather than a
// long constructor argument list. Zero-value Config is valid — every
// field falls back to a sane default in New.
type Config struct {
	StackSize       int
	PoolGranularity int
	Debug           bool
	GlobalsTable    bool
	SaveCallstack   bool
	GCMaxCount      int
	GCAdaptive      bool
	Logger          *zap.Logger
}

func (c Config) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}

// callFrame is one entry of the optional call stack, recorded only
// when Config.SaveCallstack is set, for PrintStackTrace.
type callFrame struct {
	funcName string
	pc       int
}

// VM is the bytecode execution core: registers, stacks, heap, GC,
// function/type/globals tables and the dispatch loop. It implements
// RootProvider so the GC can be handed to Collect without reaching
// into VM internals any other way.
type VM struct {
	cfg    Config
	log    *zap.Logger

	code []Instruction
	data []Variant // constant pool addressed by PUSH/NEW_STRING

	functions *FunctionTable
	types     *TypeTable
	globals   *GlobalsTable // nil unless cfg.GlobalsTable

	stack  *Stack // evaluation stack
	locals *Stack // locals of every active frame; the current one starts at localsBase

	heap *Heap
	gc   *GC

	pc         int
	retAddr    int
	returnVal  Variant
	localsBase int
	frames     []frame

	callstack []callFrame // nil unless cfg.SaveCallstack

	extraRoots []Variant // transient roots pushed by native frames
}

// frame is one entry of the return-address/locals-base stack every
// script call pushes, independent of the optional, debug-only
// callstack recorded for PrintStackTrace.
type frame struct {
	returnPC   int
	localsBase int
	localsTop  int
}

// New constructs a VM over a fixed program (code + constant data). The
// function, type and globals tables are populated by the caller
// (typically a loader) after construction via the accessor methods.
func New(code []Instruction, data []Variant, cfg Config) *VM {
	if cfg.StackSize <= 0 {
		cfg.StackSize = DefaultStackSize
	}
	gc := NewGC(cfg.GCMaxCount, cfg.GCAdaptive)
	v := &VM{
		cfg:       cfg,
		log:       cfg.logger(),
		code:      code,
		data:      data,
		functions: NewFunctionTable(),
		types:     NewTypeTable(),
		stack:     NewStack(cfg.StackSize),
		locals:    NewStack(cfg.StackSize),
		heap:      NewHeap(cfg.PoolGranularity, cfg.Debug, gc),
		gc:        gc,
	}
	if cfg.GlobalsTable {
		v.globals = NewGlobalsTable()
	}
	return v
}

func (v *VM) Functions() *FunctionTable { return v.functions }
func (v *VM) Types() *TypeTable         { return v.types }
func (v *VM) Globals() *GlobalsTable    { return v.globals }
func (v *VM) Heap() *Heap               { return v.heap }

func (v *VM) GetProgramCounter() int   { return v.pc }
func (v *VM) SetProgramCounter(pc int) { v.pc = pc }
func (v *VM) GetReturnAddress() int    { return v.retAddr }
func (v *VM) SetReturnAddress(a int)   { v.retAddr = a }
func (v *VM) GetReturnValue() Variant  { return v.returnVal }
func (v *VM) SetReturnValue(r Variant) { v.returnVal = r }

// GetAliveObjectsCount reports the GC's current live-object count.
func (v *VM) GetAliveObjectsCount() int { return v.gc.AliveCount() }

// NeedToCollectGarbage reports whether the live-object count has
// reached the GC's threshold.
func (v *VM) NeedToCollectGarbage() bool { return v.gc.NeedToCollect() }

// CollectGarbage runs one mark-and-sweep cycle immediately, regardless
// of threshold, and logs the live count before and after — for callers
// wanting a deterministic collection point. The GC_COLLECT opcode runs
// the same collection directly, without the log line.
func (v *VM) CollectGarbage() {
	before := v.gc.AliveCount()
	v.gc.Collect(v)
	v.log.Debug("gc collect",
		zap.Int("before", before),
		zap.Int("after", v.gc.AliveCount()),
		zap.Int("threshold", v.gc.MaxCount()),
	)
}

// PushRoot registers a transient Variant as a GC root for the
// duration of a native call — for a native function that allocates
// more than one object and needs the first to survive a collection
// triggered by allocating the second.
func (v *VM) PushRoot(val Variant) {
	v.extraRoots = append(v.extraRoots, val)
}

// PopRoot releases the most recently pushed transient root.
func (v *VM) PopRoot() {
	if len(v.extraRoots) == 0 {
		return
	}
	v.extraRoots = v.extraRoots[:len(v.extraRoots)-1]
}

// Roots implements RootProvider: the data pool, the occupied stacks,
// the return-value register, globals (if enabled) and any transient
// native roots.
func (v *VM) Roots(yield func(*Variant)) {
	for i := range v.data {
		yield(&v.data[i])
	}
	occ := v.stack.Occupied()
	for i := 0; i < occ.Len(); i++ {
		idx := i
		val := occ.At(idx)
		yield(&val)
	}
	locOcc := v.locals.Occupied()
	for i := 0; i < locOcc.Len(); i++ {
		idx := i
		val := locOcc.At(idx)
		yield(&val)
	}
	yield(&v.returnVal)
	if v.globals != nil {
		v.globals.Roots(yield)
	}
	for i := range v.extraRoots {
		yield(&v.extraRoots[i])
	}
}

// Shutdown tears the VM down: the GC destructs every remaining live
// object and drains the heap's pools. Call once, when the VM is no
// longer needed.
func (v *VM) Shutdown() {
	v.log.Debug("vm shutdown", zap.Int("aliveObjects", v.gc.AliveCount()))
	v.gc.Shutdown()
}

// Execute runs the whole program starting at pc 0 until HALT. A
// program that halts with a non-empty stack is a compiler or VM bug,
// not a runtime condition a host can recover from — it panics rather
// than returning success.
func (v *VM) Execute() error {
	v.pc = 0
	for {
		halted, err := v.step()
		if err != nil {
			return err
		}
		if halted {
			break
		}
	}
	if v.stack.Size() != 0 {
		panic(fmt.Sprintf("vm: execute: stack not empty at halt (size=%d)", v.stack.Size()))
	}
	return nil
}

// ExecuteRange runs at most max instructions starting at first, or
// until HALT, whichever comes first — the entry point a debugger or
// single-step harness uses to run a bounded number of instructions.
// max bounds the instruction count, not the program counter: a
// backward JUMP inside the stepped range must not let the loop run
// past max instructions, so the count is tracked independently of pc.
// Unlike Execute, it makes no claim about the stack being empty when
// it returns — it may stop mid-function.
func (v *VM) ExecuteRange(first, max int) error {
	v.pc = first
	for executed := 0; executed < max; executed++ {
		halted, err := v.step()
		if err != nil {
			return err
		}
		if halted {
			return nil
		}
	}
	return nil
}

// ExecuteWithCallback runs from first until HALT, asking cb before
// every instruction whether to proceed. Returning false from cb
// cancels execution with ErrCancelled before that instruction runs —
// so if cb returns false on its Nth call, exactly N-1 instructions
// have executed and pc still points at the one cb just vetoed.
func (v *VM) ExecuteWithCallback(first int, cb func(pc int) bool) error {
	v.pc = first
	for v.pc < len(v.code) {
		if !cb(v.pc) {
			return ErrCancelled
		}
		halted, err := v.step()
		if err != nil {
			return err
		}
		if halted {
			return nil
		}
	}
	return nil
}

// step decodes and executes the instruction at the current pc,
// advancing pc unless the instruction itself set it (JUMP family,
// CALL, RET). It reports halted=true after HALT.
func (v *VM) step() (halted bool, err error) {
	if v.pc < 0 || v.pc >= len(v.code) {
		panic(fmt.Sprintf("vm: program counter %d out of range", v.pc))
	}
	inst := v.code[v.pc]
	pc := v.pc
	defer func() {
		if err != nil {
			err = newRuntimeError(pc, unwrapSentinel(err))
		}
	}()

	switch inst.Op {
	case HALT:
		return true, nil

	case PUSH:
		err = v.stack.Push(v.data[inst.Operand])
	case POP:
		_, err = v.stack.Pop()
	case DUP:
		top, e := v.stack.Top()
		if e != nil {
			err = e
			break
		}
		err = v.stack.Push(top)

	case ADD, SUB, MUL, DIV, MOD:
		err = v.binaryArith(inst.Op)
	case NEG:
		err = v.unaryNeg()

	case EQ:
		err = v.binaryCompareEq()
	case LT:
		err = v.binaryCompareOrd(inst.Op)
	case GT:
		err = v.binaryCompareOrd(inst.Op)

	case JUMP:
		v.pc = inst.Operand
		return false, nil
	case JUMP_IF_FALSE:
		cond, e := v.stack.Pop()
		if e != nil {
			err = e
			break
		}
		if !truthy(cond) {
			v.pc = inst.Operand
			return false, nil
		}

	case LOAD_LOCAL:
		err = v.stack.Push(v.locals.At(v.localsBase + inst.Operand))
	case STORE_LOCAL:
		val, e := v.stack.Pop()
		if e != nil {
			err = e
			break
		}
		v.locals.Set(v.localsBase+inst.Operand, val)

	case LOAD_GLOBAL:
		if v.globals == nil {
			panic("vm: LOAD_GLOBAL used without globals table enabled")
		}
		err = v.stack.Push(v.globals.GetSlot(inst.Operand))
	case STORE_GLOBAL:
		if v.globals == nil {
			panic("vm: STORE_GLOBAL used without globals table enabled")
		}
		val, e := v.stack.Pop()
		if e != nil {
			err = e
			break
		}
		v.globals.SetSlot(inst.Operand, val)

	case NEW_STRING:
		str := v.heap.NewString(v.data[inst.Operand].AsString())
		err = v.stack.Push(Object(str))
	case NEW_ARRAY:
		elems, e := v.stack.TopN(inst.Operand)
		if e != nil {
			err = e
			break
		}
		buf := make([]Variant, elems.Len())
		for i := 0; i < elems.Len(); i++ {
			buf[i] = elems.At(i)
		}
		if e := v.stack.Drop(inst.Operand); e != nil {
			err = e
			break
		}
		arr := v.heap.NewArray(buf)
		err = v.stack.Push(Object(arr))
	case ARRAY_GET:
		err = v.arrayGet()
	case ARRAY_SET:
		err = v.arraySet()
	case ARRAY_LEN:
		err = v.arrayLen()

	case NEW_OBJECT:
		err = v.newObject(inst.Operand)
	case GET_FIELD:
		err = v.getField(inst.Operand)
	case SET_FIELD:
		err = v.setField(inst.Operand)

	case CALL:
		jumped, e := v.doCall(inst.Operand, inst.Operand2)
		if e != nil {
			err = e
			break
		}
		if jumped {
			return false, nil
		}
	case RET:
		return v.doReturn()

	case GC_COLLECT:
		v.gc.Collect(v)

	default:
		panic(fmt.Sprintf("vm: unknown opcode %v", inst.Op))
	}

	if err != nil {
		return false, err
	}
	v.pc++
	return false, nil
}

func unwrapSentinel(err error) error {
	if re, ok := err.(*RuntimeError); ok {
		return re.Err
	}
	return err
}

func truthy(v Variant) bool {
	switch v.Kind() {
	case KindNull:
		return false
	case KindBool:
		return v.AsBool()
	case KindInt:
		return v.AsInt() != 0
	case KindFloat:
		return v.AsFloat() != 0
	default:
		return true
	}
}

func (v *VM) binaryArith(op OpCode) error {
	b, err := v.stack.Pop()
	if err != nil {
		return err
	}
	a, err := v.stack.Pop()
	if err != nil {
		return err
	}
	result, err := arith(op, a, b)
	if err != nil {
		return err
	}
	return v.stack.Push(result)
}

func arith(op OpCode, a, b Variant) (Variant, error) {
	if a.Kind() == KindFloat || b.Kind() == KindFloat {
		af, bf := asFloat(a), asFloat(b)
		switch op {
		case ADD:
			return Float(af + bf), nil
		case SUB:
			return Float(af - bf), nil
		case MUL:
			return Float(af * bf), nil
		case DIV:
			if bf == 0 {
				return Null, ErrDivByZero
			}
			return Float(af / bf), nil
		case MOD:
			return Null, fmt.Errorf("%w: MOD requires integer operands", ErrTypeError)
		}
	}
	if a.Kind() != KindInt || b.Kind() != KindInt {
		return Null, fmt.Errorf("%w: arithmetic requires int or float operands", ErrTypeError)
	}
	ai, bi := a.AsInt(), b.AsInt()
	switch op {
	case ADD:
		return Int(ai + bi), nil
	case SUB:
		return Int(ai - bi), nil
	case MUL:
		return Int(ai * bi), nil
	case DIV:
		if bi == 0 {
			return Null, ErrDivByZero
		}
		return Int(ai / bi), nil
	case MOD:
		if bi == 0 {
			return Null, ErrDivByZero
		}
		return Int(ai % bi), nil
	}
	panic("vm: arith: unreachable opcode")
}

func asFloat(v Variant) float64 {
	if v.Kind() == KindFloat {
		return v.AsFloat()
	}
	return float64(v.AsInt())
}

func (v *VM) unaryNeg() error {
	a, err := v.stack.Pop()
	if err != nil {
		return err
	}
	switch a.Kind() {
	case KindInt:
		return v.stack.Push(Int(-a.AsInt()))
	case KindFloat:
		return v.stack.Push(Float(-a.AsFloat()))
	default:
		return fmt.Errorf("%w: NEG requires int or float operand", ErrTypeError)
	}
}

func (v *VM) binaryCompareEq() error {
	b, err := v.stack.Pop()
	if err != nil {
		return err
	}
	a, err := v.stack.Pop()
	if err != nil {
		return err
	}
	return v.stack.Push(Bool(a.Equal(b)))
}

func (v *VM) binaryCompareOrd(op OpCode) error {
	b, err := v.stack.Pop()
	if err != nil {
		return err
	}
	a, err := v.stack.Pop()
	if err != nil {
		return err
	}
	if a.Kind() != KindInt && a.Kind() != KindFloat {
		return fmt.Errorf("%w: ordered comparison requires int or float operands", ErrTypeError)
	}
	if b.Kind() != KindInt && b.Kind() != KindFloat {
		return fmt.Errorf("%w: ordered comparison requires int or float operands", ErrTypeError)
	}
	af, bf := asFloat(a), asFloat(b)
	var result bool
	if op == LT {
		result = af < bf
	} else {
		result = af > bf
	}
	return v.stack.Push(Bool(result))
}

func (v *VM) arrayGet() error {
	idxVal, err := v.stack.Pop()
	if err != nil {
		return err
	}
	arrVal, err := v.stack.Pop()
	if err != nil {
		return err
	}
	arr, ok := arrVal.AsObject().(*LSArray)
	if !ok {
		return fmt.Errorf("%w: ARRAY_GET requires an array operand", ErrTypeError)
	}
	idx := int(idxVal.AsInt())
	if idx < 0 || idx >= len(arr.Elems) {
		return ErrIndexOutOfRange
	}
	return v.stack.Push(arr.Elems[idx])
}

func (v *VM) arraySet() error {
	val, err := v.stack.Pop()
	if err != nil {
		return err
	}
	idxVal, err := v.stack.Pop()
	if err != nil {
		return err
	}
	arrVal, err := v.stack.Pop()
	if err != nil {
		return err
	}
	arr, ok := arrVal.AsObject().(*LSArray)
	if !ok {
		return fmt.Errorf("%w: ARRAY_SET requires an array operand", ErrTypeError)
	}
	idx := int(idxVal.AsInt())
	if idx < 0 || idx >= len(arr.Elems) {
		return ErrIndexOutOfRange
	}
	arr.Elems[idx] = val
	return nil
}

func (v *VM) arrayLen() error {
	arrVal, err := v.stack.Pop()
	if err != nil {
		return err
	}
	arr, ok := arrVal.AsObject().(*LSArray)
	if !ok {
		return fmt.Errorf("%w: ARRAY_LEN requires an array operand", ErrTypeError)
	}
	return v.stack.Push(Int(int64(len(arr.Elems))))
}

func (v *VM) newObject(typeIdx int) error {
	if typeIdx < 0 || typeIdx >= len(v.data) {
		panic("vm: NEW_OBJECT: type operand out of range")
	}
	// The type descriptor is resolved by name held in the constant
	// pool, not by index into a parallel type vector — keeps the
	// code vector self-describing without a second table the loader
	// must keep in lockstep.
	name := v.data[typeIdx].AsString()
	td := v.types.Get(name)
	if td == nil {
		panic(fmt.Sprintf("vm: NEW_OBJECT: unknown type %q", name))
	}
	n := len(td.FieldNames)
	fieldsSlice, err := v.stack.TopN(n)
	if err != nil {
		return err
	}
	fields := make([]Variant, n)
	for i := 0; i < n; i++ {
		fields[i] = fieldsSlice.At(i)
	}
	if err := v.stack.Drop(n); err != nil {
		return err
	}
	obj := v.heap.NewObject(td, fields)
	return v.stack.Push(Object(obj))
}

func (v *VM) getField(idx int) error {
	recv, err := v.stack.Pop()
	if err != nil {
		return err
	}
	switch o := recv.AsObject().(type) {
	case *LSObject:
		if idx < 0 || idx >= len(o.Fields) {
			return ErrIndexOutOfRange
		}
		return v.stack.Push(o.Fields[idx])
	case *LSStruct:
		if idx < 0 || idx >= len(o.Fields) {
			return ErrIndexOutOfRange
		}
		return v.stack.Push(o.Fields[idx])
	default:
		return fmt.Errorf("%w: GET_FIELD requires an object or struct operand", ErrTypeError)
	}
}

func (v *VM) setField(idx int) error {
	val, err := v.stack.Pop()
	if err != nil {
		return err
	}
	recv, err := v.stack.Pop()
	if err != nil {
		return err
	}
	switch o := recv.AsObject().(type) {
	case *LSObject:
		if idx < 0 || idx >= len(o.Fields) {
			return ErrIndexOutOfRange
		}
		o.Fields[idx] = val
		return nil
	case *LSStruct:
		if idx < 0 || idx >= len(o.Fields) {
			return ErrIndexOutOfRange
		}
		o.Fields[idx] = val
		return nil
	default:
		return fmt.Errorf("%w: SET_FIELD requires an object or struct operand", ErrTypeError)
	}
}
