package vm

import "fmt"

// Call invokes a host-registered function by name from outside the
// dispatch loop — the entry point a host program uses, step 1 of the
// call protocol. It works identically for native and script targets:
// the caller never needs to know which kind name resolves to.
//
// The steps: (1) resolve the descriptor, (2) push the arguments and
// form a Slice over them, (3) validate arity and argument kinds
// against that Slice (dropping the arguments on mismatch), then
// (4a) for native, invoke the Go closure directly, collect its result
// and drop the arguments, or (4b) for script, copy the arguments into
// a new locals frame, drop them from the evaluation stack, transfer
// control to Entry and run the dispatch loop until it unwinds back to
// this host boundary, then restore the caller's program counter;
// finally (5) run a GC safe point if the threshold was crossed and
// (6) return the result.
func (v *VM) Call(name string, args ...Variant) (Variant, error) {
	desc := v.functions.Lookup(name)
	if desc == nil {
		return Null, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	for _, a := range args {
		if err := v.stack.Push(a); err != nil {
			return Null, err
		}
	}
	argsSlice, err := v.stack.TopN(len(args))
	if err != nil {
		return Null, err
	}
	if err := desc.checkArgs(argsSlice); err != nil {
		v.stack.Drop(len(args))
		return Null, err
	}

	if desc.IsNative {
		result, err := desc.Native(v, argsSlice)
		if dropErr := v.stack.Drop(len(args)); dropErr != nil && err == nil {
			err = dropErr
		}
		if err != nil {
			return Null, err
		}
		if v.gc.NeedToCollect() {
			v.gc.Collect(v)
		}
		return result, nil
	}

	savedPC := v.pc
	newBase := v.locals.Size()
	for i := 0; i < argsSlice.Len(); i++ {
		if err := v.locals.Push(argsSlice.At(i)); err != nil {
			return Null, err
		}
	}
	for i := argsSlice.Len(); i < desc.NumLocals; i++ {
		if err := v.locals.Push(Null); err != nil {
			return Null, err
		}
	}
	if err := v.stack.Drop(len(args)); err != nil {
		return Null, err
	}
	v.localsBase = newBase
	v.pc = desc.Entry
	if v.cfg.SaveCallstack {
		v.callstack = append(v.callstack, callFrame{funcName: name, pc: savedPC})
	}

	runErr := v.runUntilHostReturn()
	v.pc = savedPC
	if runErr != nil {
		return Null, runErr
	}
	if v.gc.NeedToCollect() {
		v.gc.Collect(v)
	}
	return v.returnVal, nil
}

func (v *VM) runUntilHostReturn() error {
	for {
		halted, err := v.step()
		if err != nil {
			return err
		}
		if halted {
			return nil
		}
	}
}

// doCall implements CALL: resolve by name (held in the constant pool
// at nameIdx), validate, and either run the native handler inline or
// push a new script frame and jump to its entry point. jumped reports
// whether the program counter was set by this call (script target),
// telling step to skip its own auto-increment.
func (v *VM) doCall(nameIdx, argc int) (jumped bool, err error) {
	if nameIdx < 0 || nameIdx >= len(v.data) {
		panic(fmt.Sprintf("vm: CALL: name operand %d out of range", nameIdx))
	}
	name := v.data[nameIdx].AsString()
	desc := v.functions.Lookup(name)
	if desc == nil {
		return false, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	argsSlice, err := v.stack.TopN(argc)
	if err != nil {
		return false, err
	}
	if err := desc.checkArgs(argsSlice); err != nil {
		return false, err
	}

	if desc.IsNative {
		result, err := desc.Native(v, argsSlice)
		if err != nil {
			return false, err
		}
		if err := v.stack.Drop(argc); err != nil {
			return false, err
		}
		if err := v.stack.Push(result); err != nil {
			return false, err
		}
		if v.gc.NeedToCollect() {
			v.gc.Collect(v)
		}
		return false, nil
	}

	newBase := v.locals.Size()
	for i := 0; i < argsSlice.Len(); i++ {
		if err := v.locals.Push(argsSlice.At(i)); err != nil {
			return false, err
		}
	}
	for i := argsSlice.Len(); i < desc.NumLocals; i++ {
		if err := v.locals.Push(Null); err != nil {
			return false, err
		}
	}
	if err := v.stack.Drop(argc); err != nil {
		return false, err
	}
	if v.cfg.SaveCallstack {
		v.callstack = append(v.callstack, callFrame{funcName: name, pc: v.pc})
	}
	v.frames = append(v.frames, frame{returnPC: v.pc + 1, localsBase: v.localsBase, localsTop: newBase})
	v.localsBase = newBase
	v.pc = desc.Entry
	return true, nil
}

// doReturn implements RET: pop the return value, unwind one frame —
// or, if no script frame is on the stack, signal that execution has
// returned to the host boundary (Call or top-level Execute).
func (v *VM) doReturn() (bool, error) {
	val, err := v.stack.Pop()
	if err != nil {
		return false, err
	}
	if v.cfg.SaveCallstack && len(v.callstack) > 0 {
		v.callstack = v.callstack[:len(v.callstack)-1]
	}
	if len(v.frames) == 0 {
		v.returnVal = val
		return true, nil
	}
	f := v.frames[len(v.frames)-1]
	v.frames = v.frames[:len(v.frames)-1]
	if count := v.locals.Size() - f.localsTop; count > 0 {
		if err := v.locals.Drop(count); err != nil {
			return false, err
		}
	}
	v.returnVal = val

	// Function return is a documented safe point: run the collector
	// here, before restoring the caller's locals base and program
	// counter, so a script function that recurses or loops entirely
	// through CALL/RET still gets collected without ever reaching the
	// host boundary.
	if v.gc.NeedToCollect() {
		v.gc.Collect(v)
	}

	v.localsBase = f.localsBase
	v.pc = f.returnPC
	if err := v.stack.Push(val); err != nil {
		return false, err
	}
	return false, nil
}
