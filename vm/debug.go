package vm

import (
	"fmt"
	"io"
)

// Print dumps the VM's register and stack state to w — the teacher's
// equivalent of dumping a JVM frame's operand stack and locals array
// for interactive debugging.
func (v *VM) Print(w io.Writer) {
	fmt.Fprintf(w, "pc=%d retAddr=%d aliveObjects=%d\n", v.pc, v.retAddr, v.gc.AliveCount())
	fmt.Fprintf(w, "data (%d constants):\n", len(v.data))
	for i, d := range v.data {
		fmt.Fprintf(w, "  [%d] %s\n", i, d)
	}
	fmt.Fprintf(w, "stack (%d/%d):\n", v.stack.Size(), v.stack.Capacity())
	occ := v.stack.Occupied()
	for i := 0; i < occ.Len(); i++ {
		fmt.Fprintf(w, "  [%d] %s\n", i, occ.At(i))
	}
	fmt.Fprintf(w, "locals (%d/%d):\n", v.locals.Size(), v.locals.Capacity())
	locOcc := v.locals.Occupied()
	for i := 0; i < locOcc.Len(); i++ {
		fmt.Fprintf(w, "  [%d] %s\n", i, locOcc.At(i))
	}
	if v.globals != nil {
		fmt.Fprintf(w, "globals (%d):\n", v.globals.Len())
	}
}

// PrintStackTrace dumps the saved call stack, most recent call last.
// When Config.SaveCallstack is false no frames were ever recorded, and
// it prints a single "(callstack tracking disabled)" line instead.
func (v *VM) PrintStackTrace(w io.Writer) {
	if !v.cfg.SaveCallstack {
		fmt.Fprintln(w, "(callstack tracking disabled)")
		return
	}
	for i, f := range v.callstack {
		fmt.Fprintf(w, "  #%d %s (pc=%d)\n", i, f.funcName, f.pc)
	}
}

// DumpHeap lists every live object reachable from the GC's intrusive
// list, one line per object with its kind.
func (v *VM) DumpHeap(w io.Writer) {
	cur := v.gc.listHead
	for cur != nil {
		fmt.Fprintf(w, "  %s %s\n", cur.kind, cur.self)
		cur = cur.gcNext
	}
}
