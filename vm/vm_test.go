package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExecuteEmptyProgramEndsWithEmptyStackAndNoLiveObjects(t *testing.T) {
	v := New([]Instruction{{Op: HALT}}, nil, Config{})
	err := v.Execute()
	require.NoError(t, err)
	require.Equal(t, 0, v.stack.Size())
	require.Equal(t, 0, v.GetAliveObjectsCount())
}

func TestExecuteArithmeticLeavesSumOnStack(t *testing.T) {
	code := []Instruction{
		{Op: PUSH, Operand: 0},
		{Op: PUSH, Operand: 1},
		{Op: ADD},
		{Op: HALT},
	}
	data := []Variant{Int(3), Int(4)}
	v := New(code, data, Config{})
	require.NoError(t, v.ExecuteRange(0, len(code)))
	top, err := v.stack.Top()
	require.NoError(t, err)
	require.Equal(t, int64(7), top.AsInt())
}

func TestGCCollectsEverythingButTheOneRetainedString(t *testing.T) {
	v := New([]Instruction{{Op: HALT}}, nil, Config{GCMaxCount: 64})
	var retained Variant
	for i := 0; i < 20; i++ {
		s := v.heap.NewString("garbage")
		val := Object(s)
		if i == 10 {
			retained = val
			require.NoError(t, v.stack.Push(val))
		}
	}
	require.Equal(t, 20, v.GetAliveObjectsCount())
	v.CollectGarbage()
	require.Equal(t, 1, v.GetAliveObjectsCount())
	require.False(t, retained.header().marked)
}

func TestGlobalsRegisterSetGetAndRejectUndeclared(t *testing.T) {
	v := New(nil, nil, Config{GlobalsTable: true})
	idx := v.Globals().AddGlobal("x", Null)
	require.Equal(t, 0, idx)
	require.True(t, v.Globals().SetGlobal("x", Int(42)))
	got, ok := v.Globals().GetGlobal("x")
	require.True(t, ok)
	require.Equal(t, int64(42), got.AsInt())
	require.False(t, v.Globals().SetGlobal("y", Int(1)))
}

func TestCallNativeAddAndArgMismatch(t *testing.T) {
	v := New(nil, nil, Config{})
	v.Functions().Register(&FuncDescriptor{
		Name:  "add",
		Arity: 2,
		IsNative: true,
		Native: func(vm *VM, args Slice) (Variant, error) {
			return Int(args.At(0).AsInt() + args.At(1).AsInt()), nil
		},
	})

	result, err := v.Call("add", Int(2), Int(3))
	require.NoError(t, err)
	require.Equal(t, int64(5), result.AsInt())

	_, err = v.Call("add", Int(2))
	require.ErrorIs(t, err, ErrArgMismatch)
}

func TestExecuteWithCallbackCancelStopsBeforeThirdInstruction(t *testing.T) {
	code := []Instruction{
		{Op: PUSH, Operand: 0},
		{Op: POP},
		{Op: PUSH, Operand: 0},
		{Op: POP},
		{Op: HALT},
	}
	data := []Variant{Int(1)}
	v := New(code, data, Config{})

	calls := 0
	err := v.ExecuteWithCallback(0, func(pc int) bool {
		calls++
		return calls < 3
	})
	require.ErrorIs(t, err, ErrCancelled)
	require.Equal(t, 3, calls)
	require.Equal(t, 2, v.GetProgramCounter())
}

func TestCallScriptFunctionRunsToCompletionAndRestoresHostPC(t *testing.T) {
	// double(n) = n + n, entry at code index 0; the host's program
	// counter is parked at index 4 while Call runs the function.
	code := []Instruction{
		{Op: LOAD_LOCAL, Operand: 0},
		{Op: LOAD_LOCAL, Operand: 0},
		{Op: ADD},
		{Op: RET},
		{Op: HALT},
	}
	v := New(code, nil, Config{})
	v.Functions().Register(&FuncDescriptor{Name: "double", Arity: 1, NumLocals: 1, Entry: 0})
	v.SetProgramCounter(4)

	result, err := v.Call("double", Int(21))
	require.NoError(t, err)
	require.Equal(t, int64(42), result.AsInt())
	require.Equal(t, 4, v.GetProgramCounter())
}

func TestRoundTripPushPopPreservesObjectIdentity(t *testing.T) {
	v := New(nil, nil, Config{})
	s := v.heap.NewString("hello")
	val := Object(s)
	require.NoError(t, v.stack.Push(val))
	popped, err := v.stack.Pop()
	require.NoError(t, err)
	require.True(t, popped.Equal(val))
	require.Same(t, s, popped.AsObject().(*LSStr))
}

func TestIdempotentCollectLeavesAliveCountUnchanged(t *testing.T) {
	v := New(nil, nil, Config{})
	str := v.heap.NewString("kept")
	require.NoError(t, v.stack.Push(Object(str)))
	v.CollectGarbage()
	first := v.GetAliveObjectsCount()
	v.CollectGarbage()
	require.Equal(t, first, v.GetAliveObjectsCount())
}

func TestDivisionByZeroWrapsSentinelWithProgramCounter(t *testing.T) {
	code := []Instruction{
		{Op: PUSH, Operand: 0},
		{Op: PUSH, Operand: 1},
		{Op: DIV},
		{Op: HALT},
	}
	data := []Variant{Int(1), Int(0)}
	v := New(code, data, Config{})
	err := v.Execute()
	require.ErrorIs(t, err, ErrDivByZero)
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, 2, rerr.PC)
}
