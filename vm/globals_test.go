package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddGlobalAssignsSequentialSlots(t *testing.T) {
	g := NewGlobalsTable()
	require.Equal(t, 0, g.AddGlobal("x", Int(1)))
	require.Equal(t, 1, g.AddGlobal("y", Int(2)))
	require.Equal(t, 2, g.Len())
}

func TestAddGlobalDuplicateNamePanics(t *testing.T) {
	g := NewGlobalsTable()
	g.AddGlobal("x", Null)
	require.Panics(t, func() {
		g.AddGlobal("x", Null)
	})
}

func TestGetGlobalOnUndeclaredNameFails(t *testing.T) {
	g := NewGlobalsTable()
	_, ok := g.GetGlobal("never-declared")
	require.False(t, ok)
}

func TestSetGlobalNeverCreatesANewSlot(t *testing.T) {
	g := NewGlobalsTable()
	require.False(t, g.SetGlobal("x", Int(1)))
	require.Equal(t, 0, g.Len())
}

func TestRootsYieldsEveryDeclaredGlobal(t *testing.T) {
	g := NewGlobalsTable()
	g.AddGlobal("x", Int(1))
	g.AddGlobal("y", Int(2))
	var seen []int64
	g.Roots(func(v *Variant) {
		seen = append(seen, v.AsInt())
	})
	require.Equal(t, []int64{1, 2}, seen)
}
