package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPushPopRoundTrip(t *testing.T) {
	s := NewStack(4)
	require.NoError(t, s.Push(Int(1)))
	require.NoError(t, s.Push(Int(2)))
	v, err := s.Pop()
	require.NoError(t, err)
	require.Equal(t, int64(2), v.AsInt())
	require.Equal(t, 1, s.Size())
}

func TestPushBeyondCapacityOverflows(t *testing.T) {
	s := NewStack(1)
	require.NoError(t, s.Push(Int(1)))
	require.ErrorIs(t, s.Push(Int(2)), ErrStackOverflow)
}

func TestPopEmptyUnderflows(t *testing.T) {
	s := NewStack(1)
	_, err := s.Pop()
	require.ErrorIs(t, err, ErrStackUnderflow)
}

func TestTopNViewsOldestFirst(t *testing.T) {
	s := NewStack(4)
	require.NoError(t, s.Push(Int(1)))
	require.NoError(t, s.Push(Int(2)))
	require.NoError(t, s.Push(Int(3)))
	view, err := s.TopN(2)
	require.NoError(t, err)
	require.Equal(t, int64(2), view.At(0).AsInt())
	require.Equal(t, int64(3), view.At(1).AsInt())
}

func TestTopNMoreThanOccupiedUnderflows(t *testing.T) {
	s := NewStack(4)
	require.NoError(t, s.Push(Int(1)))
	_, err := s.TopN(2)
	require.ErrorIs(t, err, ErrStackUnderflow)
}

func TestDropClearsSlotsAndShrinksTop(t *testing.T) {
	s := NewStack(4)
	require.NoError(t, s.Push(Int(1)))
	require.NoError(t, s.Push(Int(2)))
	require.NoError(t, s.Drop(2))
	require.Equal(t, 0, s.Size())
	require.True(t, s.At(0).IsNull())
	require.True(t, s.At(1).IsNull())
}

func TestSetBeyondTopAdvancesTop(t *testing.T) {
	s := NewStack(4)
	s.Set(2, Int(9))
	require.Equal(t, 3, s.Size())
	require.Equal(t, int64(9), s.At(2).AsInt())
}

func TestOccupiedReflectsOnlyPushedSlots(t *testing.T) {
	s := NewStack(4)
	require.NoError(t, s.Push(Int(1)))
	require.NoError(t, s.Push(Int(2)))
	occ := s.Occupied()
	require.Equal(t, 2, occ.Len())
}
