package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeRoots struct {
	vals []Variant
}

func (f *fakeRoots) Roots(yield func(*Variant)) {
	for i := range f.vals {
		yield(&f.vals[i])
	}
}

func TestMarkSweepKeepsOnlyReachableObjects(t *testing.T) {
	gc := NewGC(0, false)
	heap := NewHeap(0, false, gc)

	reachable := heap.NewString("kept")
	_ = heap.NewString("garbage-1")
	_ = heap.NewString("garbage-2")

	roots := &fakeRoots{vals: []Variant{Object(reachable)}}
	gc.Collect(roots)

	require.Equal(t, 1, gc.AliveCount())
}

func TestMarkTracesNestedReferencesThroughArray(t *testing.T) {
	gc := NewGC(0, false)
	heap := NewHeap(0, false, gc)

	inner := heap.NewString("inner")
	outer := heap.NewArray([]Variant{Object(inner)})
	_ = heap.NewString("unreachable")

	roots := &fakeRoots{vals: []Variant{Object(outer)}}
	gc.Collect(roots)

	require.Equal(t, 2, gc.AliveCount())
}

func TestAdaptiveThresholdScalesToTwiceSurvivors(t *testing.T) {
	gc := NewGC(4, true)
	heap := NewHeap(0, false, gc)

	var kept []Variant
	for i := 0; i < 3; i++ {
		kept = append(kept, Object(heap.NewString("kept")))
	}
	for i := 0; i < 5; i++ {
		heap.NewString("garbage")
	}

	roots := &fakeRoots{vals: kept}
	gc.Collect(roots)

	require.Equal(t, 3, gc.AliveCount())
	require.Equal(t, 6, gc.MaxCount())
}

func TestNonAdaptiveThresholdNeverChanges(t *testing.T) {
	gc := NewGC(4, false)
	heap := NewHeap(0, false, gc)
	for i := 0; i < 10; i++ {
		heap.NewString("garbage")
	}
	gc.Collect(&fakeRoots{})
	require.Equal(t, 4, gc.MaxCount())
}

func TestShutdownDestructsEveryLiveObjectAndDrainsHeap(t *testing.T) {
	gc := NewGC(0, false)
	heap := NewHeap(8, false, gc)
	for i := 0; i < 5; i++ {
		heap.NewString("live")
	}
	require.Equal(t, 5, gc.AliveCount())
	gc.Shutdown()
	require.Equal(t, 0, gc.AliveCount())
	require.Equal(t, uint64(0), heap.BigStats().ObjectsAlive)
}
