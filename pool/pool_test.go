package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type widget struct {
	id   int
	next *widget
}

func TestAllocateGrowsBlockOnlyWhenFreelistEmpty(t *testing.T) {
	p := New[widget](4, false)
	require.Equal(t, 0, p.BlockCount())

	for i := 0; i < 4; i++ {
		p.Allocate()
	}
	require.Equal(t, 1, p.BlockCount(), "four allocations should fit in one granularity-4 block")

	p.Allocate()
	require.Equal(t, 2, p.BlockCount(), "fifth allocation should grow a second block")
}

func TestAllocateReturnsUninitializedZeroValueMemory(t *testing.T) {
	p := New[widget](8, false)
	w := p.Allocate()
	require.Equal(t, widget{}, *w, "fresh Go-backed cells start zeroed even though the contract treats them as uninitialized")
}

func TestPoolInvariantsAcrossInterleavedOps(t *testing.T) {
	p := New[widget](4, false)
	var live []*widget

	ops := []bool{true, true, true, false, true, true, false, false, true, false, false, false}
	for _, alloc := range ops {
		if alloc {
			live = append(live, p.Allocate())
		} else {
			n := len(live) - 1
			p.Deallocate(live[n])
			live = live[:n]
		}
		require.Equal(t, p.TotalAllocs()-p.TotalFrees(), p.ObjectsAlive())
		require.GreaterOrEqual(t, p.ObjectsAlive(), uint64(0))
	}
}

func TestNAllocNDeallocLeavesZeroAliveAndPeakBlockCount(t *testing.T) {
	p := New[widget](4, false)
	const n = 37

	var live []*widget
	for i := 0; i < n; i++ {
		live = append(live, p.Allocate())
	}
	peak := p.BlockCount()

	for _, w := range live {
		p.Deallocate(w)
	}

	require.Equal(t, uint64(0), p.ObjectsAlive())
	require.Equal(t, peak, p.BlockCount(), "deallocate must never shrink block count")
}

func TestDeallocateNilIsNoop(t *testing.T) {
	p := New[widget](4, false)
	p.Allocate()
	before := p.ObjectsAlive()
	p.Deallocate(nil)
	require.Equal(t, before, p.ObjectsAlive())
}

func TestDeallocateWithNoLiveObjectsPanics(t *testing.T) {
	p := New[widget](4, false)
	w := p.Allocate()
	p.Deallocate(w)
	require.Panics(t, func() {
		p.Deallocate(w)
	})
}

func TestDrainResetsCountersAndBlocks(t *testing.T) {
	p := New[widget](4, false)
	for i := 0; i < 10; i++ {
		p.Allocate()
	}
	p.Drain()

	require.Equal(t, 0, p.BlockCount())
	require.Equal(t, uint64(0), p.TotalAllocs())
	require.Equal(t, uint64(0), p.TotalFrees())
	require.Equal(t, uint64(0), p.ObjectsAlive())
}

func TestDebugModeZeroesOnDeallocate(t *testing.T) {
	p := New[widget](4, true)
	w := p.Allocate()
	w.id = 42
	p.Deallocate(w)
	require.Equal(t, 0, w.id, "debug mode clears freed cells so stale references don't linger")
}

func TestGetTotalFreesDefinitionMatchesAllocMinusAlive(t *testing.T) {
	p := New[widget](4, false)
	a := p.Allocate()
	b := p.Allocate()
	p.Allocate()
	p.Deallocate(a)
	p.Deallocate(b)

	require.Equal(t, p.TotalAllocs()-p.ObjectsAlive(), p.TotalFrees())
}

func TestDefaultGranularityUsedWhenNonPositive(t *testing.T) {
	p := New[widget](0, false)
	require.Equal(t, DefaultGranularity, p.Granularity())

	p2 := New[widget](-3, false)
	require.Equal(t, DefaultGranularity, p2.Granularity())
}
