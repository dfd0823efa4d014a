// Package pool implements a generic fixed-block allocator: a freelist
// threaded through fixed-size backing arrays ("blocks"). It amortizes
// per-object allocation to O(1) and is the leaf allocator underneath
// the VM's size-classed heap.
//
// Not safe for concurrent use. Callers must externally serialize,
// exactly like the heap and GC layered on top of it.
package pool

// DefaultGranularity is the number of cells carved out of a fresh
// block when the freelist runs dry. It corresponds to the
// RT_OBJECT_POOL_GRANULARITY compile-time knob.
const DefaultGranularity = 64

// BlockPool is a fixed-size-block allocator parameterized by the
// pooled type T and a block granularity (cells per block). Blocks are
// never released individually; only Drain reclaims them.
type BlockPool[T any] struct {
	granularity int
	debug       bool

	blocks [][]T
	free   []*T

	totalAllocs  uint64
	totalFrees   uint64
	objectsAlive uint64
}

// New creates a pool with the given granularity. A granularity <= 0
// falls back to DefaultGranularity. When debug is true, cells are
// eagerly zeroed on Deallocate: the pool's backing blocks are
// long-lived slices, so a freed cell's stale pointer fields would
// otherwise keep its old referents reachable (and, for Variant-holding
// types, keep stale heap objects artificially alive) until the cell is
// reused or the pool is drained. Debug mode also makes a
// use-after-free read observably a zero value rather than stale data.
func New[T any](granularity int, debug bool) *BlockPool[T] {
	if granularity <= 0 {
		granularity = DefaultGranularity
	}
	return &BlockPool[T]{granularity: granularity, debug: debug}
}

// Allocate returns a pointer to uninitialized storage for one T. If
// the freelist is empty, a new block is grown first. Construction is
// the caller's responsibility — this call only reserves the memory.
func (p *BlockPool[T]) Allocate() *T {
	if len(p.free) == 0 {
		p.growBlock()
	}
	n := len(p.free) - 1
	cell := p.free[n]
	p.free = p.free[:n]
	p.totalAllocs++
	p.objectsAlive++
	return cell
}

// Deallocate returns ptr to the freelist. ptr must have already been
// destructed (its referent's resources, if any, released) by the
// caller. Deallocating nil is a no-op. Deallocating when no objects
// are alive is a programming error and panics.
func (p *BlockPool[T]) Deallocate(ptr *T) {
	if ptr == nil {
		return
	}
	if p.objectsAlive == 0 {
		panic("pool: deallocate called with zero live objects")
	}
	if p.debug {
		var zero T
		*ptr = zero
	}
	p.free = append(p.free, ptr)
	p.totalFrees++
	p.objectsAlive--
}

// Drain releases every block, resets all counters, and invalidates
// every pointer previously returned by Allocate. Go's own GC, not this
// pool, then reclaims the backing arrays once nothing else references
// them — unlike the C++ original, a dangling pointer after Drain is a
// stale value, not a use-after-free hazard.
func (p *BlockPool[T]) Drain() {
	p.blocks = nil
	p.free = nil
	p.totalAllocs = 0
	p.totalFrees = 0
	p.objectsAlive = 0
}

// TotalAllocs returns the number of cells ever handed out by Allocate.
func (p *BlockPool[T]) TotalAllocs() uint64 { return p.totalAllocs }

// TotalFrees returns the number of Deallocate calls since the pool was
// created or last drained. Because Drain resets every counter, this
// always equals TotalAllocs() - ObjectsAlive(), the source's
// getTotalFrees() definition.
func (p *BlockPool[T]) TotalFrees() uint64 { return p.totalFrees }

// ObjectsAlive returns totalAllocs - totalFrees. Always >= 0.
func (p *BlockPool[T]) ObjectsAlive() uint64 { return p.objectsAlive }

// BlockCount returns the number of backing blocks currently held.
func (p *BlockPool[T]) BlockCount() int { return len(p.blocks) }

// Granularity returns the number of cells per block.
func (p *BlockPool[T]) Granularity() int { return p.granularity }

func (p *BlockPool[T]) growBlock() {
	block := make([]T, p.granularity)
	p.blocks = append(p.blocks, block)
	for i := range block {
		p.free = append(p.free, &block[i])
	}
}
